package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-shop-api/internal/auth"
	"github.com/safar/go-shop-api/internal/database"
	"github.com/safar/go-shop-api/internal/models"
)

// RegisterUser creates a user with a bcrypt-hashed password. The email
// check runs before the username check, so a request conflicting on both
// reports the email conflict. The checks and insert share one transaction;
// a unique violation that still slips through a race maps back to the same
// sentinel by constraint name.
func RegisterUser(ctx context.Context, db *sql.DB, username, email, password string) (*models.User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{}

	err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)",
			email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return database.ErrEmailTaken
		}

		err = tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)",
			username).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check username exists: %w", err)
		}
		if exists {
			return database.ErrUsernameTaken
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO users (username, email, password_hash)
			 VALUES ($1, $2, $3)
			 RETURNING id, username, email, password_hash`,
			username, email, passwordHash).Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
		)
		if err != nil {
			if database.IsUniqueViolation(err, "users_email_key") {
				return database.ErrEmailTaken
			}
			if database.IsUniqueViolation(err, "users_username_key") {
				return database.ErrUsernameTaken
			}
			return fmt.Errorf("create user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// AuthenticateUser returns the user when the username exists and the
// password verifies. Unknown username and wrong password are deliberately
// indistinguishable to the caller.
func AuthenticateUser(ctx context.Context, db *sql.DB, username, password string) (*models.User, error) {
	user, err := GetUserByUsername(ctx, db, username)
	if err != nil {
		if err == database.ErrUserNotFound {
			return nil, database.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, database.ErrInvalidCredentials
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	query := `
		SELECT id, username, email, password_hash
		FROM users
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*models.User, error) {
	user := &models.User{}

	query := `
		SELECT id, username, email, password_hash
		FROM users
		WHERE username = $1`

	err := db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return user, nil
}
