package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-shop-api/internal/database"
	"github.com/safar/go-shop-api/internal/models"
	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	UserID        int64
	OrderID       int64
	Amount        decimal.Decimal
	Status        string
	PaymentMethod string
}

// CreatePayment is tx-scoped: payments only come into existence as part of
// the order placement transaction.
func CreatePayment(ctx context.Context, tx *sql.Tx, req CreatePaymentRequest) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		INSERT INTO payments (user_id, order_id, amount, status, payment_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, order_id, amount, status, payment_method`

	err := tx.QueryRowContext(ctx, query,
		req.UserID, req.OrderID, req.Amount, req.Status, req.PaymentMethod).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.PaymentMethod,
	)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	return payment, nil
}

func GetPayment(ctx context.Context, db *sql.DB, id int64) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		SELECT id, user_id, order_id, amount, status, payment_method
		FROM payments
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.PaymentMethod,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return payment, nil
}

func GetPaymentByOrder(ctx context.Context, db *sql.DB, orderID int64) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		SELECT id, user_id, order_id, amount, status, payment_method
		FROM payments
		WHERE order_id = $1`

	err := db.QueryRowContext(ctx, query, orderID).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.PaymentMethod,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment by order: %w", err)
	}

	return payment, nil
}

func SetPaymentStatus(ctx context.Context, db *sql.DB, id int64, status string) (*models.Payment, error) {
	payment := &models.Payment{}

	query := `
		UPDATE payments
		SET status = $1
		WHERE id = $2
		RETURNING id, user_id, order_id, amount, status, payment_method`

	err := db.QueryRowContext(ctx, query, status, id).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.PaymentMethod,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("set payment status: %w", err)
	}

	return payment, nil
}

// ProcessPayment simulates payment processing by moving the payment to
// Processed. Re-processing an already-Processed payment is a no-op, not an
// error.
func ProcessPayment(ctx context.Context, db *sql.DB, id int64) (*models.Payment, error) {
	return SetPaymentStatus(ctx, db, id, models.PaymentStatusProcessed)
}
