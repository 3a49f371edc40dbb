package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-shop-api/internal/database"
	"github.com/safar/go-shop-api/internal/models"
	"github.com/shopspring/decimal"
)

// PlaceOrder runs the whole placement workflow in one transaction:
// validate the product and quantity against the locked row, price the
// order, create the order and its pending payment, link the two, and
// decrement stock. The product row lock is held until commit, so
// concurrent placements on the same product serialize and the stock check
// cannot interleave with another placement's decrement. On any failure
// nothing is committed; deadlocks retry.
func PlaceOrder(ctx context.Context, db *sql.DB, buyerID, productID int64, quantity int) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		product, err := LockProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			return database.ErrInvalidQuantity
		}
		if quantity > product.StockQuantity {
			return database.ErrInsufficientStock
		}

		totalPrice := product.Price.Mul(decimal.NewFromInt(int64(quantity)))

		var orderID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (product_id, quantity, total_price)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			productID, quantity, totalPrice).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET user_id = $1 WHERE id = $2`,
			buyerID, orderID)
		if err != nil {
			return fmt.Errorf("link buyer: %w", err)
		}

		payment, err := CreatePayment(ctx, tx, CreatePaymentRequest{
			UserID:        buyerID,
			OrderID:       orderID,
			Amount:        totalPrice,
			Status:        models.PaymentStatusPending,
			PaymentMethod: "Credit Card",
		})
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET payment_id = $1 WHERE id = $2`,
			payment.ID, orderID)
		if err != nil {
			return fmt.Errorf("link payment: %w", err)
		}

		// Last line of defense: the guarded decrement re-validates that
		// stock still covers the quantity.
		if err := DecrementStock(ctx, tx, productID, quantity); err != nil {
			return err
		}

		order, err = getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	return getOrder(ctx, db, id)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getOrder(ctx context.Context, q rowQuerier, id int64) (*models.Order, error) {
	order := &models.Order{}
	var userID, paymentID sql.NullInt64

	query := `
		SELECT id, user_id, product_id, payment_id, quantity, total_price
		FROM orders
		WHERE id = $1`

	err := q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&userID,
		&order.ProductID,
		&paymentID,
		&order.Quantity,
		&order.TotalPrice,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order.UserID = userID.Int64
	order.PaymentID = paymentID.Int64

	return order, nil
}
