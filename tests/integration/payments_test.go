package integration

import (
	"context"
	"testing"

	"github.com/safar/go-shop-api/internal/database"
	"github.com/safar/go-shop-api/internal/models"
	"github.com/safar/go-shop-api/internal/store"
	"github.com/shopspring/decimal"
)

func TestProcessPayment(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	order, err := store.PlaceOrder(ctx, db, buyer.ID, product.ID, 1)
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	payment, err := store.GetPayment(ctx, db, order.PaymentID)
	if err != nil {
		t.Fatalf("Get payment: %v", err)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("Expected Pending payment, got %s", payment.Status)
	}

	processed, err := store.ProcessPayment(ctx, db, payment.ID)
	if err != nil {
		t.Fatalf("Process payment: %v", err)
	}
	if processed.Status != models.PaymentStatusProcessed {
		t.Errorf("Expected status Processed, got %s", processed.Status)
	}

	// Re-processing is idempotent.
	again, err := store.ProcessPayment(ctx, db, payment.ID)
	if err != nil {
		t.Fatalf("Re-process payment: %v", err)
	}
	if again.Status != models.PaymentStatusProcessed {
		t.Errorf("Expected status Processed after re-processing, got %s", again.Status)
	}
}

func TestProcessPaymentNotFound(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	if _, err := store.ProcessPayment(ctx, db, 99999); err != database.ErrPaymentNotFound {
		t.Errorf("Expected ErrPaymentNotFound, got: %v", err)
	}
}

func TestGetPaymentByOrderAbsent(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	if _, err := store.GetPaymentByOrder(ctx, db, 99999); err != database.ErrPaymentNotFound {
		t.Errorf("Expected ErrPaymentNotFound, got: %v", err)
	}
}
