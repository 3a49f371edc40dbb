package integration

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/safar/go-shop-api/internal/database"
	"github.com/safar/go-shop-api/internal/models"
	"github.com/safar/go-shop-api/internal/store"
	"github.com/shopspring/decimal"
)

func createBuyer(t *testing.T, db *sql.DB, username, email string) *models.User {
	t.Helper()

	user, err := store.RegisterUser(context.Background(), db, username, email, "s3cret")
	if err != nil {
		t.Fatalf("Register buyer: %v", err)
	}
	return user
}

func TestPlaceOrder(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "A widget",
		decimal.RequireFromString("9.99"), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	order, err := store.PlaceOrder(ctx, db, buyer.ID, product.ID, 2)
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	if order.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", order.Quantity)
	}
	expectedTotal := decimal.RequireFromString("19.98")
	if !order.TotalPrice.Equal(expectedTotal) {
		t.Errorf("Expected total %s, got %s", expectedTotal, order.TotalPrice)
	}
	if order.UserID != buyer.ID {
		t.Errorf("Expected buyer %d, got %d", buyer.ID, order.UserID)
	}
	if order.PaymentID == 0 {
		t.Error("Order should be linked to a payment")
	}

	payment, err := store.GetPaymentByOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get payment by order: %v", err)
	}
	if payment.ID != order.PaymentID {
		t.Errorf("Order payment_id %d does not match payment %d", order.PaymentID, payment.ID)
	}
	if payment.OrderID != order.ID {
		t.Errorf("Payment order_id %d does not match order %d", payment.OrderID, order.ID)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Errorf("Expected status Pending, got %s", payment.Status)
	}
	if !payment.Amount.Equal(expectedTotal) {
		t.Errorf("Expected amount %s, got %s", expectedTotal, payment.Amount)
	}
	if payment.PaymentMethod != "Credit Card" {
		t.Errorf("Expected payment method Credit Card, got %s", payment.PaymentMethod)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockQuantity != 3 {
		t.Errorf("Expected stock 3, got %d", productAfter.StockQuantity)
	}
}

func TestPlaceOrderInvalidQuantity(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	for _, quantity := range []int{0, -1} {
		_, err := store.PlaceOrder(ctx, db, buyer.ID, product.ID, quantity)
		if err != database.ErrInvalidQuantity {
			t.Errorf("Quantity %d: expected ErrInvalidQuantity, got: %v", quantity, err)
		}
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockQuantity != 5 {
		t.Errorf("Stock should remain unchanged at 5, got %d", productAfter.StockQuantity)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	_, err = store.PlaceOrder(ctx, db, buyer.ID, product.ID, 10)
	if err != database.ErrInsufficientStock {
		t.Errorf("Expected ErrInsufficientStock, got: %v", err)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockQuantity != 5 {
		t.Errorf("Stock should remain unchanged at 5, got %d", productAfter.StockQuantity)
	}

	// The aborted workflow must leave no partial state behind.
	var orderCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount); err != nil {
		t.Fatalf("Count orders: %v", err)
	}
	if orderCount != 0 {
		t.Errorf("Expected 0 orders after failed placement, got %d", orderCount)
	}
}

func TestPlaceOrderProductNotFound(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	_, err := store.PlaceOrder(ctx, db, buyer.ID, 99999, 1)
	if err != database.ErrProductNotFound {
		t.Errorf("Expected ErrProductNotFound, got: %v", err)
	}
}

func TestConcurrentPlaceOrderContention(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	// Stock 5 covers one quantity-3 order, not two.
	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.PlaceOrder(ctx, db, buyer.ID, product.ID, 3)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	insufficientCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, database.ErrInsufficientStock):
			insufficientCount++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 1 || insufficientCount != 1 {
		t.Errorf("Expected 1 success and 1 insufficient-stock failure, got %d and %d",
			successCount, insufficientCount)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockQuantity != 2 {
		t.Errorf("Expected final stock 2, got %d", productAfter.StockQuantity)
	}
}

func TestConcurrentPlaceOrderFanOut(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "", decimal.NewFromInt(10), 20)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	concurrency := 10
	var wg sync.WaitGroup
	results := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.PlaceOrder(ctx, db, buyer.ID, product.ID, 2)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, database.ErrInsufficientStock):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != concurrency {
		t.Errorf("Expected %d successful orders, got %d", concurrency, successCount)
	}

	productAfter, err := store.GetProduct(ctx, db, product.ID)
	if err != nil {
		t.Fatalf("Get product: %v", err)
	}
	if productAfter.StockQuantity != 0 {
		t.Errorf("Expected final stock 0, got %d", productAfter.StockQuantity)
	}
}

func TestGetOrder(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()

	buyer := createBuyer(t, db, "alice", "alice@example.com")

	product, err := store.CreateProduct(ctx, db, "Widget", "", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}

	placed, err := store.PlaceOrder(ctx, db, buyer.ID, product.ID, 1)
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}

	got, err := store.GetOrder(ctx, db, placed.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if got.ProductID != product.ID || got.UserID != buyer.ID || got.PaymentID != placed.PaymentID {
		t.Errorf("Unexpected order: %+v", got)
	}

	if _, err := store.GetOrder(ctx, db, 99999); err != database.ErrOrderNotFound {
		t.Errorf("Expected ErrOrderNotFound, got: %v", err)
	}
}
