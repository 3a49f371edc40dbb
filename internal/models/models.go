package models

import (
	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// Order links a buyer to a product and, once placement completes, to the
// payment covering it. UserID and PaymentID are zero until the workflow
// sets them; a committed order always has both.
type Order struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	ProductID  int64           `json:"product_id"`
	PaymentID  int64           `json:"payment_id,omitempty"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type Payment struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	OrderID       int64           `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
}

const (
	PaymentStatusPending   = "Pending"
	PaymentStatusProcessed = "Processed"
)
