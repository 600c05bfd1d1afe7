package services

import (
	"context"
	"net/http"
	"time"
)

// Balance is the wallet's current standing.
type Balance struct {
	Available float64 `json:"available"`
	Pending   float64 `json:"pending"`
	Currency  string  `json:"currency"`
}

// Transaction is a single wallet movement.
type Transaction struct {
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Wallet wraps the wallet endpoints.
type Wallet struct {
	api Doer
}

// NewWallet returns the wallet service over the given client.
func NewWallet(api Doer) *Wallet {
	return &Wallet{api: api}
}

// Balance fetches the current balance.
func (s *Wallet) Balance(ctx context.Context) (*Balance, error) {
	out := &Balance{}
	if err := s.api.Do(ctx, http.MethodGet, "/wallet/balance", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions fetches the movement history.
func (s *Wallet) Transactions(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	if err := s.api.Do(ctx, http.MethodGet, "/wallet/transactions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
