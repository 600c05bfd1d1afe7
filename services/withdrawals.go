package services

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// WithdrawalRequest moves wallet funds to an external destination.
type WithdrawalRequest struct {
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	Destination string  `json:"destination"`
}

// Validate implements client-side checks before the request goes out.
func (r WithdrawalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required, validation.Min(1.0)),
		validation.Field(&r.Method, validation.Required, validation.In("bank_transfer", "mobile_money", "paypal")),
		validation.Field(&r.Destination, validation.Required),
	)
}

// Withdrawal is the record created for a payout request.
type Withdrawal struct {
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Withdrawals wraps the payout endpoints.
type Withdrawals struct {
	api Doer
}

// NewWithdrawals returns the withdrawal service over the given client.
func NewWithdrawals(api Doer) *Withdrawals {
	return &Withdrawals{api: api}
}

// Create submits a payout request.
func (s *Withdrawals) Create(ctx context.Context, req WithdrawalRequest) (*Withdrawal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out := &Withdrawal{}
	if err := s.api.Do(ctx, http.MethodPost, "/withdrawals", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// List fetches the user's payout history.
func (s *Withdrawals) List(ctx context.Context) ([]Withdrawal, error) {
	var out []Withdrawal
	if err := s.api.Do(ctx, http.MethodGet, "/withdrawals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
