package services

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
)

// QuoteRequest asks for a shipping estimate.
type QuoteRequest struct {
	OriginZip      string  `json:"origin_zip"`
	DestinationZip string  `json:"destination_zip"`
	WeightKg       float64 `json:"weight_kg"`
}

// Validate implements client-side checks before the request goes out.
func (r QuoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OriginZip, validation.Required),
		validation.Field(&r.DestinationZip, validation.Required),
		validation.Field(&r.WeightKg, validation.Required, validation.Min(0.01)),
	)
}

// Quote is a shipping estimate.
type Quote struct {
	Carrier string  `json:"carrier"`
	Cost    float64 `json:"cost"`
	EtaDays int     `json:"eta_days"`
}

// Shipping wraps the shipping endpoints.
type Shipping struct {
	api Doer
}

// NewShipping returns the shipping service over the given client.
func NewShipping(api Doer) *Shipping {
	return &Shipping{api: api}
}

// Quote fetches shipping estimates for a parcel.
func (s *Shipping) Quote(ctx context.Context, req QuoteRequest) ([]Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out []Quote
	if err := s.api.Do(ctx, http.MethodPost, "/shipping/quote", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
