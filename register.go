package authclient

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FirstName            string `json:"first_name,omitempty"`
	LastName             string `json:"last_name,omitempty"`
	Type                 string `json:"type"`
}

// Validate implements client-side checks before the request goes out.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(matchesString(r.Password, "passwords do not match")),
		),
		validation.Field(&r.Type, validation.Required, validation.In("student", "business", "professional")),
	)
}

type registerResponse struct {
	User    *wireUser `json:"user"`
	Message string    `json:"message"`
}

// Register creates an account. The new identity starts unverified, so the
// session moves to pending-verification and SubmitVerification completes the
// promotion once the emailed code is entered.
func (c *Client) Register(ctx context.Context, payload RegisterRequest) (Session, error) {
	if err := payload.Validate(); err != nil {
		return c.Status(), goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	c.flow.Lock()
	defer c.flow.Unlock()

	snap := c.machine.snapshot()
	if snap.Status != StatusAnonymous {
		return snap, withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "register",
		})
	}

	resp := registerResponse{}
	if err := c.api.do(ctx, http.MethodPost, "/auth/register", payload, &resp); err != nil {
		return snap, err
	}

	email := NormalizeIdentifier(payload.Email, c.cfg.PhoneRegion)
	return c.machine.transition(ctx, StatusPendingVerification, sessionData{
		challenge: &pendingChallenge{
			Login:      email,
			Email:      email,
			IdentityID: resp.User.identity().ID,
		},
	}, ActivityEventStatusChanged, map[string]any{"reason": "registered"})
}

func matchesString(expected, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return goerrors.New(message, goerrors.CategoryValidation)
		}
		return nil
	}
}
