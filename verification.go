package authclient

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// VerificationSubmission carries an email verification code.
type VerificationSubmission struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate implements client-side checks before the request goes out.
func (r VerificationSubmission) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

type tokenResponse struct {
	Token string    `json:"token"`
	User  *wireUser `json:"user"`
}

// SubmitVerification exchanges an email verification code for a token and
// promotes the pending-verification session to authenticated. A wrong code
// returns ErrVerificationCodeInvalid and leaves the session parked; there is
// no client-side lockout.
func (c *Client) SubmitVerification(ctx context.Context, code string) (Session, error) {
	c.flow.Lock()
	defer c.flow.Unlock()

	snap := c.machine.snapshot()
	if snap.Status != StatusPendingVerification {
		return snap, withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "submit_verification",
		})
	}

	challenge, _ := c.machine.pendingInfo()
	payload := VerificationSubmission{Email: challenge.Email, Code: code}
	if err := payload.Validate(); err != nil {
		return snap, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid verification code")
	}

	resp := tokenResponse{}
	if err := c.api.do(ctx, http.MethodPost, "/auth/verify-email", payload, &resp); err != nil {
		if isUnauthorized(err) || hasTextCode(err, textCodeServerValidation) {
			return snap, withMeta(ErrVerificationCodeInvalid, map[string]any{"email": challenge.Email})
		}
		return snap, err
	}

	if resp.Token == "" {
		return snap, goerrors.New("verification response carried no token", goerrors.CategoryInternal)
	}

	identity := resp.User.identity()
	if identity.ID == "" {
		identity.ID = challenge.IdentityID
	}
	identity.Verified = true

	return c.machine.transition(ctx, StatusAuthenticated, sessionData{
		token:    resp.Token,
		identity: identity,
	}, ActivityEventLoginSuccess, map[string]any{"via": "email_verification"})
}

// ResendVerification asks the server to send a fresh code. It never changes
// session state and is safe to call repeatedly; the server's rate limiting is
// the only guard and its rejections pass through verbatim.
func (c *Client) ResendVerification(ctx context.Context) error {
	snap := c.machine.snapshot()
	if snap.Status != StatusPendingVerification {
		return withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "resend_verification",
		})
	}

	challenge, ok := c.machine.pendingInfo()
	if !ok {
		return withMeta(ErrInvalidTransition, map[string]any{"event": "resend_verification"})
	}

	body := map[string]string{"email": challenge.Email}
	if err := c.api.do(ctx, http.MethodPost, "/auth/resend-verification", body, nil); err != nil {
		return err
	}

	c.recordAuthEvent(ctx, ActivityEventVerificationResent, challenge.IdentityID, map[string]any{
		"email": challenge.Email,
	})
	return nil
}
