package authclient

import (
	"context"
	"net/http"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// PasswordRecovery runs the three-step reset sequence: request a code, verify
// it, set a new password. It is stateless relative to the Session: the steps
// are correlated only by the email address and code carried as parameters,
// and no step ever mutates session status. The client enforces ordering (the
// final step requires a code this flow has seen verified) but the server is
// the authority on code validity and single-use consumption.
type PasswordRecovery struct {
	api    *apiClient
	logger Logger

	mu       sync.Mutex
	verified map[string]string // email -> verified code
}

// PasswordRecovery returns the reset flow bound to this client's API.
func (c *Client) PasswordRecovery() *PasswordRecovery {
	return &PasswordRecovery{
		api:      c.api,
		logger:   c.logger,
		verified: map[string]string{},
	}
}

// RequestResetMessage asks the server to email a reset code.
type RequestResetMessage struct {
	Email string `json:"email"`
}

// Validate implements client-side checks before the request goes out.
func (m RequestResetMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
	)
}

// VerifyResetCodeMessage checks an emailed code ahead of the password change.
type VerifyResetCodeMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate implements client-side checks before the request goes out.
func (m VerifyResetCodeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Code, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

// CompleteResetMessage sets the new password using a verified code.
type CompleteResetMessage struct {
	Email                string `json:"email"`
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Validate implements client-side checks before the request goes out.
func (m CompleteResetMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Code, validation.Required, validation.Length(6, 6), is.Digit),
		validation.Field(&m.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&m.PasswordConfirmation,
			validation.Required,
			validation.By(matchesString(m.Password, "passwords do not match")),
		),
	)
}

// RequestReset asks the server to send a reset code. The server responds the
// same whether or not the account exists; the message passes through.
func (f *PasswordRecovery) RequestReset(ctx context.Context, msg RequestResetMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset request")
	}

	resp := apiEnvelope{}
	if err := f.api.do(ctx, http.MethodPost, "/auth/forgot-password", msg, &resp); err != nil {
		return "", err
	}

	return resp.Message, nil
}

// VerifyResetCode confirms the emailed code with the server. On success the
// flow remembers the pair so CompleteReset can be called.
func (f *PasswordRecovery) VerifyResetCode(ctx context.Context, msg VerifyResetCodeMessage) error {
	if err := msg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset code payload")
	}

	if err := f.api.do(ctx, http.MethodPost, "/auth/verify-recovery-code", msg, nil); err != nil {
		if isUnauthorized(err) || hasTextCode(err, textCodeServerValidation) {
			return withMeta(ErrResetCodeInvalid, map[string]any{"email": msg.Email})
		}
		return err
	}

	f.mu.Lock()
	f.verified[msg.Email] = msg.Code
	f.mu.Unlock()

	return nil
}

// CompleteReset sets the new password. It requires the email/code pair to
// have passed VerifyResetCode in this flow; the server still re-checks and
// consumes the code.
func (f *PasswordRecovery) CompleteReset(ctx context.Context, msg CompleteResetMessage) error {
	if err := msg.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	f.mu.Lock()
	code, ok := f.verified[msg.Email]
	f.mu.Unlock()
	if !ok || code != msg.Code {
		return goerrors.New("reset code has not been verified", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"email": msg.Email})
	}

	if err := f.api.do(ctx, http.MethodPost, "/auth/reset-password", msg, nil); err != nil {
		// Server validation failures (weak password) pass through verbatim;
		// only an outright rejection means the code was bad or consumed.
		if isUnauthorized(err) {
			return withMeta(ErrResetCodeInvalid, map[string]any{"email": msg.Email})
		}
		return err
	}

	// The code is consumed server-side; drop it so a replay fails locally too.
	f.mu.Lock()
	delete(f.verified, msg.Email)
	f.mu.Unlock()

	return nil
}
