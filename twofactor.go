package authclient

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Submit2FA exchanges a time-based one-time code for a token and promotes the
// pending-2fa session to authenticated. A wrong code returns
// ErrTwoFactorCodeInvalid and leaves the session parked.
func (c *Client) Submit2FA(ctx context.Context, code string) (Session, error) {
	if err := validation.Validate(code, validation.Required, validation.Length(6, 6), is.Digit); err != nil {
		return c.Status(), goerrors.Wrap(err, goerrors.CategoryValidation, "invalid two factor code")
	}

	return c.completeTwoFactor(ctx, "/auth/2fa/verify",
		map[string]string{"code": code},
		ErrTwoFactorCodeInvalid, "totp")
}

// Submit2FARecovery resolves the pending-2fa session with a single-use
// recovery code. The server consumes the code on success; a replayed or
// unknown code returns ErrRecoveryCodeRejected, which is deliberately
// distinct from a mistyped TOTP digit.
func (c *Client) Submit2FARecovery(ctx context.Context, recoveryCode string) (Session, error) {
	if err := validation.Validate(recoveryCode, validation.Required, validation.Length(8, 64)); err != nil {
		return c.Status(), goerrors.Wrap(err, goerrors.CategoryValidation, "invalid recovery code")
	}

	return c.completeTwoFactor(ctx, "/auth/2fa/validate-recovery",
		map[string]string{"recovery_code": recoveryCode},
		ErrRecoveryCodeRejected, "recovery_code")
}

// completeTwoFactor is the shared transition contract for both second-factor
// submissions; only the endpoint and the failure condition differ.
func (c *Client) completeTwoFactor(ctx context.Context, path string, body map[string]string, rejection *goerrors.Error, method string) (Session, error) {
	c.flow.Lock()
	defer c.flow.Unlock()

	snap := c.machine.snapshot()
	if snap.Status != StatusPending2FA {
		return snap, withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "submit_2fa",
		})
	}

	challenge, _ := c.machine.pendingInfo()

	resp := tokenResponse{}
	if err := c.api.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		if isUnauthorized(err) || hasTextCode(err, textCodeServerValidation) {
			c.recordAuthEvent(ctx, ActivityEventTwoFactorFailure, challenge.IdentityID, map[string]any{
				"method": method,
			})
			return snap, withMeta(rejection, map[string]any{"method": method})
		}
		return snap, err
	}

	if resp.Token == "" {
		return snap, goerrors.New("two factor response carried no token", goerrors.CategoryInternal)
	}

	identity := resp.User.identity()
	if identity.ID == "" {
		identity.ID = challenge.IdentityID
	}
	identity.TwoFactorEnabled = true

	return c.machine.transition(ctx, StatusAuthenticated, sessionData{
		token:    resp.Token,
		identity: identity,
	}, ActivityEventLoginSuccess, map[string]any{"via": method})
}

// TwoFactorSetup is the enrollment payload: the shared secret to provision an
// authenticator app plus the initial recovery codes.
type TwoFactorSetup struct {
	Secret        string   `json:"secret"`
	QRCodeURL     string   `json:"qr_code_url"`
	RecoveryCodes []string `json:"recovery_codes"`
}

// Enable2FA starts two-factor enrollment for the authenticated identity.
// Enrollment is an ordinary authenticated operation, independent from the
// login challenge flow.
func (c *Client) Enable2FA(ctx context.Context) (*TwoFactorSetup, error) {
	setup := &TwoFactorSetup{}
	if err := c.authenticatedCall(ctx, http.MethodPost, "/auth/2fa/enable", nil, setup); err != nil {
		return nil, err
	}
	return setup, nil
}

// Confirm2FASetup proves the authenticator was provisioned by submitting its
// first code, activating two-factor on the account.
func (c *Client) Confirm2FASetup(ctx context.Context, code string) error {
	if err := validation.Validate(code, validation.Required, validation.Length(6, 6), is.Digit); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid two factor code")
	}
	return c.authenticatedCall(ctx, http.MethodPost, "/auth/2fa/verify-setup", map[string]string{"code": code}, nil)
}

// Disable2FA turns off two-factor; the server requires a current code.
func (c *Client) Disable2FA(ctx context.Context, code string) error {
	if err := validation.Validate(code, validation.Required, validation.Length(6, 6), is.Digit); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid two factor code")
	}
	return c.authenticatedCall(ctx, http.MethodPost, "/auth/2fa/disable", map[string]string{"code": code}, nil)
}

type recoveryCodesResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

// RecoveryCodes returns the unused recovery codes for the account.
func (c *Client) RecoveryCodes(ctx context.Context) ([]string, error) {
	resp := recoveryCodesResponse{}
	if err := c.authenticatedCall(ctx, http.MethodGet, "/auth/2fa/recovery-codes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.RecoveryCodes, nil
}

// RegenerateRecoveryCodes replaces all recovery codes, invalidating the old
// set server-side.
func (c *Client) RegenerateRecoveryCodes(ctx context.Context) ([]string, error) {
	resp := recoveryCodesResponse{}
	if err := c.authenticatedCall(ctx, http.MethodPost, "/auth/2fa/recovery-codes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.RecoveryCodes, nil
}

func (c *Client) authenticatedCall(ctx context.Context, method, path string, in, out any) error {
	if snap := c.machine.snapshot(); !snap.IsAuthenticated() {
		return withMeta(ErrInvalidTransition, map[string]any{
			"from":  snap.Status,
			"event": "authenticated_call",
			"path":  path,
		})
	}
	return c.Do(ctx, method, path, in, out)
}
