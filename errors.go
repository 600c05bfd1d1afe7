package authclient

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	textCodeSessionExpired       = "SESSION_EXPIRED"
	textCodeConnectivity         = "CONNECTIVITY"
	textCodeRateLimited          = "RATE_LIMITED"
	textCodeInvalidTransition    = "INVALID_SESSION_TRANSITION"
	textCodeVerificationRequired = "VERIFICATION_REQUIRED"
	textCodeVerificationInvalid  = "VERIFICATION_CODE_INVALID"
	textCodeTwoFactorInvalid     = "TWO_FACTOR_CODE_INVALID"
	textCodeRecoveryCodeRejected = "RECOVERY_CODE_REJECTED"
	textCodeResetCodeInvalid     = "RESET_CODE_INVALID"
	textCodeServerValidation     = "SERVER_VALIDATION"
	textCodeServerError          = "SERVER_ERROR"
)

// ErrInvalidCredentials is returned when the server rejects a login attempt.
// Safe to retry with corrected input; never changes session state.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned when an authenticated call receives a 401.
// By the time the caller sees it the session has already been demoted.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrConnectivity is returned when no response was received at all. It never
// alters session state: being offline is not being logged out.
var ErrConnectivity = goerrors.New("request failed without a response", goerrors.CategoryExternal).
	WithTextCode(textCodeConnectivity)

// ErrRateLimited passes a server-side throttle through verbatim.
var ErrRateLimited = goerrors.New("rate limited by server", goerrors.CategoryRateLimit).
	WithTextCode(textCodeRateLimited)

// ErrInvalidTransition is returned when an auth operation is attempted from a
// session state that does not permit it.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrVerificationRequired signals that the identity exists but email
// ownership is unconfirmed, so the session moved to pending-verification.
var ErrVerificationRequired = goerrors.New("email verification required", goerrors.CategoryAuth).
	WithTextCode(textCodeVerificationRequired)

// ErrVerificationCodeInvalid is returned for a wrong email verification code.
var ErrVerificationCodeInvalid = goerrors.New("verification code rejected", goerrors.CategoryAuth).
	WithTextCode(textCodeVerificationInvalid)

// ErrTwoFactorCodeInvalid is returned for a wrong TOTP digit sequence.
var ErrTwoFactorCodeInvalid = goerrors.New("two factor code rejected", goerrors.CategoryAuth).
	WithTextCode(textCodeTwoFactorInvalid)

// ErrRecoveryCodeRejected is returned when a recovery code is unknown or was
// already consumed. Kept distinct from ErrTwoFactorCodeInvalid so callers can
// tell a mistyped TOTP digit from a burned recovery code.
var ErrRecoveryCodeRejected = goerrors.New("recovery code rejected", goerrors.CategoryAuth).
	WithTextCode(textCodeRecoveryCodeRejected)

// ErrResetCodeInvalid is returned when a password reset code fails server
// verification.
var ErrResetCodeInvalid = goerrors.New("password reset code rejected", goerrors.CategoryAuth).
	WithTextCode(textCodeResetCodeInvalid)

// IsSessionExpired reports whether err carries the forced-demotion condition.
func IsSessionExpired(err error) bool {
	return hasTextCode(err, textCodeSessionExpired)
}

// IsConnectivity reports whether err is a transport failure with no response.
func IsConnectivity(err error) bool {
	return hasTextCode(err, textCodeConnectivity)
}

// IsInvalidCredentials reports whether err is a locally recoverable rejected
// attempt (wrong password, wrong code).
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, textCodeInvalidCredentials) ||
		hasTextCode(err, textCodeVerificationInvalid) ||
		hasTextCode(err, textCodeTwoFactorInvalid) ||
		hasTextCode(err, textCodeRecoveryCodeRejected) ||
		hasTextCode(err, textCodeResetCodeInvalid)
}

// IsRateLimited reports whether err is a server throttle response.
func IsRateLimited(err error) bool {
	return hasTextCode(err, textCodeRateLimited)
}

// withMeta decorates a shared sentinel with call-specific metadata without
// mutating it. The clone keeps the sentinel in its unwrap chain so errors.Is
// still matches.
func withMeta(sentinel *goerrors.Error, metadata map[string]any) *goerrors.Error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(metadata)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
