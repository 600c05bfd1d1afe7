package authclient

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the minimal user record the client keeps alongside the token.
type Identity struct {
	ID               string `json:"id,omitempty"`
	Username         string `json:"username,omitempty"`
	Email            string `json:"email,omitempty"`
	Role             string `json:"role,omitempty"`
	Verified         bool   `json:"verified,omitempty"`
	TwoFactorEnabled bool   `json:"two_factor_enabled,omitempty"`
}

// SessionAPI is the surface the rest of an application programs against.
type SessionAPI interface {
	Status() Session
	Login(ctx context.Context, identifier, password string) (Session, error)
	SubmitVerification(ctx context.Context, code string) (Session, error)
	ResendVerification(ctx context.Context) error
	Submit2FA(ctx context.Context, code string) (Session, error)
	Submit2FARecovery(ctx context.Context, recoveryCode string) (Session, error)
	Logout(ctx context.Context) error
	Subscribe(listener StatusListener) (unsubscribe func())
}

// StatusListener is notified after the session status changes. Listeners run
// outside the machine's lock; reading Status from inside one is safe.
type StatusListener func(from, to SessionStatus)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHCLIENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHCLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHCLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHCLIENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
