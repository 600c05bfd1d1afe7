package authclient_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-authclient"
	"github.com/goliatone/go-authclient/credstore"
)

func pending2FAClient(t *testing.T, mux *http.ServeMux) (*authclient.Client, *credstore.Memory) {
	t.Helper()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"requires_2fa": true,
			"user":         map[string]any{"id": 42, "email": "pepe@example.com"},
		})
	})

	client, store := newTestClient(t, mux)
	session, err := client.Login(context.Background(), "pepe@example.com", "secretword")
	require.NoError(t, err)
	require.Equal(t, authclient.StatusPending2FA, session.Status)

	return client, store
}

func TestSubmit2FAPromotesToAuthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/2fa/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "tok-2fa",
			"user":  map[string]any{"id": 42, "email": "pepe@example.com"},
		})
	})

	client, store := pending2FAClient(t, mux)

	session, err := client.Submit2FA(context.Background(), "654321")
	require.NoError(t, err)
	assert.Equal(t, authclient.StatusAuthenticated, session.Status)
	assert.True(t, session.Identity.TwoFactorEnabled)

	record, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2fa", record.Token)
	assert.Equal(t, "42", record.IdentityID)
}

func TestSubmit2FAWrongCodeKeepsChallengeAlive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/2fa/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "invalid code"})
	})

	client, store := pending2FAClient(t, mux)

	_, err := client.Submit2FA(context.Background(), "000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrTwoFactorCodeInvalid)
	assert.Equal(t, authclient.StatusPending2FA, client.Status().Status)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestSubmit2FARecoveryConsumedCodeIsDistinctError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/2fa/validate-recovery", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "code already used"})
	})

	client, _ := pending2FAClient(t, mux)

	_, err := client.Submit2FARecovery(context.Background(), "abcd-1234-efgh")
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrRecoveryCodeRejected)
	assert.NotErrorIs(t, err, authclient.ErrTwoFactorCodeInvalid)
	assert.Equal(t, authclient.StatusPending2FA, client.Status().Status)
}

func TestSubmit2FARecoveryPromotesToAuthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/2fa/validate-recovery", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"token": "tok-recovery"})
	})

	client, _ := pending2FAClient(t, mux)

	session, err := client.Submit2FARecovery(context.Background(), "abcd-1234-efgh")
	require.NoError(t, err)
	assert.Equal(t, authclient.StatusAuthenticated, session.Status)
	// The challenge identity carries over when the response omits the user.
	assert.Equal(t, "42", session.Identity.ID)
}

func TestSubmit2FARequiresPendingChallenge(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	_, err := client.Submit2FA(context.Background(), "654321")
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrInvalidTransition)
}

func TestAbandoning2FAChallengeReturnsToAnonymous(t *testing.T) {
	client, _ := pending2FAClient(t, http.NewServeMux())

	require.NoError(t, client.Logout(context.Background()))
	assert.Equal(t, authclient.StatusAnonymous, client.Status().Status)
}

func TestTwoFactorEnrollmentRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"token": "tok-1", "user": map[string]any{"id": 42}})
	})
	mux.HandleFunc("/auth/2fa/enable", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"secret":         "JBSWY3DPEHPK3PXP",
			"qr_code_url":    "otpauth://totp/example",
			"recovery_codes": []string{"aaaa-bbbb", "cccc-dddd"},
		})
	})
	mux.HandleFunc("/auth/2fa/verify-setup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"message": "enabled"})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.Login(context.Background(), "pepe@example.com", "secretword")
	require.NoError(t, err)

	setup, err := client.Enable2FA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)
	assert.Len(t, setup.RecoveryCodes, 2)

	require.NoError(t, client.Confirm2FASetup(context.Background(), "654321"))
}

func TestTwoFactorEnrollmentRequiresAuthenticatedSession(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	_, err := client.Enable2FA(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrInvalidTransition)
}
