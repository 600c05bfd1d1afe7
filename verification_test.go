package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-authclient"
	"github.com/goliatone/go-authclient/credstore"
)

func pendingVerificationClient(t *testing.T, mux *http.ServeMux) (*authclient.Client, *credstore.Memory) {
	t.Helper()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"requires_verification": true})
	})

	client, store := newTestClient(t, mux)
	session, err := client.Login(context.Background(), "pepe@example.com", "secretword")
	require.NoError(t, err)
	require.Equal(t, authclient.StatusPendingVerification, session.Status)

	return client, store
}

func TestSubmitVerificationPromotesToAuthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "pepe@example.com", payload.Email)
		assert.Equal(t, "123456", payload.Code)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "tok-verified",
			"user":  map[string]any{"id": 42, "email": "pepe@example.com", "email_verified": true},
		})
	})

	client, store := pendingVerificationClient(t, mux)

	session, err := client.SubmitVerification(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, authclient.StatusAuthenticated, session.Status)
	assert.True(t, session.Identity.Verified)

	record, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-verified", record.Token)
}

func TestUsernameLoginChallengeCarriesAccountEmail(t *testing.T) {
	// Logging in with a username still sends verification codes to the email
	// the server reports for the account.
	var got struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"requires_verification": true,
			"user":                  map[string]any{"id": 42, "email": "pepe@example.com"},
		})
	})
	mux.HandleFunc("/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{"token": "tok-verified"})
	})

	client, _ := newTestClient(t, mux)

	session, err := client.Login(context.Background(), "pepe_rone", "secretword")
	require.NoError(t, err)
	require.Equal(t, authclient.StatusPendingVerification, session.Status)

	_, err = client.SubmitVerification(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "pepe@example.com", got.Email)
	assert.Equal(t, "123456", got.Code)
}

func TestSubmitVerificationWrongCodeKeepsChallengeAlive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]any{"message": "invalid code"})
	})

	client, store := pendingVerificationClient(t, mux)

	_, err := client.SubmitVerification(context.Background(), "000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrVerificationCodeInvalid)
	assert.True(t, authclient.IsInvalidCredentials(err))

	// Wrong code is retryable: the session stays parked on the challenge.
	assert.Equal(t, authclient.StatusPendingVerification, client.Status().Status)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestSubmitVerificationRejectsMalformedCodeLocally(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		t.Error("malformed codes must not reach the server")
	})

	client, _ := pendingVerificationClient(t, mux)

	_, err := client.SubmitVerification(context.Background(), "12ab56")
	require.Error(t, err)
	assert.Equal(t, authclient.StatusPendingVerification, client.Status().Status)
}

func TestSubmitVerificationRequiresPendingSession(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	_, err := client.SubmitVerification(context.Background(), "123456")
	require.Error(t, err)
	assert.ErrorIs(t, err, authclient.ErrInvalidTransition)
}

func TestResendVerificationDoesNotChangeState(t *testing.T) {
	var resent int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/resend-verification", func(w http.ResponseWriter, r *http.Request) {
		resent++
		writeJSON(t, w, http.StatusOK, map[string]any{"message": "sent"})
	})

	client, _ := pendingVerificationClient(t, mux)

	require.NoError(t, client.ResendVerification(context.Background()))
	assert.Equal(t, 1, resent)
	assert.Equal(t, authclient.StatusPendingVerification, client.Status().Status)
}

func TestResendVerificationSurfacesThrottleVerbatim(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/resend-verification", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusTooManyRequests, map[string]any{"message": "try again later"})
	})

	client, _ := pendingVerificationClient(t, mux)

	err := client.ResendVerification(context.Background())
	require.Error(t, err)
	assert.True(t, authclient.IsRateLimited(err))
	assert.Equal(t, authclient.StatusPendingVerification, client.Status().Status)
}
