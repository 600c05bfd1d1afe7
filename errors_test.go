package authclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-authclient"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expired   bool
		offline   bool
		badCreds  bool
		throttled bool
	}{
		{"session expired", authclient.ErrSessionExpired, true, false, false, false},
		{"connectivity", authclient.ErrConnectivity, false, true, false, false},
		{"invalid credentials", authclient.ErrInvalidCredentials, false, false, true, false},
		{"verification code", authclient.ErrVerificationCodeInvalid, false, false, true, false},
		{"two factor code", authclient.ErrTwoFactorCodeInvalid, false, false, true, false},
		{"recovery code", authclient.ErrRecoveryCodeRejected, false, false, true, false},
		{"reset code", authclient.ErrResetCodeInvalid, false, false, true, false},
		{"rate limited", authclient.ErrRateLimited, false, false, false, true},
		{"plain error", errors.New("boom"), false, false, false, false},
		{"nil", nil, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, authclient.IsSessionExpired(tt.err))
			assert.Equal(t, tt.offline, authclient.IsConnectivity(tt.err))
			assert.Equal(t, tt.badCreds, authclient.IsInvalidCredentials(tt.err))
			assert.Equal(t, tt.throttled, authclient.IsRateLimited(tt.err))
		})
	}
}

func TestExpiredAndOfflineAreDisjoint(t *testing.T) {
	assert.False(t, authclient.IsConnectivity(authclient.ErrSessionExpired))
	assert.False(t, authclient.IsSessionExpired(authclient.ErrConnectivity))
}

func TestConnectivityIsExternalCategory(t *testing.T) {
	assert.Equal(t, goerrors.CategoryExternal, authclient.ErrConnectivity.Category)
}

func TestDecoratedErrorsLeaveSentinelsClean(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"token": "tok-1"})
	})
	mux.HandleFunc("/wallet/balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "token revoked"})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.Login(context.Background(), "pepe@example.com", "secretword")
	require.NoError(t, err)

	err = client.Do(context.Background(), http.MethodGet, "/wallet/balance", nil, nil)
	require.Error(t, err)

	// The returned error matches the sentinel and carries its own context.
	assert.ErrorIs(t, err, authclient.ErrSessionExpired)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "/wallet/balance", richErr.Metadata["path"])

	// The shared sentinel itself stays untouched.
	assert.Empty(t, authclient.ErrSessionExpired.Metadata)
}

func TestConcurrentErrorsCarryTheirOwnMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"token": "tok-1"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "token revoked"})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.Login(context.Background(), "pepe@example.com", "secretword")
	require.NoError(t, err)

	const calls = 16
	errs := make([]error, calls)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("/resource/%d", i)
			errs[i] = client.Do(context.Background(), http.MethodGet, path, nil, nil)
		}(i)
	}
	wg.Wait()

	// Each error holds the path of its own request, never a sibling's.
	for i, err := range errs {
		require.Error(t, err)
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, fmt.Sprintf("/resource/%d", i), richErr.Metadata["path"])
	}

	assert.Empty(t, authclient.ErrSessionExpired.Metadata)
}
