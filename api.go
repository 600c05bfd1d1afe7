package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// errUnauthorized is the raw wire condition for a 401. The session layer maps
// it to ErrSessionExpired on authenticated calls and to ErrInvalidCredentials
// on login-shaped calls, where a 401 just means a rejected attempt.
var errUnauthorized = goerrors.New("unauthorized", goerrors.CategoryAuth).
	WithTextCode("UNAUTHORIZED").
	WithCode(goerrors.CodeUnauthorized)

func isUnauthorized(err error) bool {
	return hasTextCode(err, "UNAUTHORIZED")
}

const maxResponseBody = 1 << 20

// apiEnvelope is the common shape of the backend's JSON responses: a message,
// optional field errors, and the challenge flags the login endpoint can set.
type apiEnvelope struct {
	Message              string              `json:"message"`
	Errors               map[string][]string `json:"errors"`
	RequiresVerification bool                `json:"requires_verification"`
	Requires2FA          bool                `json:"requires_2fa"`
}

// apiClient is the JSON request/response layer. Credential attachment and
// 401 detection live in the Authorizer transport, not here.
type apiClient struct {
	baseURL   string
	http      *http.Client
	logger    Logger
	userAgent string
	debug     bool
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	return c.doRequest(ctx, method, path, "", in, out)
}

// doWithBearer sends the request with an explicit credential instead of
// whatever the token source currently yields. Used by logout, which erases
// the session locally before revoking the token server-side.
func (c *apiClient) doWithBearer(ctx context.Context, method, path, bearer string, in, out any) error {
	return c.doRequest(ctx, method, path, bearer, in, out)
}

func (c *apiClient) doRequest(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	if c.debug {
		c.logger.Debug("%s %s payload=%s", method, path, print.MaybePrettyJSON(in))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "request cancelled")
		}
		return withMeta(ErrConnectivity, map[string]any{
			"method": method,
			"path":   path,
			"cause":  err.Error(),
		})
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return withMeta(ErrConnectivity, map[string]any{
			"method": method,
			"path":   path,
			"cause":  err.Error(),
		})
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(payload) > 0 {
			if err := json.Unmarshal(payload, out); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response payload")
			}
		}
		return nil
	}

	return c.decodeError(resp.StatusCode, payload, method, path)
}

func (c *apiClient) decodeError(status int, payload []byte, method, path string) error {
	envelope := apiEnvelope{}
	// A non-JSON error body is fine, the status code still classifies it.
	_ = json.Unmarshal(payload, &envelope)

	message := strings.TrimSpace(envelope.Message)
	meta := map[string]any{
		"status": status,
		"method": method,
		"path":   path,
	}
	if message != "" {
		meta["message"] = message
	}

	switch {
	case status == http.StatusUnauthorized:
		return withMeta(errUnauthorized, meta)
	case status == http.StatusForbidden && envelope.RequiresVerification:
		return withMeta(ErrVerificationRequired, meta)
	case status == http.StatusForbidden:
		return goerrors.New(messageOr(message, "forbidden"), goerrors.CategoryAuth).
			WithTextCode("FORBIDDEN").
			WithMetadata(meta)
	case status == http.StatusNotFound:
		return goerrors.New(messageOr(message, "not found"), goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(meta)
	case status == http.StatusTooManyRequests:
		return withMeta(ErrRateLimited, meta)
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		if len(envelope.Errors) > 0 {
			meta["fields"] = envelope.Errors
		}
		return goerrors.New(messageOr(message, "request rejected by server"), goerrors.CategoryValidation).
			WithTextCode(textCodeServerValidation).
			WithMetadata(meta)
	default:
		return goerrors.New(messageOr(message, "server error"), goerrors.CategoryInternal).
			WithTextCode(textCodeServerError).
			WithMetadata(meta)
	}
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
