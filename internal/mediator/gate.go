package mediator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/auth"
	"github.com/tuanvumaihuynh/medsupply/internal/http/apierr"
	"github.com/tuanvumaihuynh/medsupply/pkg/correlationid"
)

// TokenVerifier checks the signature and expiry of an access token locally.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

type userIDKey struct{}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// validateResponse is the body of POST /auth/validate on the auth service.
type validateResponse struct {
	Valid bool `json:"valid"`
	User  struct {
		ID       string `json:"id"`
		IsActive bool   `json:"is_active"`
	} `json:"user"`
}

// Gate authenticates callers before their request is forwarded.
type Gate struct {
	tokens      TokenVerifier
	validateURL string
	client      *http.Client
	logger      *slog.Logger
}

// NewGate builds a gate confirming tokens against the auth service at authURL.
func NewGate(tokens TokenVerifier, authURL string, timeout time.Duration, logger *slog.Logger) *Gate {
	return &Gate{
		tokens:      tokens,
		validateURL: strings.TrimRight(authURL, "/") + "/auth/validate",
		client:      newClient(timeout),
		logger:      logger.With(slog.String("component", "gate")),
	}
}

// RequireBearer lets a request through only when it carries a bearer token
// that is signed with the shared secret, unexpired, and belongs to an active
// user according to the auth service. The user id is stored in the request
// context for the forwarder.
func (g *Gate) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			apierr.Write(g.logger, w, r, apperr.TokenFaltante)
			return
		}

		if _, err := g.tokens.Verify(token); err != nil {
			apierr.Write(g.logger, w, r, apperr.TokenInvalido.WrapParent(err))
			return
		}

		userID, err := g.confirm(r.Context(), token)
		if err != nil {
			apierr.Write(g.logger, w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// confirm asks the auth service whether the token's user exists and is active.
func (g *Gate) confirm(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.validateURL, nil)
	if err != nil {
		return "", fmt.Errorf("new validate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if id, ok := correlationid.FromContext(ctx); ok {
		req.Header.Set(correlationid.Header, id)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return "", upstreamErr(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= http.StatusInternalServerError:
		return "", apperr.UpstreamUnavailable.WithMsg(fmt.Sprintf("el servicio de autenticación respondió %d", res.StatusCode))
	case res.StatusCode != http.StatusOK:
		return "", apperr.TokenInvalido
	}

	var body validateResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", apperr.UpstreamUnavailable.WrapParent(fmt.Errorf("decode validate response: %w", err))
	}
	if !body.Valid || !body.User.IsActive || body.User.ID == "" {
		return "", apperr.TokenInvalido
	}

	return body.User.ID, nil
}
