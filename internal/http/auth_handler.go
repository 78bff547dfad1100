package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/auth"
	"github.com/tuanvumaihuynh/medsupply/internal/http/metric"
	"github.com/tuanvumaihuynh/medsupply/internal/http/middleware"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/service"
)

type authHandler struct {
	logger  *slog.Logger
	authSvc service.AuthService
}

type validateResponse struct {
	Valid bool       `json:"valid"`
	User  model.User `json:"user"`
}

// AuthRoutes serves signup, login and token validation. Signup and login go
// through limiter, keyed by client IP.
func AuthRoutes(logger *slog.Logger, authSvc service.AuthService, limiter *middleware.RateLimiter, m *metric.Metrics) RouteFunc {
	h := &authHandler{
		logger:  logger.With(slog.String("handler", "auth")),
		authSvc: authSvc,
	}

	return func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/health", entityHealth(h.logger, "auth"))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit("auth", limiter, m, h.logger))
				r.Post("/signup", handle(h.logger, h.signup))
				r.Post("/login", handle(h.logger, h.login))
			})
			r.Post("/validate", handle(h.logger, h.validate))
			r.Get("/profile", handle(h.logger, h.profile))
		})
	}
}

func (h *authHandler) signup(w http.ResponseWriter, r *http.Request) error {
	var params service.SignupParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	res, err := h.authSvc.Signup(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, res)
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) error {
	var params service.LoginParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	res, err := h.authSvc.Login(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, res)
}

func (h *authHandler) validate(w http.ResponseWriter, r *http.Request) error {
	user, err := h.bearerUser(r)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, validateResponse{Valid: true, User: user})
}

func (h *authHandler) profile(w http.ResponseWriter, r *http.Request) error {
	user, err := h.bearerUser(r)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, user)
}

func (h *authHandler) bearerUser(r *http.Request) (model.User, error) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return model.User{}, apperr.TokenFaltante
	}
	return h.authSvc.Validate(r.Context(), token)
}
