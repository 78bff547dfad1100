// Package mediator is the backend-for-frontend placed in front of the entity
// services. Mutations reach a downstream service only after the caller's
// bearer token has been verified.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	apphttp "github.com/tuanvumaihuynh/medsupply/internal/http"
	"github.com/tuanvumaihuynh/medsupply/internal/http/apierr"
	"github.com/tuanvumaihuynh/medsupply/pkg/correlationid"
)

const maxForwardBodyBytes = 1 << 20

// Forwarder relays a request to a downstream service and passes its status
// and body back unchanged. It never retries.
type Forwarder struct {
	client *http.Client
	logger *slog.Logger
}

func NewForwarder(timeout time.Duration, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		client: newClient(timeout),
		logger: logger.With(slog.String("component", "forwarder")),
	}
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// To returns a handler forwarding every request to target, a full URL.
func (f *Forwarder) To(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f.forward(w, r, target); err != nil {
			apierr.Write(f.logger, w, r, err)
		}
	}
}

func (f *Forwarder) forward(w http.ResponseWriter, r *http.Request, target string) error {
	body := http.MaxBytesReader(w, r.Body, maxForwardBodyBytes)
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return fmt.Errorf("new downstream request: %w", err)
	}
	copyRequestHeaders(req, r)
	if userID, ok := userIDFromContext(r.Context()); ok {
		req.Header.Set(apphttp.HeaderUserID, userID)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return upstreamErr(err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		f.logger.WarnContext(r.Context(), "copy downstream response",
			slog.String("target", target),
			slog.Any("error", err),
		)
	}

	return nil
}

func copyRequestHeaders(dst *http.Request, src *http.Request) {
	for _, h := range []string{"Content-Type", "Accept"} {
		if v := src.Header.Get(h); v != "" {
			dst.Header.Set(h, v)
		}
	}
	if id, ok := correlationid.FromContext(src.Context()); ok {
		dst.Header.Set(correlationid.Header, id)
	}
}

// upstreamErr maps a transport failure to 504 on deadline and 502 otherwise.
func upstreamErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperr.UpstreamTimeout.WrapParent(err)
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.InvalidBodyErr.WithMsg("el cuerpo de la solicitud es demasiado grande").WrapParent(err)
	}

	return apperr.UpstreamUnavailable.WrapParent(err)
}
