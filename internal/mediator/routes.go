package mediator

import (
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	apphttp "github.com/tuanvumaihuynh/medsupply/internal/http"
)

// Routes exposes the gated mutations and the auth proxies.
func Routes(cfg config.Mediator, tokens TokenVerifier, logger *slog.Logger) apphttp.RouteFunc {
	gate := NewGate(tokens, cfg.AuthURL, cfg.UpstreamTimeout, logger)
	fwd := NewForwarder(cfg.UpstreamTimeout, logger)

	proveedores := strings.TrimRight(cfg.ProveedoresURL, "/")
	vendedores := strings.TrimRight(cfg.VendedoresURL, "/")
	productos := strings.TrimRight(cfg.ProductosURL, "/")
	authURL := strings.TrimRight(cfg.AuthURL, "/")

	return func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(gate.RequireBearer)
			r.Post("/proveedor", fwd.To(proveedores+"/proveedores"))
			r.Post("/vendedor", fwd.To(vendedores+"/vendedores"))
			r.Post("/producto", fwd.To(productos+"/productos"))
		})

		r.Post("/auth/signup", fwd.To(authURL+"/auth/signup"))
		r.Post("/auth/login", fwd.To(authURL+"/auth/login"))
	}
}
