package config

import "time"

type Mediator struct {
	AuthURL         string        `env:"AUTH_URL,required"`
	ProveedoresURL  string        `env:"PROVEEDORES_URL,required"`
	VendedoresURL   string        `env:"VENDEDORES_URL,required"`
	ProductosURL    string        `env:"PRODUCTOS_URL,required"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
}
