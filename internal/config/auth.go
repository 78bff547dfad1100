package config

import "time"

type Auth struct {
	JWTSecretKey string        `env:"JWT_SECRET_KEY,required"`
	JWTIssuer    string        `env:"JWT_ISSUER" envDefault:"medsupply-auth"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"1h"`

	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	RateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
}
