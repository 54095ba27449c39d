package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is read once at startup and immutable thereafter.
type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=10h"`

	Mongo    MongoConfig
	Backends BackendConfig
	Forward  ForwardConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_gateway"`
}

// BackendConfig holds the static base URLs of the downstream services, one
// per logical name.
type BackendConfig struct {
	GenomicaURL string `env:"GENOMICA_URL, default=http://localhost:8081"`
	ClinicaURL  string `env:"CLINICA_URL,  default=http://localhost:8082"`
}

// Map returns the logical-name → base-URL registry input.
func (b BackendConfig) Map() map[string]string {
	return map[string]string{
		"genomica": b.GenomicaURL,
		"clinica":  b.ClinicaURL,
	}
}

// ForwardConfig bounds every outbound call.
type ForwardConfig struct {
	ConnectTimeout time.Duration `env:"FORWARD_CONNECT_TIMEOUT, default=10s"`
	ReadTimeout    time.Duration `env:"FORWARD_READ_TIMEOUT,    default=10s"`
	MaxInFlight    int64         `env:"FORWARD_MAX_IN_FLIGHT,   default=64"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
