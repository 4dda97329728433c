package config

import (
	"os"
	"time"
)

// Server captures process level configuration so main stays lean.
type Server struct {
	Addr            string
	DBPath          string
	HookCmd         string
	EsploraURL      string
	RedisURL        string
	VerifierTimeout time.Duration
}

// ChainCacheTTL bounds retention of cached issuance lookups.
var ChainCacheTTL = 24 * time.Hour

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("REGISTRY_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	dbPath := os.Getenv("REGISTRY_DB_PATH")
	if dbPath == "" {
		dbPath = "./db"
	}

	timeout := 10 * time.Second
	if raw := os.Getenv("REGISTRY_VERIFIER_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		}
	}

	return Server{
		Addr:            addr,
		DBPath:          dbPath,
		HookCmd:         os.Getenv("REGISTRY_HOOK_CMD"),
		EsploraURL:      os.Getenv("REGISTRY_ESPLORA_URL"),
		RedisURL:        os.Getenv("REGISTRY_REDIS_URL"),
		VerifierTimeout: timeout,
	}
}
