// Package config reads process configuration from the environment, in the
// style of cmd/engine/main.go's requireEnv/getEnvOrDefault pair — no viper,
// no cobra, just os.Getenv with a documented .env-file workflow.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds everything cmd/svcd needs to wire a Validator, its stores,
// and the optional HTTP/websocket shell.
type Config struct {
	DatabaseURL string // SYSCOIN_DB_URL; empty means run with the in-memory store only

	ChainRPCHost string
	ChainRPCUser string
	ChainRPCPass string

	Port string

	ActivationHeight uint32 // SYSCOIN_SERVICES_ACTIVATION_HEIGHT
	ExpirationDepth  uint32 // SYSCOIN_EXPIRATION_DEPTH, defaults to mainnet depth
	MinRelayFeePerKB int64  // SYSCOIN_MIN_RELAY_FEE_SAT, satoshis/KB
}

// Load reads Config from the environment. Values with no sane non-secret
// default (the RPC credentials) are read with requireEnv and abort the
// process if missing; the database URL is optional, and everything else
// falls back to a default.
func Load() Config {
	return Config{
		DatabaseURL: os.Getenv("SYSCOIN_DB_URL"), // optional: absent -> in-memory store

		ChainRPCHost: getEnvOrDefault("SYSCOIN_RPC_HOST", "localhost:8369"),
		ChainRPCUser: requireEnv("SYSCOIN_RPC_USER"),
		ChainRPCPass: requireEnv("SYSCOIN_RPC_PASS"),

		Port: getEnvOrDefault("PORT", "8485"),

		ActivationHeight: uint32(getEnvIntOrDefault("SYSCOIN_SERVICES_ACTIVATION_HEIGHT", 0)),
		ExpirationDepth:  uint32(getEnvIntOrDefault("SYSCOIN_EXPIRATION_DEPTH", 525600)),
		MinRelayFeePerKB: int64(getEnvIntOrDefault("SYSCOIN_MIN_RELAY_FEE_SAT", 1000)),
	}
}

func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[config] %s=%q is not an integer, using default %d", key, val, fallback)
		return fallback
	}
	return n
}
