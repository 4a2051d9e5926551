package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"blinks/cluster"
)

// Load reads the TOML file at path on top of Defaults, loads .env if present
// and applies environment overrides. A missing file is not an error; the
// defaults plus environment are enough to run against the public clusters.
// The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// decodeFile merges [clusters.<name>] tables key by key into the defaults so a
// file only needs to carry what differs.
func decodeFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}

	var raw struct {
		Clusters map[string]toml.Primitive `toml:"clusters"`
	}
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return err
	}
	for name, prim := range raw.Clusters {
		name = strings.ToLower(name)
		s := cfg.Clusters[name]
		if err := md.PrimitiveDecode(prim, &s); err != nil {
			return fmt.Errorf("clusters.%s: %w", name, err)
		}
		cfg.Clusters[name] = s
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.Port, "BLINKS_SERVER_PORT")
	setStr(&cfg.Server.PublicBaseURL, "BLINKS_PUBLIC_BASE_URL")
	setStr(&cfg.Server.ContinuationSecret, "BLINKS_CONTINUATION_SECRET")
	setStringSlice(&cfg.Server.CORSOrigins, "BLINKS_CORS_ORIGINS")
	if v := os.Getenv("IS_PROD"); v != "" {
		cfg.Server.IsProd = strings.EqualFold(v, "prod") || strings.EqualFold(v, "true")
	}

	// ── Log ──
	setStr(&cfg.Log.Level, "BLINKS_LOG_LEVEL")
	setStr(&cfg.Log.Format, "BLINKS_LOG_FORMAT")

	// ── Storage ──
	setStr(&cfg.Database.DSN, "DATABASE_URL")
	setStr(&cfg.Database.DSN, "BLINKS_DATABASE_DSN")
	setStr(&cfg.Redis.Addr, "BLINKS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BLINKS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BLINKS_REDIS_DB")

	// ── Backend ──
	setInt(&cfg.Backend.MaxAttempts, "BLINKS_BACKEND_MAX_ATTEMPTS")
	setStr(&cfg.Backend.AIURL, "BLINKS_AI_URL")

	// ── Clusters ──
	overrideCluster(cfg, cluster.Devnet, "PARTNER_API_KEY_DEVNET", "X_DARES_API_KEY_DEVNET", "")
	overrideCluster(cfg, cluster.Staging, "PARTNER_API_KEY_DEVNET", "X_DARES_API_KEY_DEVNET", "")
	overrideCluster(cfg, cluster.Mainnet, "PARTNER_API_KEY_MAINNET", "X_DARES_API_KEY_MAINNET", "RPC_URL")
	for _, name := range cluster.Names {
		suffix := strings.ToUpper(string(name))
		overrideCluster(cfg, name,
			"BLINKS_PARTNER_API_KEY_"+suffix,
			"BLINKS_XDARE_API_KEY_"+suffix,
			"BLINKS_RPC_URL_"+suffix)
	}
}

func overrideCluster(cfg *Config, name cluster.Name, partnerKey, xdareKey, rpcKey string) {
	s, ok := cfg.Clusters[string(name)]
	if !ok {
		return
	}
	setStr(&s.PartnerAPIKey, partnerKey)
	setStr(&s.XDareAPIKey, xdareKey)
	if rpcKey != "" {
		setStr(&s.RPCURL, rpcKey)
	}
	cfg.Clusters[string(name)] = s
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		*dst = cleaned
	}
}
