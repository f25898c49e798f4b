// Package config loads validator-node configuration the way the teacher's
// pkg/config does: a struct-of-fields-with-defaults populated from
// environment variables, layered under a YAML file when one is given.
// Grounded on pkg/config/config.go's getEnv*/defaults shape for the flat
// fields, and pkg/config/anchor_config.go's YAML-struct-with-tags shape
// (plus its ${VAR} substitution helper) for JurisdictionConfig, the one
// nested sub-config this spec actually needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// JurisdictionConfig is the on-chain adapter's connection and batching
// policy, mirroring the teacher's AnchorConfig.Anchor/Network nesting but
// narrowed to the fields pkg/jurisdiction and pkg/jbatch actually take:
// a Depository/EntityProvider pair, the chain to dial, and the batch
// broadcast triggers (spec section 4.5, "current batch size >= 50
// operations or 5s ... since last broadcast").
type JurisdictionConfig struct {
	Name                  string `yaml:"name"`
	RPCURL                string `yaml:"rpc_url"`
	ChainID               uint64 `yaml:"chain_id"`
	DepositoryAddress     string `yaml:"depository_address"`
	EntityProviderAddress string `yaml:"entity_provider_address"`
	BatchMaxOps           int    `yaml:"batch_max_ops"`
	BatchMaxIdleMillis    uint64 `yaml:"batch_max_idle_millis"`
}

// Config holds everything cmd/validatornode needs to wire an Env: which
// entities/jurisdictions to run, where to listen, and which storage
// backend to persist snapshots to.
type Config struct {
	// RuntimeSeed is the developer-mode brainvault seed spec section 6
	// names (env var RUNTIME_SEED): cryptokeys.DeriveKey(seed, signerID)
	// derives every local validator key from it deterministically. Its
	// yaml tag is "-", so it is never read from or written to YAML.
	RuntimeSeed string `yaml:"-"`

	DataDir string `yaml:"data_dir"`

	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	RelayAddr   string `yaml:"relay_addr"`

	LogLevel string `yaml:"log_level"`

	// StorageBackend selects a pkg/storage KV: "bolt" (default),
	// "postgres", or "firestore".
	StorageBackend  string `yaml:"storage_backend"`
	BoltPath        string `yaml:"bolt_path"`
	PostgresDSN     string `yaml:"postgres_dsn"`
	FirestoreProjectID string `yaml:"firestore_project_id"`

	TickIntervalMillis uint64 `yaml:"tick_interval_millis"`

	Jurisdictions []JurisdictionConfig `yaml:"jurisdictions"`

	// LocalEntities names the solo-validator entities this node derives
	// from RuntimeSeed and bootstraps at startup (spec section 4.4's
	// single-member Group case). Entities created later via the `register`
	// command persist into snapshot state directly; nothing adds them to
	// this list.
	LocalEntities []string `yaml:"local_entities"`
}

// Default returns a Config with the same safe-for-local-development
// defaults the teacher's Load() hardcodes for its own ListenAddr/LogLevel
// fields, before any YAML file or environment override is applied.
func Default() *Config {
	return &Config{
		DataDir:            "./data",
		ListenAddr:         "0.0.0.0:8080",
		MetricsAddr:        "0.0.0.0:9090",
		RelayAddr:          "0.0.0.0:8090",
		LogLevel:           "info",
		StorageBackend:     "bolt",
		BoltPath:           "./data/snapshots.db",
		TickIntervalMillis: 100,
	}
}

// Load builds a Config the way the teacher's anchor config loader does:
// start from defaults, overlay a YAML file if path is non-empty (with
// ${VAR} substitution against the process environment), then overlay the
// flat environment variables every validator-node invocation can set
// directly, which always win over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		expanded := substituteEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.RuntimeSeed = getEnv("RUNTIME_SEED", cfg.RuntimeSeed)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)
	cfg.RelayAddr = getEnv("RELAY_ADDR", cfg.RelayAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.StorageBackend = getEnv("STORAGE_BACKEND", cfg.StorageBackend)
	cfg.BoltPath = getEnv("BOLT_PATH", cfg.BoltPath)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.FirestoreProjectID = getEnv("FIRESTORE_PROJECT_ID", cfg.FirestoreProjectID)
	cfg.TickIntervalMillis = getEnvUint64("TICK_INTERVAL_MILLIS", cfg.TickIntervalMillis)
	if v := os.Getenv("LOCAL_ENTITIES"); v != "" {
		cfg.LocalEntities = strings.Split(v, ",")
	}

	return cfg, nil
}

// Validate checks the minimum a validator node needs before it can start
// ticking: a seed to derive keys from, and a storage backend that knows
// how to open itself.
func (c *Config) Validate() error {
	var errs []string

	if c.RuntimeSeed == "" {
		errs = append(errs, "RUNTIME_SEED is required but not set")
	}

	switch c.StorageBackend {
	case "bolt":
		if c.BoltPath == "" {
			errs = append(errs, "bolt_path is required when storage_backend is \"bolt\"")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, "postgres_dsn is required when storage_backend is \"postgres\"")
		}
	case "firestore":
		if c.FirestoreProjectID == "" {
			errs = append(errs, "firestore_project_id is required when storage_backend is \"firestore\"")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage_backend %q is not one of bolt, postgres, firestore", c.StorageBackend))
	}

	for i, j := range c.Jurisdictions {
		if j.Name == "" {
			errs = append(errs, fmt.Sprintf("jurisdictions[%d].name is required", i))
		}
		if j.RPCURL == "" {
			errs = append(errs, fmt.Sprintf("jurisdictions[%d].rpc_url is required", i))
		}
		if j.DepositoryAddress == "" {
			errs = append(errs, fmt.Sprintf("jurisdictions[%d].depository_address is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
