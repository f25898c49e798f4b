package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoFileAppliesDefaults(t *testing.T) {
	t.Setenv("RUNTIME_SEED", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.StorageBackend)
	assert.Equal(t, "./data/snapshots.db", cfg.BoltPath)
	assert.Equal(t, uint64(100), cfg.TickIntervalMillis)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("RUNTIME_SEED", "dev-seed")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev-seed", cfg.RuntimeSeed)
	assert.Equal(t, "postgres", cfg.StorageBackend)
	assert.Equal(t, "postgres://localhost/test", cfg.PostgresDSN)
}

func TestLoadYAMLFileWithEnvSubstitution(t *testing.T) {
	t.Setenv("RUNTIME_SEED", "file-seed")
	t.Setenv("TEST_RPC_URL", "http://localhost:8545")

	yamlContent := `
storage_backend: bolt
bolt_path: /tmp/custom.db
jurisdictions:
  - name: sepolia
    rpc_url: ${TEST_RPC_URL}
    chain_id: 11155111
    depository_address: "0x0000000000000000000000000000000000000001"
    entity_provider_address: "0x0000000000000000000000000000000000000002"
    batch_max_ops: 25
    batch_max_idle_millis: 2500
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.BoltPath)
	require.Len(t, cfg.Jurisdictions, 1)
	assert.Equal(t, "http://localhost:8545", cfg.Jurisdictions[0].RPCURL)
	assert.Equal(t, uint64(11155111), cfg.Jurisdictions[0].ChainID)
	assert.Equal(t, 25, cfg.Jurisdictions[0].BatchMaxOps)
}

func TestValidateRequiresRuntimeSeed(t *testing.T) {
	cfg := Default()
	cfg.RuntimeSeed = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUNTIME_SEED")
}

func TestValidateRequiresBackendSpecificFields(t *testing.T) {
	cfg := Default()
	cfg.RuntimeSeed = "seed"
	cfg.StorageBackend = "postgres"
	cfg.PostgresDSN = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.RuntimeSeed = "seed"
	cfg.StorageBackend = "redis"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestValidateChecksEachJurisdiction(t *testing.T) {
	cfg := Default()
	cfg.RuntimeSeed = "seed"
	cfg.Jurisdictions = []JurisdictionConfig{{Name: "sepolia"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_url")
}
