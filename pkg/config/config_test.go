package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		ServiceName: "gamecrypt",
		Gateway:     GatewayConfig{Backend: BackendMemory, ConflictRetries: 3},
		Signature:   SignatureConfig{DurationDays: 30},
		UI:          UIConfig{DecryptDelay: time.Second},
	}
}

func TestConfigValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any service name with memory backend validates", prop.ForAll(
		func(serviceName string) bool {
			cfg := validConfig()
			cfg.ServiceName = serviceName
			return cfg.Validate() == nil
		},
		gen.Identifier(),
	))

	properties.Property("unknown backends are rejected", prop.ForAll(
		func(backend string) bool {
			cfg := validConfig()
			cfg.Gateway.Backend = "x-" + backend
			return cfg.Validate() != nil
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBackendRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*GatewayConfig)
		wantErr bool
	}{
		{"file without dir", func(g *GatewayConfig) { g.Backend = BackendFile }, true},
		{"file with dir", func(g *GatewayConfig) { g.Backend = BackendFile; g.File.Dir = "data" }, false},
		{"redis without addr", func(g *GatewayConfig) { g.Backend = BackendRedis }, true},
		{"postgres without uri", func(g *GatewayConfig) { g.Backend = BackendPostgres; g.Postgres.Table = "t" }, true},
		{"postgres complete", func(g *GatewayConfig) {
			g.Backend = BackendPostgres
			g.Postgres.URI = "postgres://localhost/db"
			g.Postgres.Table = "t"
		}, false},
		{"mongodb without collection", func(g *GatewayConfig) {
			g.Backend = BackendMongo
			g.MongoDB.URI = "mongodb://localhost"
			g.MongoDB.Database = "db"
		}, true},
		{"s3 without bucket", func(g *GatewayConfig) { g.Backend = BackendS3 }, true},
		{"ethereum without contract", func(g *GatewayConfig) {
			g.Backend = BackendEthereum
			g.Ethereum.RPCURL = "http://localhost:8545"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Gateway)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gamecrypt", cfg.ServiceName)
	assert.Equal(t, BackendMemory, cfg.Gateway.Backend)
	assert.Equal(t, 2*time.Second, cfg.UI.SuccessBanner)
	assert.Equal(t, 3*time.Second, cfg.UI.ErrorBanner)
	assert.Equal(t, 1500*time.Millisecond, cfg.UI.DecryptDelay)
	assert.Equal(t, 30, cfg.Signature.DurationDays)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("GATEWAY_BACKEND", "redis")
	os.Setenv("REDIS_ADDR", "cache:6379")
	os.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	os.Setenv("UI_DECRYPT_DELAY", "10ms")
	defer os.Clearenv()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Gateway.Backend)
	assert.Equal(t, "cache:6379", cfg.Gateway.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Millisecond, cfg.UI.DecryptDelay)

	os.Setenv("GATEWAY_BACKEND", "postgres")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "gamecrypt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service_name: arena
gateway:
  backend: file
  file:
    dir: /tmp/arena
ui:
  decrypt_delay: 0s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.ServiceName)
	assert.Equal(t, BackendFile, cfg.Gateway.Backend)
	assert.Equal(t, "/tmp/arena", cfg.Gateway.File.Dir)
	assert.Equal(t, time.Duration(0), cfg.UI.DecryptDelay)
}

func TestPersistentBackends(t *testing.T) {
	for _, backend := range []string{BackendFile, BackendRedis, BackendPostgres, BackendMongo, BackendS3, BackendEthereum} {
		g := GatewayConfig{Backend: backend}
		assert.True(t, g.Persistent(), backend)
	}
	g := GatewayConfig{Backend: BackendMemory}
	assert.False(t, g.Persistent())
}
