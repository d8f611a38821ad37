package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Gateway backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongodb"
	BackendS3       = "s3"
	BackendEthereum = "ethereum"
)

// AppConfig holds the complete configuration for the application
type AppConfig struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	ServiceName   string              `mapstructure:"service_name"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Wallet        WalletConfig        `mapstructure:"wallet"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	UI            UIConfig            `mapstructure:"ui"`
	Signature     SignatureConfig     `mapstructure:"signature"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type ObservabilityConfig struct {
	Addr string `mapstructure:"addr"`
}

type GatewayConfig struct {
	Backend         string         `mapstructure:"backend"`
	ConflictRetries int            `mapstructure:"conflict_retries"`
	File            FileConfig     `mapstructure:"file"`
	Redis           RedisConfig    `mapstructure:"redis"`
	Postgres        PostgresConfig `mapstructure:"postgres"`
	MongoDB         MongoConfig    `mapstructure:"mongodb"`
	S3              S3Config       `mapstructure:"s3"`
	Ethereum        EthereumConfig `mapstructure:"ethereum"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type EthereumConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
	PrivateKey      string `mapstructure:"private_key"`
	ChainID         int64  `mapstructure:"chain_id"`
	WaitMined       bool   `mapstructure:"wait_mined"`
}

// WalletConfig describes the signing wallet. An empty key means "not connected".
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	ChainID    int64  `mapstructure:"chain_id"`
}

// KafkaConfig is optional; without brokers events are dropped.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type UIConfig struct {
	SuccessBanner time.Duration `mapstructure:"success_banner"`
	ErrorBanner   time.Duration `mapstructure:"error_banner"`
	DecryptDelay  time.Duration `mapstructure:"decrypt_delay"`
}

type SignatureConfig struct {
	DurationDays int `mapstructure:"duration_days"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "gamecrypt")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.jwt_secret", "")
	v.SetDefault("http.refresh_interval", 30*time.Second)
	v.SetDefault("observability.addr", ":8081")
	v.SetDefault("gateway.backend", BackendMemory)
	v.SetDefault("gateway.conflict_retries", 5)
	v.SetDefault("gateway.file.dir", "data")
	v.SetDefault("gateway.redis.addr", "localhost:6379")
	v.SetDefault("gateway.redis.password", "")
	v.SetDefault("gateway.redis.db", 0)
	v.SetDefault("gateway.redis.prefix", "gamecrypt:")
	v.SetDefault("gateway.postgres.uri", "")
	v.SetDefault("gateway.postgres.table", "gateway_blobs")
	v.SetDefault("gateway.postgres.max_conns", 10)
	v.SetDefault("gateway.postgres.min_conns", 1)
	v.SetDefault("gateway.mongodb.uri", "")
	v.SetDefault("gateway.mongodb.database", "gamecrypt")
	v.SetDefault("gateway.mongodb.collection", "gateway_blobs")
	v.SetDefault("gateway.mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("gateway.s3.bucket", "")
	v.SetDefault("gateway.s3.region", "auto")
	v.SetDefault("gateway.s3.endpoint", "")
	v.SetDefault("gateway.s3.access_key_id", "")
	v.SetDefault("gateway.s3.secret_access_key", "")
	v.SetDefault("gateway.s3.prefix", "")
	v.SetDefault("gateway.s3.use_path_style", false)
	v.SetDefault("gateway.ethereum.rpc_url", "")
	v.SetDefault("gateway.ethereum.contract_address", "")
	v.SetDefault("gateway.ethereum.private_key", "")
	v.SetDefault("gateway.ethereum.chain_id", 0)
	v.SetDefault("gateway.ethereum.wait_mined", false)
	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.chain_id", 1)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "gamecrypt.players")
	v.SetDefault("kafka.group_id", "gamecrypt-events")
	v.SetDefault("ui.success_banner", 2*time.Second)
	v.SetDefault("ui.error_banner", 3*time.Second)
	v.SetDefault("ui.decrypt_delay", 1500*time.Millisecond)
	v.SetDefault("signature.duration_days", 30)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Short aliases for the settings people set most often
	v.BindEnv("gateway.backend", "GATEWAY_BACKEND")
	v.BindEnv("gateway.redis.addr", "GATEWAY_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("gateway.postgres.uri", "GATEWAY_POSTGRES_URI", "POSTGRES_URI", "DATABASE_URL")
	v.BindEnv("gateway.mongodb.uri", "GATEWAY_MONGODB_URI", "MONGODB_URI")
	v.BindEnv("gateway.s3.bucket", "GATEWAY_S3_BUCKET", "S3_BUCKET")
	v.BindEnv("gateway.ethereum.rpc_url", "GATEWAY_ETHEREUM_RPC_URL", "ETH_RPC_URL")
	v.BindEnv("gateway.ethereum.contract_address", "GATEWAY_ETHEREUM_CONTRACT_ADDRESS", "CONTRACT_ADDRESS")
	v.BindEnv("wallet.private_key", "WALLET_PRIVATE_KEY")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("http.jwt_secret", "HTTP_JWT_SECRET", "JWT_SECRET")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Comma-separated lists arrive from env as a single string
	if brokers := v.GetString("kafka.brokers"); brokers != "" && len(config.Kafka.Brokers) <= 1 {
		config.Kafka.Brokers = splitList(brokers)
	}
	if origins := v.GetString("http.allowed_origins"); origins != "" && len(config.HTTP.AllowedOrigins) <= 1 {
		config.HTTP.AllowedOrigins = splitList(origins)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Gateway.ConflictRetries < 1 {
		return errors.New("gateway.conflict_retries must be at least 1")
	}
	if c.Signature.DurationDays < 1 {
		return errors.New("signature.duration_days must be at least 1")
	}
	if c.UI.DecryptDelay < 0 || c.UI.SuccessBanner < 0 || c.UI.ErrorBanner < 0 {
		return errors.New("ui durations must not be negative")
	}
	return c.Gateway.Validate()
}

// Persistent reports whether data written through the backend outlives the
// process.
func (g *GatewayConfig) Persistent() bool {
	return g.Backend != BackendMemory
}

// Validate checks the settings required by the selected backend.
func (g *GatewayConfig) Validate() error {
	switch g.Backend {
	case BackendMemory:
		return nil
	case BackendFile:
		if g.File.Dir == "" {
			return errors.New("gateway.file.dir is required")
		}
	case BackendRedis:
		if g.Redis.Addr == "" {
			return errors.New("gateway.redis.addr is required")
		}
	case BackendPostgres:
		if g.Postgres.URI == "" {
			return errors.New("gateway.postgres.uri is required")
		}
		if g.Postgres.Table == "" {
			return errors.New("gateway.postgres.table is required")
		}
	case BackendMongo:
		if g.MongoDB.URI == "" {
			return errors.New("gateway.mongodb.uri is required")
		}
		if g.MongoDB.Database == "" || g.MongoDB.Collection == "" {
			return errors.New("gateway.mongodb.database and collection are required")
		}
	case BackendS3:
		if g.S3.Bucket == "" {
			return errors.New("gateway.s3.bucket is required")
		}
	case BackendEthereum:
		if g.Ethereum.RPCURL == "" {
			return errors.New("gateway.ethereum.rpc_url is required")
		}
		if g.Ethereum.ContractAddress == "" {
			return errors.New("gateway.ethereum.contract_address is required")
		}
	default:
		return fmt.Errorf("unknown gateway.backend %q", g.Backend)
	}
	return nil
}
