package gateway

import (
	"context"
	"fmt"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/config"
	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	BackendMemory   = config.BackendMemory
	BackendFile     = config.BackendFile
	BackendRedis    = config.BackendRedis
	BackendPostgres = config.BackendPostgres
	BackendMongo    = config.BackendMongo
	BackendS3       = config.BackendS3
	BackendEthereum = config.BackendEthereum
)

// Open builds the backend named by cfg.Backend and wraps it with metrics.
func Open(ctx context.Context, cfg config.GatewayConfig, l *logger.Logger) (Gateway, error) {
	g, err := open(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	l.Info("gateway opened", zap.String("backend", g.Backend()))
	return Instrument(g), nil
}

func open(ctx context.Context, cfg config.GatewayConfig, l *logger.Logger) (Gateway, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryGateway(), nil

	case BackendFile:
		return NewFileGateway(cfg.File.Dir)

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisGateway(client, cfg.Redis.Prefix), nil

	case BackendPostgres:
		return NewPostgresGateway(ctx, PostgresConfig{
			URI:      cfg.Postgres.URI,
			Table:    cfg.Postgres.Table,
			MinConns: int32(cfg.Postgres.MinConns),
			MaxConns: int32(cfg.Postgres.MaxConns),
		}, l.Named("gateway.postgres"))

	case BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.ConnectTimeout)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoDB.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		coll := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		return NewMongoGateway(client, coll, true), nil

	case BackendS3:
		return NewS3Gateway(ctx, S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})

	case BackendEthereum:
		return NewEthereumGateway(ctx, EthereumConfig{
			RPCURL:          cfg.Ethereum.RPCURL,
			ContractAddress: cfg.Ethereum.ContractAddress,
			PrivateKey:      cfg.Ethereum.PrivateKey,
			ChainID:         cfg.Ethereum.ChainID,
			WaitMined:       cfg.Ethereum.WaitMined,
		})
	}
	return nil, fmt.Errorf("unknown gateway backend %q", cfg.Backend)
}
