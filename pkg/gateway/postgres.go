package gateway

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	Table    string
	MinConns int32
	MaxConns int32
}

// PostgresGateway stores blobs in a key/data/version table.
type PostgresGateway struct {
	pool   *pgxpool.Pool
	table  string
	logger *logger.Logger
}

// NewPostgresGateway connects, verifies the connection and ensures the table exists.
func NewPostgresGateway(ctx context.Context, cfg PostgresConfig, l *logger.Logger) (*PostgresGateway, error) {
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	g := &PostgresGateway{pool: pool, table: cfg.Table, logger: l}
	if err := g.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return g, nil
}

func (g *PostgresGateway) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			version    BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, pgx.Identifier{g.table}.Sanitize())
	if _, err := g.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", g.table, err)
	}
	return nil
}

func (g *PostgresGateway) IsAvailable(ctx context.Context) (bool, error) {
	if err := g.pool.Ping(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *PostgresGateway) GetData(ctx context.Context, key string) ([]byte, error) {
	b, err := g.GetVersioned(ctx, key)
	return b.Data, err
}

func (g *PostgresGateway) GetVersioned(ctx context.Context, key string) (Blob, error) {
	query := fmt.Sprintf(`SELECT data, version FROM %s WHERE key = $1`, pgx.Identifier{g.table}.Sanitize())

	var (
		data    []byte
		version int64
	)
	err := g.pool.QueryRow(ctx, query, key).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Blob{}, nil
		}
		return Blob{}, fmt.Errorf("select %s: %w", key, err)
	}
	return Blob{Data: data, Version: strconv.FormatInt(version, 10)}, nil
}

func (g *PostgresGateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (key, data, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			version = %[1]s.version + 1,
			updated_at = now()
		RETURNING version`, pgx.Identifier{g.table}.Sanitize())

	var version int64
	if err := g.pool.QueryRow(ctx, query, key, data).Scan(&version); err != nil {
		return Receipt{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	g.logger.Debug("blob written", zap.String("key", key), zap.Int64("version", version))
	return newReceipt(key, data), nil
}

func (g *PostgresGateway) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	table := pgx.Identifier{g.table}.Sanitize()

	var (
		query string
		args  []interface{}
	)
	if version == "" {
		query = fmt.Sprintf(`
			INSERT INTO %s (key, data, version, updated_at)
			VALUES ($1, $2, 1, now())
			ON CONFLICT (key) DO NOTHING`, table)
		args = []interface{}{key, data}
	} else {
		expected, err := strconv.ParseInt(version, 10, 64)
		if err != nil {
			return Receipt{}, fmt.Errorf("invalid version %q: %w", version, err)
		}
		query = fmt.Sprintf(`
			UPDATE %s SET data = $2, version = version + 1, updated_at = now()
			WHERE key = $1 AND version = $3`, table)
		args = []interface{}{key, data, expected}
	}

	tag, err := g.pool.Exec(ctx, query, args...)
	if err != nil {
		return Receipt{}, fmt.Errorf("conditional write %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return Receipt{}, ErrVersionConflict
	}
	return newReceipt(key, data), nil
}

func (g *PostgresGateway) Address(ctx context.Context) (string, error) {
	cfg := g.pool.Config().ConnConfig
	return fmt.Sprintf("postgres://%s:%d/%s#%s", cfg.Host, cfg.Port, cfg.Database, g.table), nil
}

func (g *PostgresGateway) Backend() string { return BackendPostgres }

// Close closes the pool
func (g *PostgresGateway) Close() error {
	g.pool.Close()
	return nil
}
