package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// PgConn is satisfied by *pgxpool.Pool and the postgres store's Pool.
type PgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const pgSchemaTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		checksum    TEXT NOT NULL,
		applied_at  BIGINT NOT NULL
	)`

// RunPostgres applies pending migrations, each in its own transaction with
// its schema_migrations row. Returns the migrations applied by this call.
func RunPostgres(ctx context.Context, db PgConn, logger *zap.Logger) ([]Migration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("migrations").With(zap.String("dialect", string(Postgres)))

	all, err := Load(Postgres)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(ctx, pgSchemaTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := pgApplied(ctx, db)
	if err != nil {
		return nil, err
	}
	todo, err := pending(all, applied)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for _, m := range todo {
		ok, err := pgApply(ctx, db, m)
		if err != nil {
			return done, err
		}
		if !ok {
			logger.Info("migration applied concurrently, skipping", zap.Int("version", m.Version))
			continue
		}
		logger.Info("migration applied", zap.Int("version", m.Version), zap.String("name", m.Name))
		done = append(done, m)
	}
	return done, nil
}

func pgApplied(ctx context.Context, db PgConn) (map[int]string, error) {
	rows, err := db.Query(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]string)
	for rows.Next() {
		var version int
		var sum string
		if err := rows.Scan(&version, &sum); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[version] = sum
	}
	return applied, rows.Err()
}

// pgApply claims the version row first; a concurrent runner blocks on the
// primary key until this transaction ends and then claims nothing.
func pgApply(ctx context.Context, db PgConn, m Migration) (bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin migration %03d: %w", m.Version, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO schema_migrations (version, name, checksum, applied_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (version) DO NOTHING
	`, m.Version, m.Name, m.Checksum, time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("record migration %03d: %w", m.Version, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("apply migration %03d_%s: %w", m.Version, m.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %03d: %w", m.Version, err)
	}
	return true, nil
}
