package migrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// CHConn is satisfied by clickhouse driver.Conn and the clickhouse store's Conn.
type CHConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
}

const chSchemaTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     UInt32,
		name        String,
		checksum    String,
		applied_at  Int64
	) ENGINE = ReplacingMergeTree(applied_at)
	ORDER BY version`

// RunClickhouse applies pending migrations one statement at a time, since the
// driver rejects multi-statement Exec. ClickHouse DDL is not transactional: a
// migration is recorded only after all of its statements succeed, so its
// statements must be safe to rerun (IF NOT EXISTS).
func RunClickhouse(ctx context.Context, conn CHConn, logger *zap.Logger) ([]Migration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("migrations").With(zap.String("dialect", string(Clickhouse)))

	all, err := Load(Clickhouse)
	if err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, chSchemaTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := chApplied(ctx, conn)
	if err != nil {
		return nil, err
	}
	todo, err := pending(all, applied)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for _, m := range todo {
		stmts, err := splitStatements(m.SQL)
		if err != nil {
			return done, fmt.Errorf("migration %03d_%s: %w", m.Version, m.Name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return done, fmt.Errorf("apply migration %03d_%s: %w", m.Version, m.Name, err)
			}
		}
		if err := conn.Exec(ctx,
			`INSERT INTO schema_migrations (version, name, checksum, applied_at) VALUES (?, ?, ?, ?)`,
			uint32(m.Version), m.Name, m.Checksum, time.Now().UnixMilli(),
		); err != nil {
			return done, fmt.Errorf("record migration %03d: %w", m.Version, err)
		}
		logger.Info("migration applied", zap.Int("version", m.Version), zap.String("name", m.Name))
		done = append(done, m)
	}
	return done, nil
}

func chApplied(ctx context.Context, conn CHConn) (map[int]string, error) {
	rows, err := conn.Query(ctx, `SELECT version, checksum FROM schema_migrations FINAL`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]string)
	for rows.Next() {
		var version uint32
		var sum string
		if err := rows.Scan(&version, &sum); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[int(version)] = sum
	}
	return applied, rows.Err()
}

// splitStatements splits a script on semicolons outside quotes and comments.
// Comments are dropped from the output.
func splitStatements(script string) ([]string, error) {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case c == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i += end + 3
			cur.WriteByte(' ')
		case c == '\'' || c == '"' || c == '`':
			j, err := skipQuoted(script, i)
			if err != nil {
				return nil, err
			}
			cur.WriteString(script[i : j+1])
			i = j
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts, nil
}

// skipQuoted returns the index of the quote closing the literal that opens at
// start. Backslash escapes and doubled quotes are both honored.
func skipQuoted(s string, start int) (int, error) {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			if i+1 < len(s) && s[i+1] == q {
				i++
				continue
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated %c literal at offset %d", q, start)
}
