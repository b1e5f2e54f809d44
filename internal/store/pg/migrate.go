package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// migrationLockID es la clave del advisory lock que serializa migraciones entre réplicas.
const migrationLockID int64 = 0x6d6564696163 // "mediac"

const ensureMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Migration es un par up/down identificado por su prefijo (ej. "0001_users").
type Migration struct {
	Version string
	Up      string
	Down    string
}

// LoadMigrations lee *_up.sql / *_down.sql del FS y los ordena por versión.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	byVersion := map[string]*Migration{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()
		var version, dir string
		switch {
		case strings.HasSuffix(name, "_up.sql"):
			version, dir = strings.TrimSuffix(name, "_up.sql"), "up"
		case strings.HasSuffix(name, "_down.sql"):
			version, dir = strings.TrimSuffix(name, "_down.sql"), "down"
		default:
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version}
			byVersion[version] = m
		}
		if dir == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" {
			return nil, fmt.Errorf("migration %s has no up script", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// MigrateUp aplica las migraciones pendientes en orden. Devuelve cuántas aplicó.
func (s *Store) MigrateUp(ctx context.Context, fsys fs.FS) (int, error) {
	migs, err := LoadMigrations(fsys)
	if err != nil {
		return 0, err
	}
	applied := 0
	err = s.withMigrationLock(ctx, func(conn *pgx.Conn) error {
		done, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, m := range migs {
			if done[m.Version] {
				continue
			}
			if err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, m.Up); err != nil {
					return err
				}
				_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
				return err
			}); err != nil {
				return fmt.Errorf("apply %s: %w", m.Version, err)
			}
			logger.From(ctx).Info("migration applied", logger.String("version", m.Version))
			applied++
		}
		return nil
	})
	return applied, err
}

// MigrateDown revierte las últimas `steps` migraciones aplicadas (steps <= 0 => 1).
func (s *Store) MigrateDown(ctx context.Context, fsys fs.FS, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	migs, err := LoadMigrations(fsys)
	if err != nil {
		return 0, err
	}
	reverted := 0
	err = s.withMigrationLock(ctx, func(conn *pgx.Conn) error {
		done, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for i := len(migs) - 1; i >= 0 && reverted < steps; i-- {
			m := migs[i]
			if !done[m.Version] {
				continue
			}
			if strings.TrimSpace(m.Down) == "" {
				return fmt.Errorf("migration %s has no down script", m.Version)
			}
			if err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, m.Down); err != nil {
					return err
				}
				_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
				return err
			}); err != nil {
				return fmt.Errorf("revert %s: %w", m.Version, err)
			}
			logger.From(ctx).Info("migration reverted", logger.String("version", m.Version))
			reverted++
		}
		return nil
	})
	return reverted, err
}

// withMigrationLock toma el advisory lock en una conexión dedicada y lo libera en la misma.
func (s *Store) withMigrationLock(ctx context.Context, fn func(conn *pgx.Conn) error) error {
	pc, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer pc.Release()
	conn := pc.Conn()
	log := logger.From(ctx)

	var got bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, migrationLockID).Scan(&got); err != nil {
		return fmt.Errorf("try advisory lock: %w", err)
	}
	if !got {
		log.Info("migration lock held by another process, waiting")
		lctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := conn.Exec(lctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID); err != nil {
			log.Warn("release migration lock failed", logger.Err(err))
		}
	}()

	if _, err := conn.Exec(ctx, ensureMigrationsTable); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return fn(conn)
}

func appliedVersions(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

// ParseSteps interpreta el argumento opcional de `migrate down`.
func ParseSteps(arg string) (int, error) {
	if strings.TrimSpace(arg) == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("steps must be a positive integer, got %q", arg)
	}
	return n, nil
}
