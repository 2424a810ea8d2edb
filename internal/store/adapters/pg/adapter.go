// Package pg implementa repository.Store sobre PostgreSQL con pgxpool.
//
// WithinTx corre las operaciones de la callback en una transacción pgx: la
// unidad atómica que el motor exige para las cascadas de estado.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/consentd/internal/domain/repository"
)

// Config parametriza la conexión.
type Config struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime string
}

// querier abstrae pool y tx: ambos sirven las mismas operaciones.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implementa repository.Store sobre PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// Open crea el pool y verifica la conexión.
// Un DSN vacío es repository.ErrNoDatabase.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, repository.ErrNoDatabase
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool, q: pool}, nil
}

func (s *Store) Consents() repository.ConsentRepository             { return &consentRepo{q: s.q} }
func (s *Store) Authorisations() repository.AuthorisationRepository { return &authRepo{q: s.q} }
func (s *Store) Payments() repository.PaymentRepository             { return &paymentRepo{q: s.q} }
func (s *Store) Usages() repository.UsageRepository                 { return &usageRepo{q: s.q} }

// WithinTx ejecuta fn dentro de una transacción. Commit solo si fn retorna
// nil; cualquier error hace rollback completo.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.pool == nil {
		// Ya estamos dentro de una tx: reusar.
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	txStore := &Store{q: tx}
	if err := fn(txStore); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
