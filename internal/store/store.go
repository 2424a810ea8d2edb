// Package store selecciona e instancia el adapter de persistencia.
//
// Las implementaciones viven en internal/store/adapters/. El contrato que
// cumplen está en internal/domain/repository.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/consentd/internal/config"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/store/adapters/memory"
	"github.com/dropDatabas3/consentd/internal/store/adapters/pg"
)

// Open crea el Store según el driver configurado.
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres", "pg":
		if cfg.Storage.DSN == "" {
			return nil, fmt.Errorf("store: driver postgres requiere storage.dsn")
		}
		return pg.Open(ctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: driver desconocido %q", cfg.Storage.Driver)
	}
}
