package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/consentd/internal/config"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate [up|down] [steps]",
		Short: "Aplica las migraciones de Postgres",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 && args[0] != "" {
				action = strings.ToLower(args[0])
			}
			if len(args) >= 2 {
				fmt.Sscanf(args[1], "%d", &steps)
			}
			return runMigrate(*configPath, dir, action, steps)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations/postgres", "Directorio de migraciones (*_up.sql / *_down.sql)")
	return cmd
}

func runMigrate(configPath, dir, action string, steps int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("migrate: storage.dsn no configurado")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("migrate: pgxpool: %w", err)
	}
	defer pool.Close()

	switch action {
	case "up":
		files, err := listSQL(dir, "_up.sql")
		if err != nil {
			return err
		}
		sort.Strings(files)
		if steps > 0 && steps < len(files) {
			files = files[:steps]
		}
		return execAll(ctx, pool, files)

	case "down":
		files, err := listSQL(dir, "_down.sql")
		if err != nil {
			return err
		}
		sort.Strings(files)
		reverseInPlace(files)
		if steps > 0 && steps < len(files) {
			files = files[:steps]
		}
		return execAll(ctx, pool, files)

	default:
		return fmt.Errorf("migrate: acción desconocida %q (up | down [steps])", action)
	}
}

func listSQL(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}

func execAll(ctx context.Context, pool *pgxpool.Pool, files []string) error {
	if len(files) == 0 {
		fmt.Println("nada que aplicar")
		return nil
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", f, err)
		}
		start := time.Now()
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("migrate: exec %s: %w", f, err)
		}
		fmt.Printf("OK %s (%s)\n", filepath.Base(f), time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}
