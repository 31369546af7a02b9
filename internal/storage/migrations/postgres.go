// Package migrations applies the embedded SQL schema for both stores.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage/postgres"
)

// PostgresFS embeds the PostgreSQL schema files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// RunPostgresMigrations applies the embedded schema files in lexical
// order. Every file is written to be re-runnable (IF NOT EXISTS), so no
// version table is needed.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := PostgresFS.ReadFile("postgres/" + file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}

// sqlFiles lists the .sql entries of an embedded directory in lexical order.
func sqlFiles(fsys embed.FS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
