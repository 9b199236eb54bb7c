package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// versionTable tabla donde tern guarda la última migración aplicada.
const versionTable = "schema_version"

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrations expone los archivos NNNN_nombre.sql en la raíz, como los espera tern.
func migrations() (fs.FS, error) {
	return fs.Sub(migrationFS, "migrations")
}

// Migrate lleva el esquema a la última versión. tern toma un advisory lock sobre la tabla de
// versión y corre cada archivo en su propia transacción, así que es seguro con varias réplicas.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), versionTable)
	if err != nil {
		return fmt.Errorf("new migrator: %w", err)
	}
	files, err := migrations()
	if err != nil {
		return err
	}
	if err := m.LoadMigrations(files); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m.OnStart = func(sequence int32, name, direction, _ string) {
		log.Info().Int32("sequence", sequence).Str("name", name).Str("direction", direction).Msg("aplicando migración")
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	version, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	log.Debug().Int32("version", version).Int("available", len(m.Migrations)).Msg("esquema al día")
	return nil
}
