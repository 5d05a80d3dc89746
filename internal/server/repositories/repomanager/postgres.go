package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/facultyreview/internal/dbx"
	"github.com/dmitrijs2005/facultyreview/internal/server/migrations"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/otps"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/users"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories over a
// shared *sql.DB and runs goose migrations.
type PostgresRepositoryManager struct {
	db *sql.DB
}

type postgresRepos struct {
	db dbx.DBTX
}

func (r postgresRepos) Users() users.Repository         { return users.NewPostgresRepository(r.db) }
func (r postgresRepos) OTPs() otps.Repository           { return otps.NewPostgresRepository(r.db) }
func (r postgresRepos) Faculties() faculties.Repository { return faculties.NewPostgresRepository(r.db) }

func (m *PostgresRepositoryManager) Users() users.Repository {
	return postgresRepos{db: m.db}.Users()
}

func (m *PostgresRepositoryManager) OTPs() otps.Repository {
	return postgresRepos{db: m.db}.OTPs()
}

func (m *PostgresRepositoryManager) Faculties() faculties.Repository {
	return postgresRepos{db: m.db}.Faculties()
}

func (m *PostgresRepositoryManager) NewID() string {
	return uuid.NewString()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepos{db: tx})
	})
}

func (m *PostgresRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}

// NewPostgresRepositoryManager wraps an already opened database.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// OpenPostgres opens a pgx-backed pool for dsn and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}
