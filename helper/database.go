package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DatabaseConfiguration holds the Postgres connection parameters
type DatabaseConfiguration struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Database string `env:"DB_DATABASE" envDefault:"kaf"`
	Username string `env:"DB_USERNAME" envDefault:"user"`
	Password string `env:"DB_PASSWORD" envDefault:"password"`
	Schema   string `env:"DB_SCHEMA" envDefault:"public"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// NewDatabaseConfiguration reads the configuration from environment variables
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	config := &DatabaseConfiguration{}
	if err := env.Parse(config); err != nil {
		return nil, NewError("parse database configuration", err)
	}
	return config, nil
}

func (c *DatabaseConfiguration) connectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode, c.Schema,
	)
}

// Database wraps a sql.DB handle with its configuration and logger.
// The handle is safe for concurrent use; Reconnect replaces it after
// a dropped connection.
type Database struct {
	Name     string
	Instance *sql.DB
	Config   *DatabaseConfiguration
	Logger   *slog.Logger
}

// NewDatabase opens a connection and verifies it with a ping
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	instance, err := openAndPing(config)
	if err != nil {
		return nil, err
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: instance,
		Config:   config,
		Logger:   logger,
	}, nil
}

// Close closes the underlying connection
func (d *Database) Close() error {
	if d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

// Reconnect closes the current handle and opens a fresh one
func (d *Database) Reconnect() error {
	if d.Instance != nil {
		_ = d.Instance.Close()
	}

	instance, err := openAndPing(d.Config)
	if err != nil {
		return NewError("reconnect", err)
	}

	d.Instance = instance
	d.Logger.Info("Reconnected to database", slog.String("name", d.Name))
	return nil
}

func openAndPing(config *DatabaseConfiguration) (*sql.DB, error) {
	instance, err := sql.Open("postgres", config.connectionString())
	if err != nil {
		return nil, NewError("open database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := instance.PingContext(ctx); err != nil {
		_ = instance.Close()
		return nil, NewError("ping database", err)
	}

	return instance, nil
}

// MustStartPostgresContainer starts a disposable pgvector-enabled Postgres
// container for tests and returns its teardown function and mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	var (
		dbName = "database"
		dbUser = "user"
		dbPwd  = "password"
	)

	ctx := context.Background()

	dbContainer, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}

	port, err := dbContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", err
	}

	return dbContainer.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs points the database configuration envs at a
// test container started by MustStartPostgresContainer
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", port)
	t.Setenv("DB_DATABASE", "database")
	t.Setenv("DB_USERNAME", "user")
	t.Setenv("DB_PASSWORD", "password")
	t.Setenv("DB_SCHEMA", "public")
	t.Setenv("DB_SSLMODE", "disable")
}

// NewTestDatabase opens a database for tests, panicking on failure
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(slog.DiscardHandler)
	db, err := NewDatabase("test", config, logger)
	if err != nil {
		panic(err)
	}
	return db
}
