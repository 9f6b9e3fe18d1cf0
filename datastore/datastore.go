// Package datastore opens the database that persists the
// playback statistics.
package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"rhythmix/datastore/history"
	"strconv"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const (
	Postgres = "postgres"
	Sqlite   = "sqlite3"
)

type Datastore struct {
	*log.Logger
	*sql.DB
	config  *Configuration
	history *history.HistoryStore
}

type Configuration struct {
	LogLevel log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	// Driver is either postgres or sqlite3, the datastore
	// is disabled when it is empty.
	Driver string `yaml:"Driver" validate:"omitempty,oneof=postgres sqlite3" env:"DATABASE_DRIVER"`
	// Path of the sqlite3 database file.
	Path string `yaml:"Path" validate:"required_if=Driver sqlite3" env:"DATABASE_PATH"`
}

// Enabled returns true if a database driver is configured.
func (c *Configuration) Enabled() bool {
	return len(c.Driver) > 0
}

// NewDatastore constructs an object that handles persisting
// the statistics to the database and recieving them from it.
// It does not implement any of the bot's logics.
func NewDatastore(config *Configuration) *Datastore {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Datastore created")
	return &Datastore{Logger: l, config: config}
}

// Connect opens a new connection to the configured database.
func (datastore *Datastore) Connect() error {
	var db *sql.DB
	var err error
	switch datastore.config.Driver {
	case Postgres:
		db, err = datastore.connectPostgres()
	case Sqlite:
		db, err = datastore.connectSqlite()
	default:
		return fmt.Errorf("unknown database driver '%s'", datastore.config.Driver)
	}
	if err != nil {
		return err
	}
	// NOTE: ping the databse so we make sure there is a valid connection
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	datastore.DB = db
	datastore.history = history.NewHistoryStore(db, datastore.Logger)
	datastore.WithField("Driver", datastore.config.Driver).Info("Database connection established")
	return nil
}

// Init creates all the tables required by the datastore.
func (datastore *Datastore) Init(ctx context.Context) error {
	datastore.Debug("Initializing datastore ...")
	if err := datastore.history.Init(ctx); err != nil {
		return err
	}
	datastore.Info("Datastore initialized")
	return nil
}

// History returns the store of the played songs.
func (datastore *Datastore) History() *history.HistoryStore {
	return datastore.history
}

// connectPostgres opens a new postges connection based on the
// POSTGRES_* environment variables.
func (datastore *Datastore) connectPostgres() (*sql.DB, error) {
	datastore.Info("Oppening postgres connection ...")

	env := make(map[string]string)
	for _, k := range []string{
		"POSTGRES_HOST",
		"POSTGRES_PORT",
		"POSTGRES_USER",
		"POSTGRES_PASSWORD",
		"POSTGRES_DB",
	} {
		v := os.Getenv(k)
		if len(v) == 0 {
			return nil, fmt.Errorf("Missing environment variable '%s'", k)
		}
		env[k] = v
	}
	port, err := strconv.Atoi(env["POSTGRES_PORT"])
	if err != nil {
		return nil, errors.New("'POSTGRES_PORT' is not a valid port number")
	}
	return sql.Open(
		Postgres,
		fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			env["POSTGRES_HOST"],
			port,
			env["POSTGRES_USER"],
			env["POSTGRES_PASSWORD"],
			env["POSTGRES_DB"],
		),
	)
}

func (datastore *Datastore) connectSqlite() (*sql.DB, error) {
	datastore.WithField("Path", datastore.config.Path).Info("Oppening sqlite connection ...")
	if dir := filepath.Dir(datastore.config.Path); len(dir) > 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(Sqlite, datastore.config.Path)
	if err != nil {
		return nil, err
	}
	// NOTE: sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return db, nil
}
