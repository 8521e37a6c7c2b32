// Package config reads workspace settings from the environment, optionally
// seeded from .env files.
//
//	TT_WORKSPACE:          address external form; overrides driver and location
//	TT_STORAGE_DRIVER:     memory|file|sqlite|postgres|badger|blob (default file)
//	TT_STORAGE_LOCATION:   driver-specific location (default under $XDG_DATA_HOME/timetracker)
//	TT_LOG_LEVEL:          zerolog level name (default info)
//	TT_SELF_CHECK:         true runs the validation pass after every structural change
//	TT_POSTGRES_DSN:       connection string when driver=postgres
//	TT_BLOB_DRIVER:        fs|s3|memory when driver=blob (default fs)
//	TT_BLOB_FS_ROOT:       blob root when blob driver=fs
//	TT_BLOB_S3_BUCKET, TT_BLOB_S3_REGION, TT_BLOB_S3_ENDPOINT, TT_BLOB_S3_PATH_STYLE
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"timetracker/internal/address"
	"timetracker/internal/blob"
)

// AppName names the data directory under XDG_DATA_HOME.
const AppName = "timetracker"

// Storage drivers understood by the workspace registry. The driver name is
// also the store type mnemonic in addresses.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverBlob     = "blob"
)

// Config holds resolved settings.
type Config struct {
	Workspace       string
	StorageDriver   string
	StorageLocation string
	LogLevel        zerolog.Level
	SelfCheck       bool
	PostgresDSN     string
	Blob            blob.Config
}

// Load applies the given .env files (".env" when none are named; missing
// files are skipped) and reads the environment. Variables already set in
// the process environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Workspace:       strings.Trim(getenv("TT_WORKSPACE"), " \r\n"),
		StorageDriver:   strings.ToLower(strings.TrimSpace(getenv("TT_STORAGE_DRIVER"))),
		StorageLocation: strings.TrimSpace(getenv("TT_STORAGE_LOCATION")),
		LogLevel:        zerolog.InfoLevel,
		PostgresDSN:     getenv("TT_POSTGRES_DSN"),
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = DriverFile
	}
	switch cfg.StorageDriver {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres, DriverBadger, DriverBlob:
	default:
		return Config{}, fmt.Errorf("config: unknown storage driver %q", cfg.StorageDriver)
	}
	if level := getenv("TT_LOG_LEVEL"); level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return Config{}, fmt.Errorf("config: TT_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = parsed
	}
	if v := getenv("TT_SELF_CHECK"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: TT_SELF_CHECK: %w", err)
		}
		cfg.SelfCheck = enabled
	}

	cfg.Blob.Driver = blob.Driver(strings.ToLower(getenv("TT_BLOB_DRIVER")))
	cfg.Blob.FSRoot = getenv("TT_BLOB_FS_ROOT")
	if cfg.Blob.FSRoot == "" {
		cfg.Blob.FSRoot = filepath.Join(xdg.DataHome, AppName, "blobs")
	}
	cfg.Blob.S3 = blob.S3Config{
		Bucket:    getenv("TT_BLOB_S3_BUCKET"),
		Region:    getenv("TT_BLOB_S3_REGION"),
		Endpoint:  getenv("TT_BLOB_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(getenv("TT_BLOB_S3_PATH_STYLE"), "true"),
	}
	if cfg.Blob.Driver == blob.DriverS3 && cfg.Blob.S3.Bucket == "" {
		return Config{}, errors.New("config: TT_BLOB_S3_BUCKET required for the s3 blob driver")
	}
	return cfg, nil
}

// DefaultLocation returns the location used for driver when none is set.
func DefaultLocation(driver string) string {
	dir := filepath.Join(xdg.DataHome, AppName)
	switch driver {
	case DriverFile:
		return filepath.Join(dir, "workspace.xml")
	case DriverSQLite:
		return filepath.Join(dir, "workspace.db")
	case DriverBadger:
		return filepath.Join(dir, "badger")
	case DriverBlob:
		return "workspaces/workspace.xml"
	default:
		return "workspace"
	}
}

// WorkspaceRef returns the configured workspace address.
func (c Config) WorkspaceRef() (address.Ref, error) {
	if c.Workspace != "" {
		return address.Decode(c.Workspace)
	}
	location := c.StorageLocation
	if location == "" {
		location = DefaultLocation(c.StorageDriver)
	}
	return address.Ref{Type: c.StorageDriver, Location: location}, nil
}

// Logger returns a console logger at the configured level.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(c.LogLevel).With().Timestamp().Logger()
}
