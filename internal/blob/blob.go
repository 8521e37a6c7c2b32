// Package blob re-exports the blob storage contract and selects a driver
// from configuration.
package blob

import (
	"context"
	"fmt"

	"timetracker/internal/blob/core"
	"timetracker/internal/infra/blob/fs"
	memorystore "timetracker/internal/infra/blob/memory"
	infraS3 "timetracker/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3 driver.
	S3Config = infraS3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound is returned for missing keys.
	ErrNotFound = core.ErrNotFound
	// ErrInvalidKey is returned for keys no driver accepts.
	ErrInvalidKey = core.ErrInvalidKey
)

// CheckKey reports the cleaned form of key or ErrInvalidKey.
func CheckKey(key string) (string, error) { return core.CheckKey(key) }

// Digest returns the content digest drivers record in Info.Digest.
func Digest(content []byte) string { return core.Digest(content) }

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open constructs the configured blob store. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return infraS3.New(ctx, cfg.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
