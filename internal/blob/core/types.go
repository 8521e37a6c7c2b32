// Package core defines the blob storage contract shared by the drivers.
package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver names a blob storage implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// DigestKey is the metadata entry drivers without native content hashing use
// to carry the digest alongside the object.
const DigestKey = "sha256"

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("blob: not found")
	// ErrInvalidKey is returned for keys that cannot name an object.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// PutOptions carries the attributes stored with an object.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object. Digest is the hex SHA-256 of the content
// and is the same on every driver, so callers can compare content without
// downloading it.
type Info struct {
	Key         string            `json:"key"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type,omitempty"`
	Digest      string            `json:"digest"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Modified    time.Time         `json:"modified"`
}

// Store holds whole objects by key. Put replaces any existing object.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get and Head return ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// List returns the objects under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// CheckKey cleans key into slash form and rejects empty, absolute and
// parent-relative keys. Every driver applies it so a key valid on one is
// valid on all.
func CheckKey(key string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(key), "\\", "/"))
	switch {
	case cleaned == "." || cleaned == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.HasPrefix(cleaned, "/"):
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidKey, key)
	case cleaned == ".." || strings.HasPrefix(cleaned, "../"):
		return "", fmt.Errorf("%w: %q leaves the store", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// Digest returns the hex SHA-256 of b.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
