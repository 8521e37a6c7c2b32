// Package persistence defines the contract durable backends implement to
// hold a workspace document.
package persistence

import (
	"context"
	"errors"
)

// ErrNoDocument is returned by Backend.Load when nothing has been saved yet.
var ErrNoDocument = errors.New("persistence: no document stored")

// Backend stores exactly one serialized workspace document.
type Backend interface {
	// Load returns the last saved document or ErrNoDocument.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, document []byte) error
	// Close releases any resources held by the backend.
	Close() error
}
