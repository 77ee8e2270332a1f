// Package provider abstracts where raw configuration bytes come from.
package provider

import "context"

// Type identifies a provider implementation.
type Type string

// TypeFile is the local-file provider.
const TypeFile Type = "file"

// Provider loads raw configuration bytes and optionally watches them for
// changes.
type Provider interface {
	// Type returns the provider kind.
	Type() Type

	// Load reads the current configuration bytes.
	Load(ctx context.Context) ([]byte, error)

	// Watch returns a channel that receives a value whenever the source
	// changes, or nil when watching is not supported.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases watcher resources.
	Close() error
}
