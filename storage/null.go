package storage

import "context"

// Null is the storage used where no durable storage exists, such as a
// non-interactive render. Every read is absent and every write is skipped.
type Null struct{}

// Available always reports false.
func (Null) Available() bool { return false }

// Get always reports the key as absent.
func (Null) Get(context.Context, string) (string, bool, error) { return "", false, nil }

// Set drops the value.
func (Null) Set(context.Context, string, string) error { return nil }

// Remove is a no-op.
func (Null) Remove(context.Context, string) error { return nil }
