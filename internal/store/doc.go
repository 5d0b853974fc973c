// Package store defines interfaces for data persistence operations.
// The interfaces abstract users and video metadata away from the underlying
// database so services depend on behavior, not on a specific driver. Shared
// error values live here too, letting callers branch on ErrNotFound and
// ErrDuplicate without importing a concrete store.
package store
