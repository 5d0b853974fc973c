// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. It handles query
// execution, mapping between domain entities and rows, and the translation of
// driver errors into the store package's sentinel errors.
package postgres
