// Package config handles configuration loading, parsing, and validation.
// Settings come from defaults, an optional config.yaml, and VIBEEDIT_-prefixed
// environment variables, grouped into typed sections (server, database, auth,
// scheduler, storage, ffmpeg, ai) so components depend only on the slice of
// configuration they actually use.
package config
