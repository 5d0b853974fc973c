// Package migrations embeds the SQL schema migrations so the server binary
// and integration tests can apply them without depending on a checkout-relative
// directory path.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
