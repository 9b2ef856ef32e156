// Package schema embeds the goose migrations for the payment store.
package schema

import "embed"

//go:embed *.sql
var Migrations embed.FS
