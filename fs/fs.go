// Package appfs bundles the files the binaries need at runtime.
package appfs

import "embed"

//go:embed migrations/*.sql all:templates
var FS embed.FS
