// Package web holds the dashboard templates and static assets.
package web

import "embed"

// EmbeddedFS serves templates and assets in release and test mode.
//
//go:embed templates static
var EmbeddedFS embed.FS
