// Package web embeds the HTML templates and static assets served by the
// HTTP server.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed public
var Public embed.FS
