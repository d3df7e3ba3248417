// Package web provides the embedded HTML templates used to render the
// recently-played table.
package web

import "embed"

// TemplatesFS contains the embedded HTML templates.
//
//go:embed all:templates
var TemplatesFS embed.FS
