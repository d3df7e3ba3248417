package render

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

const (
	templatePattern = "*.html"
	tableTemplate   = "recent"
)

// Templates holds the parsed table templates.
type Templates struct {
	tmpl *template.Template
}

// NewTemplates parses every *.html template in templatesFS.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, templatePattern)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if tmpl.Lookup(tableTemplate) == nil {
		return nil, fmt.Errorf("template %q not found", tableTemplate)
	}
	return &Templates{tmpl: tmpl}, nil
}

// Execute renders the named template with data.
func (t *Templates) Execute(w io.Writer, name string, data any) error {
	return t.tmpl.ExecuteTemplate(w, name, data)
}

// TableData is passed to the table template.
type TableData struct {
	Rows []Row
}

// Row is one rendered play.
type Row struct {
	ArtworkURL string
	Track      string
	Artists    string
	Album      string
	AlbumURL   string
}
