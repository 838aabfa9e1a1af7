package session

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"
)

// Metadata is the book identity the caller hands to Open. The engine only
// formats it; reading it out of the container is the caller's business.
type Metadata struct {
	Title     string
	Authors   []string
	Language  string
	Publisher string
	Date      string
}

const defaultTitleTemplate = "{{.Title}}"

func parseTitleTemplate(field string) (*template.Template, error) {
	if field == "" {
		field = defaultTitleTemplate
	}
	tmpl, err := template.New("display-title").Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return nil, fmt.Errorf("unable to parse title template: %w", err)
	}
	return tmpl, nil
}

// displayTitle renders the configured template over the book metadata.
// Template trouble falls back to the raw title, an untitled book gets a
// stable placeholder.
func (e *Engine) displayTitle(meta Metadata) string {
	buf := new(bytes.Buffer)
	if err := e.title.Execute(buf, meta); err != nil {
		e.log.Warn("unable to render display title", zap.Error(err))
		return fallbackTitle(meta.Title)
	}
	if out := strings.TrimSpace(buf.String()); out != "" {
		return out
	}
	return fallbackTitle(meta.Title)
}

func fallbackTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}
