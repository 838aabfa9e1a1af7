// Package styles owns the rules the reader injects into rendered
// sub-documents: a built-in palette per theme plus an optional user
// stylesheet whose selectors are rewritten to apply only under the reader
// class.
package styles

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"epr/common"
	"epr/dom"
)

// Injector builds and injects the combined stylesheet. Load the user
// stylesheet before the first Inject, the injector is read-only after
// that.
type Injector struct {
	log  *zap.Logger
	user string
}

func NewInjector(log *zap.Logger) *Injector {
	return &Injector{log: log.Named("styles")}
}

// LoadUserStylesheet reads, validates and scopes the stylesheet at path.
func (inj *Injector) LoadUserStylesheet(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read reader stylesheet: %w", err)
	}
	return inj.SetUserStylesheet(data)
}

// SetUserStylesheet validates the stylesheet and rewrites its selectors
// under the reader class. Malformed input is rejected whole, a half
// applied stylesheet is worse than none.
func (inj *Injector) SetUserStylesheet(data []byte) error {
	scoped, err := scopeStylesheet(data, inj.log)
	if err != nil {
		return err
	}
	inj.user = scoped
	return nil
}

// CSS returns the full rule text for a theme: popover layout, palette,
// then user rules so they win ties.
func (inj *Injector) CSS(theme common.Theme) string {
	if !theme.Resolved() {
		theme = common.ThemeLight
	}
	return baseRules + themeRules[theme] + inj.user
}

// Inject marks the document body with the reader and theme classes and
// replaces the reader style element content. Calling it again with
// another theme restyles the document in place.
func (inj *Injector) Inject(doc *dom.Document, theme common.Theme) {
	if doc == nil || doc.Root() == nil {
		return
	}
	body := dom.FindElement(doc.Root(), "body")
	if body == nil {
		return
	}
	applyRootClasses(body, theme)

	host := dom.FindElement(doc.Root(), "head")
	if host == nil {
		host = body
	}
	upsertStyle(host, inj.CSS(theme))
}

// applyRootClasses keeps author classes, drops any previous theme token
// and appends the reader and current theme tokens.
func applyRootClasses(body *html.Node, theme common.Theme) {
	var kept []string
	for _, token := range strings.Fields(dom.Attr(body, "class")) {
		if token == ReaderClass || strings.HasPrefix(token, themeClassPrefix) {
			continue
		}
		kept = append(kept, token)
	}
	kept = append(kept, ReaderClass, ThemeClass(theme))
	dom.SetAttr(body, "class", strings.Join(kept, " "))
}

func upsertStyle(host *html.Node, rules string) {
	var style *html.Node
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "style" && dom.Attr(c, "id") == styleElementID {
			style = c
			break
		}
	}
	if style == nil {
		style = &html.Node{
			Type: html.ElementNode,
			Data: "style",
			Attr: []html.Attribute{{Key: "id", Val: styleElementID}},
		}
		host.AppendChild(style)
	}
	for style.FirstChild != nil {
		style.RemoveChild(style.FirstChild)
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: rules})
}

// scopeStylesheet walks the grammar and rebuilds rule text with every
// selector scoped under the reader class. At-rules are dropped: the
// reading surface evaluates no media queries and loads no imports.
func scopeStylesheet(data []byte, log *zap.Logger) (string, error) {
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var sb strings.Builder
	var pending []string
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("unable to parse reader stylesheet: %w", err)
			}
			return sb.String(), nil

		case css.BeginAtRuleGrammar:
			log.Warn("dropping at-rule from reader stylesheet", zap.String("rule", string(data)))
			skipAtRuleBlock(parser)

		case css.AtRuleGrammar:
			log.Warn("dropping at-rule from reader stylesheet", zap.String("rule", string(data)))

		case css.QualifiedRuleGrammar:
			// one selector of a comma separated group, the last one
			// arrives with the ruleset itself
			pending = append(pending, splitSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := scopeSelectors(append(pending, splitSelectors(data, parser.Values())...))
			pending = nil
			decls := collectDeclarations(parser)
			if len(selectors) == 0 || len(decls) == 0 {
				continue
			}
			sb.WriteString(strings.Join(selectors, ", "))
			sb.WriteString(" {\n")
			for _, d := range decls {
				sb.WriteString("\t")
				sb.WriteString(d)
				sb.WriteString(";\n")
			}
			sb.WriteString("}\n")
		}
	}
}

// splitSelectors rebuilds the selector text from prelude tokens and
// splits grouped selectors.
func splitSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for _, s := range strings.Split(sb.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

func scopeSelectors(selectors []string) []string {
	scoped := make([]string, 0, len(selectors))
	for _, s := range selectors {
		scoped = append(scoped, scopeSelector(s))
	}
	return scoped
}

// scopeSelector prefixes a selector with the reader class. A leading html
// or body compound is replaced by the scope itself so rules written
// against the document root keep working.
func scopeSelector(sel string) string {
	head := sel
	if i := strings.IndexAny(sel, " \t>+~"); i >= 0 {
		head = sel[:i]
	}
	if head == "html" || head == "body" {
		return "." + ReaderClass + sel[len(head):]
	}
	// html.quote and body.quote keep their qualifiers on the scope
	if strings.HasPrefix(head, "html.") || strings.HasPrefix(head, "body.") {
		return "." + ReaderClass + sel[len("html"):]
	}
	return "." + ReaderClass + " " + sel
}

// collectDeclarations gathers "property: value" strings until the
// ruleset ends. A parser error ends collection, the caller sees the
// same error on its next step.
func collectDeclarations(parser *css.Parser) []string {
	var decls []string
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, string(data)+": "+tokenText(parser.Values()))
		}
	}
}

// tokenText joins value tokens with single spaces between them.
func tokenText(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}
