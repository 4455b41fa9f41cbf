// Package renderer turns gemhub reports into markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/gemhub"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

// Options holds rendering options common to every report.
type Options struct {
	Mask bool // hide amounts and quantities ("focus mode")
}

const masked = "•••"

// funcs returns the template functions, honoring opts.
func funcs(opts Options) template.FuncMap {
	hide := func(s string) string {
		if opts.Mask {
			return masked
		}
		return s
	}
	return template.FuncMap{
		"money":  func(m gemhub.Money) string { return hide(m.String()) },
		"signed": func(m gemhub.Money) string { return hide(m.SignedString()) },
		"qty":    func(q gemhub.Quantity) string { return hide(q.String()) },
		"mask":   func(v any) string { return hide(fmt.Sprint(v)) },
		"pct":    func(p gemhub.Percent) string { return p.String() },
		"spct":   func(p gemhub.Percent) string { return p.SignedString() },
		// ratio prints a [0,1] weight as a percentage.
		"ratio": func(d decimal.Decimal) string { return d.Shift(2).StringFixed(0) + "%" },
	}
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, opts Options, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs(opts)).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
