// Package script renders the call script (TwiML) sent to the telephony provider
// from the inbound alert payload.
package script

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

var (
	// ErrCompile indicates that the template source could not be parsed.
	ErrCompile = errors.New("script template compile failed")
	// ErrRender indicates that the payload is incompatible with the template.
	ErrRender = errors.New("script render failed")
)

// RenderFunc turns an alert payload into the call script. It performs no I/O
// and is safe for concurrent use.
type RenderFunc func(payload any) (string, error)

// Compile parses the template source once. Referencing a key the payload does not
// carry is a render error rather than an empty string; use `index` for optional keys.
func Compile(source string) (RenderFunc, error) {
	tmpl, err := template.New("script").
		Option("missingkey=error").
		Funcs(funcs).
		Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}

	return func(payload any) (string, error) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, payload); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRender, err)
		}
		return buf.String(), nil
	}, nil
}

var funcs = template.FuncMap{
	"xml":   xmlEscape,
	"upper": func(v any) string { return strings.ToUpper(toString(v)) },
	"lower": func(v any) string { return strings.ToLower(toString(v)) },
	"join": func(sep string, v any) string {
		items, ok := v.([]any)
		if !ok {
			return toString(v)
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, toString(item))
		}
		return strings.Join(parts, sep)
	},
	"default": func(fallback, v any) any {
		if v == nil || toString(v) == "" {
			return fallback
		}
		return v
	},
}

func xmlEscape(v any) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(toString(v))); err != nil {
		return "", err
	}
	return b.String(), nil
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
