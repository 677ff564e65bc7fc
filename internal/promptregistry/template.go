package promptregistry

import "strings"

// Format substitutes {{key}} placeholders in tpl with the given values.
// Unrecognised placeholders are left untouched rather than erroring, so a
// template can be extended with new placeholders without breaking older
// callers that don't supply them yet.
func Format(tpl string, values map[string]string) string {
	out := tpl
	for key, val := range values {
		out = strings.ReplaceAll(out, "{{"+key+"}}", val)
	}
	return out
}
