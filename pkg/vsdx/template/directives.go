package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Directive kinds recognized by the render pipeline. "set" directives are
// left to substitution.
const (
	kindShowIf = "showif"
	kindIf     = "if"
	kindElif   = "elif"
	kindElse   = "else"
	kindFor    = "for"
)

var directiveRe = regexp.MustCompile(`\{%-?\s*(showif|if|elif|else|for)\b(.*?)-?%\}`)

var forRe = regexp.MustCompile(`^([A-Za-z_]\w*)\s+in\s+(.+)$`)

// directive is one "{% kind expr %}" occurrence in a text.
type directive struct {
	kind string
	expr string
	raw  string
}

func parseDirectives(text string) []directive {
	var out []directive
	for _, m := range directiveRe.FindAllStringSubmatch(text, -1) {
		out = append(out, directive{kind: m[1], expr: strings.TrimSpace(m[2]), raw: m[0]})
	}
	return out
}

// findDirective returns the first directive of one of kinds in text.
func findDirective(text string, kinds ...string) (directive, bool) {
	for _, d := range parseDirectives(text) {
		for _, k := range kinds {
			if d.kind == k {
				return d, true
			}
		}
	}
	return directive{}, false
}

// strip removes d from text.
func (d directive) strip(text string) string {
	return strings.Replace(text, d.raw, "", 1)
}

// loopParts splits "name in expr".
func (d directive) loopParts() (name, src string, err error) {
	m := forRe.FindStringSubmatch(d.expr)
	if m == nil {
		return "", "", fmt.Errorf("malformed loop %q, expected \"name in expr\"", d.raw)
	}
	return m[1], strings.TrimSpace(m[2]), nil
}

// validate checks the parts of d that do not depend on the context.
func (d directive) validate() error {
	switch d.kind {
	case kindElse:
		if d.expr != "" {
			return fmt.Errorf("malformed %q, else takes no expression", d.raw)
		}
	case kindFor:
		_, _, err := d.loopParts()
		return err
	default:
		if d.expr == "" {
			return fmt.Errorf("malformed %q, missing expression", d.raw)
		}
	}
	return nil
}
