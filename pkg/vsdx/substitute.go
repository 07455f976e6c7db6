package vsdx

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/ukaji3/vsdx-go/pkg/vsdx/expression"
)

// setDirectiveRe matches "{% set self.field = expr %}".
var setDirectiveRe = regexp.MustCompile(`\{%-?\s*set\s+self\.(\w+)\s*=\s*(.+?)\s*-?%\}`)

// selfFields maps the writable self fields to their cells.
var selfFields = map[string]string{
	"x":           CellPinX,
	"y":           CellPinY,
	"width":       CellWidth,
	"height":      CellHeight,
	"angle":       CellAngle,
	"line_weight": CellLineWeight,
	"line_color":  CellLineColor,
}

// SelfValues returns the values a template expression sees as "self".
func (s *Shape) SelfValues() map[string]any {
	cells := make(map[string]any)
	for name, v := range s.Cells() {
		cells[name] = expression.ParseValue(v)
	}
	return map[string]any{
		"id":          s.id,
		"name":        s.Name(),
		"text":        s.Text(),
		"x":           s.X(),
		"y":           s.Y(),
		"width":       s.Width(),
		"height":      s.Height(),
		"angle":       s.Angle(),
		"line_weight": s.LineWeight(),
		"line_color":  s.LineColor(),
		"cells":       cells,
	}
}

// ApplyContext substitutes every shape on the page. See Shape.ApplyContext.
func (p *Page) ApplyContext(ctx map[string]any) error {
	for _, s := range p.AllShapes() {
		if err := s.ApplyContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ApplyContext evaluates the shape's "{% set self.field = expr %}" directives
// and then every "{{ expr }}" placeholder in its text and cell values.
// Expressions see ctx plus "self", a snapshot of the shape taken before any
// write. Other directive kinds are left untouched.
func (s *Shape) ApplyContext(ctx map[string]any) error {
	env := make(map[string]any, len(ctx)+1)
	maps.Copy(env, ctx)
	env["self"] = s.SelfValues()

	text := s.Text()
	var setText *string
	for _, m := range setDirectiveRe.FindAllStringSubmatch(text, -1) {
		field, src := m[1], m[2]
		v, err := expression.Eval(src, env)
		if err != nil {
			return s.templateError(src, err)
		}
		if field == "text" {
			t := expression.Format(v)
			setText = &t
			continue
		}
		if err := s.setField(field, v); err != nil {
			return s.templateError(src, err)
		}
	}

	out, err := expression.Interpolate(setDirectiveRe.ReplaceAllString(text, ""), env)
	if err != nil {
		return s.templateError(exprOf(err), err)
	}
	if setText != nil {
		out = *setText
	}
	if out != text {
		s.SetText(out)
	}

	cells := s.Cells()
	for _, name := range slices.Sorted(maps.Keys(cells)) {
		v := cells[name]
		if !expression.HasPlaceholders(v) {
			continue
		}
		if err := s.substituteCell(name, v, env); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shape) substituteCell(name, v string, env map[string]any) error {
	var value any
	srcs := expression.Placeholders(v)
	trimmed := strings.TrimSpace(v)
	if len(srcs) == 1 && strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") {
		raw, err := expression.Eval(srcs[0], env)
		if err != nil {
			return s.templateError(srcs[0], err)
		}
		value = raw
	} else {
		str, err := expression.Interpolate(v, env)
		if err != nil {
			return s.templateError(exprOf(err), err)
		}
		value = str
	}
	if IsNumericCell(name) {
		f, err := expression.ToFloat(value)
		if err != nil {
			return s.templateError(v, fmt.Errorf("cell %s: %w", name, err))
		}
		value = f
	}
	s.SetCell(name, value)
	return nil
}

// setField writes a self field. Lowercase names are the fields of SelfValues;
// names starting with an uppercase letter address a raw cell.
func (s *Shape) setField(field string, v any) error {
	cell, ok := selfFields[field]
	if !ok {
		if field == "" || !unicode.IsUpper(rune(field[0])) {
			return fmt.Errorf("unknown field self.%s", field)
		}
		cell = field
	}
	if IsNumericCell(cell) {
		f, err := expression.ToFloat(v)
		if err != nil {
			return fmt.Errorf("self.%s: %w", field, err)
		}
		s.SetCell(cell, f)
		return nil
	}
	s.SetCell(cell, expression.Format(v))
	return nil
}

func (s *Shape) templateError(src string, err error) error {
	return NewTemplateError(s.page.Name(), s.id, src, err)
}

func exprOf(err error) string {
	var exprErr *expression.Error
	if errors.As(err, &exprErr) {
		return exprErr.Expr
	}
	return ""
}
