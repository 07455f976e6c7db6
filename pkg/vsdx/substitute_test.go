package vsdx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/vsdx-go/internal/fixture"
	"github.com/ukaji3/vsdx-go/pkg/vsdx/expression"
)

func TestApplyContextText(t *testing.T) {
	tests := []struct {
		text     string
		ctx      map[string]any
		expected string
	}{
		{"{{x*y}}", map[string]any{"x": 3, "y": 4}, "12"},
		{"Date: {{ date }}", map[string]any{"date": "2024-05-01"}, "Date: 2024-05-01"},
		{"{{ name }} ({{ count + 1 }})", map[string]any{"name": "Box", "count": 1}, "Box (2)"},
		{"id {{ self.id }}", nil, "id 1"},
		{"plain", nil, "plain"},
		{"{% if flag %}kept{% endif %}", map[string]any{"flag": true}, "{% if flag %}kept{% endif %}"},
	}

	for _, tt := range tests {
		doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, tt.text, "PinX", "2")))
		s := doc.Pages()[0].FindShapeByID(1)
		require.NoError(t, s.ApplyContext(tt.ctx), "text %q", tt.text)
		if result := s.Text(); result != tt.expected {
			t.Errorf("ApplyContext(%q) = %q, expected %q", tt.text, result, tt.expected)
		}
	}
}

func TestApplyContextSetDirectives(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1,
		"{% set self.x = n * 2 %}{% set self.y = self.y - 1 %}{% set self.LineColor = color %}This shape sets x to n * 2\n",
		"PinX", "1", "PinY", "8")))
	s := doc.Pages()[0].FindShapeByID(1)

	require.NoError(t, s.ApplyContext(map[string]any{"n": 3, "color": "#123456"}))
	assert.Equal(t, 6.0, s.X())
	assert.Equal(t, 7.0, s.Y())
	assert.Equal(t, "#123456", s.LineColor())
	assert.Equal(t, "This shape sets x to n * 2\n", s.Text())
}

func TestApplyContextSelfReadsPreRenderValues(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1,
		"{% set self.x = self.x + 1 %}x was {{ self.x }}", "PinX", "1.5", "Width", "2")))
	s := doc.Pages()[0].FindShapeByID(1)

	require.NoError(t, s.ApplyContext(nil))
	assert.Equal(t, 2.5, s.X())
	assert.Equal(t, "x was 1.5", s.Text())
}

func TestApplyContextSetText(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, "{% set self.text = 'Hello ' + who %}ignored")))
	s := doc.Pages()[0].FindShapeByID(1)

	require.NoError(t, s.ApplyContext(map[string]any{"who": "there"}))
	assert.Equal(t, "Hello there", s.Text())
}

func TestApplyContextCells(t *testing.T) {
	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, "",
		"PinX", "{{ base + 0.5 }}", "LineColor", "{{ color }}", "Width", "{{ w }}")))
	s := doc.Pages()[0].FindShapeByID(1)

	require.NoError(t, s.ApplyContext(map[string]any{"base": 1, "color": "#FF00FF", "w": "2.25"}))
	assert.Equal(t, 1.5, s.X())
	assert.Equal(t, "#FF00FF", s.LineColor())
	assert.Equal(t, 2.25, s.Width())
}

func TestApplyContextInheritedText(t *testing.T) {
	doc := openFixture(t, fixture.New().
		Master(2, "Label", fixture.Shape(1, "Hi {{ who }}")).
		Page("P", fixture.ShapeAttrs(`ID="1" Type="Shape" Master="2"`, "", "")))
	page := doc.Pages()[0]

	require.NoError(t, page.ApplyContext(map[string]any{"who": "Ann"}))
	assert.Equal(t, "Hi Ann", page.FindShapeByID(1).Text())
	assert.Equal(t, "Hi {{ who }}", doc.Masters()[0].FindShapeByID(1).Text())
}

func TestApplyContextErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		cells []string
	}{
		{"undefined variable", "{{ missing }}", nil},
		{"undefined in set", "{% set self.x = missing %}", nil},
		{"non-numeric geometry", "{% set self.width = 'wide' %}", nil},
		{"unknown field", "{% set self.bogus = 1 %}", nil},
		{"non-numeric cell", "", []string{"PinX", "{{ label }}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, tt.text, tt.cells...)))
			err := doc.Pages()[0].ApplyContext(map[string]any{"label": "abc"})

			var tmplErr *TemplateError
			require.ErrorAs(t, err, &tmplErr)
			assert.True(t, errors.Is(err, ErrTemplate))
			assert.Equal(t, "P", tmplErr.Page)
			assert.Equal(t, 1, tmplErr.ShapeID)
		})
	}

	doc := openFixture(t, fixture.New().Page("P", fixture.Shape(1, "{{ missing }}")))
	err := doc.Pages()[0].ApplyContext(nil)
	assert.ErrorIs(t, err, expression.ErrUndefined)
}

func TestSelfValues(t *testing.T) {
	doc := openFixture(t, fixture.Inheritance())
	self := doc.Pages()[0].FindShapeByID(1).SelfValues()

	assert.Equal(t, 1, self["id"])
	assert.Equal(t, "Master text", self["text"])
	assert.Equal(t, 4.0, self["x"])
	assert.Equal(t, 2.0, self["width"])
	cells := self["cells"].(map[string]any)
	assert.Equal(t, int64(2), cells["Width"])
	assert.Equal(t, 0.01, cells["LineWeight"])
}
