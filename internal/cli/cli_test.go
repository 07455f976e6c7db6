package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/vsdx-go/internal/fixture"
	"github.com/ukaji3/vsdx-go/pkg/vsdx"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func shapeTexts(t *testing.T, path string, page int) []string {
	t.Helper()
	doc, err := vsdx.Open(path)
	require.NoError(t, err)
	var out []string
	for _, s := range doc.Pages()[page].Shapes() {
		out = append(out, s.Text())
	}
	return out
}

func templateFixture(dir string) string {
	return fixture.New().
		Page("Cover", fixture.Shape(1, "{% for x in xs %}{{ x }}")+fixture.Shape(2, "Hello {{ name }}")).
		Page("Other", fixture.Shape(1, "{{ name }}")).
		WriteFile(dir)
}

func TestInfo(t *testing.T) {
	input := fixture.Inheritance().WriteFile(t.TempDir())

	out, _, err := execute(t, "info", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Page-1")
	assert.Contains(t, out, "Masters:")
	assert.Contains(t, out, "Box")
}

func TestInfoMissingFile(t *testing.T) {
	_, _, err := execute(t, "info", filepath.Join(t.TempDir(), "nope.vsdx"))
	assert.ErrorContains(t, err, "file not found")
}

func TestRenderYAMLContext(t *testing.T) {
	dir := t.TempDir()
	input := templateFixture(dir)
	ctxPath := writeFile(t, dir, "ctx.yaml", "xs: [a, b]\nname: World\n")
	output := filepath.Join(dir, "out.vsdx")

	_, logs, err := execute(t, "render", input, "-c", ctxPath, "-o", output, "-v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "Hello World"}, shapeTexts(t, output, 0))
	assert.Equal(t, []string{"World"}, shapeTexts(t, output, 1))
	assert.Contains(t, logs, "Rendered 2 pages")
}

func TestRenderJSONCContextAndSets(t *testing.T) {
	dir := t.TempDir()
	input := templateFixture(dir)
	ctxPath := writeFile(t, dir, "ctx.jsonc", `{
		// loop items
		"xs": [1, 2, 3],
		"name": "ignored",
	}`)

	_, _, err := execute(t, "render", input, "-c", ctxPath, "--set", "name=Ann")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "Hello Ann"}, shapeTexts(t, derivedPath(input, "rendered"), 0))
}

func TestRenderSinglePage(t *testing.T) {
	dir := t.TempDir()
	input := templateFixture(dir)
	output := filepath.Join(dir, "out.vsdx")

	_, _, err := execute(t, "render", input, "--page", "Other", "--set", "name=Bo", "-o", output)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bo"}, shapeTexts(t, output, 1))
	assert.Equal(t, []string{"{% for x in xs %}{{ x }}", "Hello {{ name }}"}, shapeTexts(t, output, 0))
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	input := templateFixture(dir)

	_, _, err := execute(t, "render", input)
	assert.ErrorIs(t, err, vsdx.ErrTemplate)

	_, _, err = execute(t, "render", input, "--set", "novalue")
	assert.ErrorContains(t, err, "expected name=value")

	_, _, err = execute(t, "render", input, "-c", writeFile(t, dir, "ctx.txt", "xs"))
	assert.ErrorContains(t, err, "unsupported format")

	_, _, err = execute(t, "render", input, "--page", "Missing", "--set", "name=x")
	assert.ErrorIs(t, err, vsdx.ErrNotFound)
}

func TestReplace(t *testing.T) {
	dir := t.TempDir()
	input := fixture.Connectors().WriteFile(dir)

	out, _, err := execute(t, "replace", input, "--find", "Shape", "--replace", "Box")
	require.NoError(t, err)
	assert.Equal(t, "3 shapes updated\n", out)
	texts := shapeTexts(t, input, 0)
	assert.Equal(t, []string{"Box A", "Box B", "Box C"}, texts[:3])

	_, _, err = execute(t, "replace", input, "--replace", "x")
	assert.Error(t, err)
}

func TestInventoryJSON(t *testing.T) {
	input := fixture.Connectors().WriteFile(t.TempDir())

	out, _, err := execute(t, "inventory", input, "--mode", "light")
	require.NoError(t, err)
	assert.Contains(t, out, `"file_name":"fixture.vsdx"`)
	assert.NotContains(t, out, `"connects"`)

	_, _, err = execute(t, "inventory", input, "--mode", "full")
	assert.ErrorContains(t, err, "invalid mode")
}

func TestInventoryFiles(t *testing.T) {
	dir := t.TempDir()
	input := fixture.Connectors().WriteFile(dir)

	jsonPath := filepath.Join(dir, "inv.json")
	_, _, err := execute(t, "inventory", input, "-o", jsonPath, "--pretty")
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"file_name\""))

	xlsxPath := filepath.Join(dir, "inv.xlsx")
	_, _, err = execute(t, "inventory", input, "-o", xlsxPath)
	require.NoError(t, err)
	assert.FileExists(t, xlsxPath)
}

func TestConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	input := fixture.Connectors().WriteFile(dir)
	cfg := writeFile(t, dir, "vsdx.toml", "[inventory]\npretty = true\nmode = \"verbose\"\n")

	out, _, err := execute(t, "--config", cfg, "inventory", input)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"file_name\"")
	assert.Contains(t, out, `"w": 96`)

	out, _, err = execute(t, "--config", cfg, "inventory", input, "--pretty=false")
	require.NoError(t, err)
	assert.NotContains(t, out, "\n  ")
}
