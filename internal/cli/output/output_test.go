package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"text", ModeText},
		{"Markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{" json ", ModeJSON},
		{"auto", ModeAuto},
		{"", ModeAuto},
		{"html", ModeAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mode(tt.in), tt.in)
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty piped", "", false, ModeMarkdown},
		{"text piped", ModeText, false, ModeText},
		{"json on terminal", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.Equal(t, tt.isTTY, r.IsTTY())
		})
	}
}

func TestNewRenderer_NotATerminal(t *testing.T) {
	r := NewRenderer(new(bytes.Buffer), new(bytes.Buffer), ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(2, "Results")
	r.Success("done")
	r.Table([]string{"Name", "Value"}, [][]string{{"total", "41.25"}})
	r.Warning("careful")
	r.Error("broken")

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "## Results\n\n"))
	assert.Contains(t, s, "**OK** done")
	assert.Contains(t, s, "| Name | Value |")
	assert.Contains(t, s, "| total | 41.25 |")
	assert.NotContains(t, s, "\x1b[")

	assert.Contains(t, errOut.String(), "warning: careful")
	assert.Contains(t, errOut.String(), "error: broken")
}

func TestRenderer_TextWithoutTerminal(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)

	r.Header(1, "Tokens")
	r.Success("ok")
	r.Table([]string{"A"}, [][]string{{"1"}})

	s := out.String()
	assert.Contains(t, s, "Tokens")
	assert.Contains(t, s, "✓ ok")
	assert.Contains(t, s, "┌")
	assert.NotContains(t, s, "\x1b[", "no escape codes without a terminal")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(FunctionInfo{Name: "ROUND", Family: "math"}))
	assert.Equal(t, "{\n  \"name\": \"ROUND\",\n  \"family\": \"math\"\n}\n", out.String())
}

func TestRenderer_StatusLine(t *testing.T) {
	md, mdOut, _ := newTestRenderer(ModeMarkdown, false)
	md.StatusLine("sisuo.yaml", "success", "created")
	md.StatusLine("scripts", "skipped", "")
	assert.Equal(t, "- [success] sisuo.yaml (created)\n- [skipped] scripts\n", mdOut.String())

	text, textOut, _ := newTestRenderer(ModeText, false)
	text.StatusLine("sisuo.yaml", "success", "created")
	text.StatusLine("main.ss", "error", "")
	assert.Equal(t, "✓ sisuo.yaml  created\n✗ main.ss\n", textOut.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Deep", FormatHeader(3, "Deep"))
	assert.Equal(t, "# Clamped", FormatHeader(0, "Clamped"))
	assert.Equal(t, "- **Total**: 5", FormatKeyValue("Total", "5"))
}
