package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/fwsm/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if result := htmlsanitize.Sanitize(""); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if result := htmlsanitize.Sanitize(input); result != input {
		t.Errorf("expected safe HTML preserved, got %q", result)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	result := htmlsanitize.Sanitize("<p>Hello</p><script>alert('xss')</script>")
	if result != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", result)
	}
}

func TestSanitize_RemovesDangerousAttributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		gone  string
	}{
		{"onclick", `<button onclick="alert('xss')">Click</button>`, "onclick"},
		{"onerror", `<img src="x" onerror="alert('xss')">`, "onerror"},
		{"javascript href", `<a href="javascript:alert('xss')">Click</a>`, "javascript:"},
		{"data url", `<img src="data:text/html,<script>alert('xss')</script>">`, "data:text/html"},
		{"iframe", `<p>Content</p><iframe src="https://evil.com"></iframe>`, "iframe"},
		{"style tag", `<style>body { color: red; }</style><p>Text</p>`, "<style>"},
		{"form", `<form action="/submit"><input type="text" name="data"></form>`, "<input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := htmlsanitize.Sanitize(tt.input); strings.Contains(result, tt.gone) {
				t.Errorf("expected %q removed, got %q", tt.gone, result)
			}
		})
	}
}

func TestSanitize_KeepsRichText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		keep  []string
	}{
		{"link", `<a href="https://example.com">Link</a>`, []string{`href="https://example.com"`, `target="_blank"`}},
		{"lists", "<ul><li>Item 1</li><li>Item 2</li></ul>", []string{"<ul><li>Item 1</li><li>Item 2</li></ul>"}},
		{"headings", "<h2>Heading 2</h2><h3>Heading 3</h3>", []string{"<h2>Heading 2</h2>", "<h3>Heading 3</h3>"}},
		{"formatting", "<u>u</u> <s>s</s> <sup>sup</sup> <mark>mark</mark>", []string{"<u>u</u>", "<sup>sup</sup>", "<mark>mark</mark>"}},
		{"table", `<table class="t"><tr><td colspan="2" style="text-align:center">Cell</td></tr></table>`, []string{`class="t"`, `colspan="2"`, "style="}},
		{"image", `<img src="https://example.com/image.png" alt="Image">`, []string{"src=", "alt="}},
		{"breaks", "Line 1<br>Line 2<hr>", []string{"<br", "<hr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := htmlsanitize.Sanitize(tt.input)
			for _, want := range tt.keep {
				if !strings.Contains(result, want) {
					t.Errorf("expected %q in %q", want, result)
				}
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	tests := map[string]bool{
		"":              true,
		"Hello, World!": true,
		"<p>Hello</p>":  false,
		"5 < 10":        true,
		"5 > 3":         true,
	}
	for in, want := range tests {
		if got := htmlsanitize.IsPlainText(in); got != want {
			t.Errorf("IsPlainText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Hello, World!", "<p>Hello, World!</p>"},
		{"Line 1\nLine 2\nLine 3", "<p>Line 1<br>Line 2<br>Line 3</p>"},
		{"First\n\nSecond", "<p>First</p>\n<p>Second</p>"},
		{"A & B", "<p>A &amp; B</p>"},
		{"<b>x</b>", "<p>&lt;b&gt;x&lt;/b&gt;</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PlainTextToHTML(tt.in); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want template.HTML
	}{
		{"", ""},
		{"Hello, World!", "<p>Hello, World!</p>"},
		{"Line 1\nLine 2", "<p>Line 1<br>Line 2</p>"},
		{"<p>Hello</p>", "<p>Hello</p>"},
		{"<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PrepareForDisplay(tt.in); got != tt.want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestText_Nil(t *testing.T) {
	if got := htmlsanitize.Text(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	s := "plain"
	if got := htmlsanitize.Text(&s); got != "<p>plain</p>" {
		t.Errorf("got %q", got)
	}
}
