package render

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	out, err := Markdown("# Title\n\nsome **bold** text", DefaultOptions())
	if err != nil {
		t.Fatalf("Markdown() returned error: %v", err)
	}
	if !strings.Contains(out, "Title") {
		t.Errorf("rendered output missing heading text:\n%s", out)
	}
}

func TestMarkdownWithWidth(t *testing.T) {
	long := strings.Repeat("word ", 60)
	out, err := MarkdownWithWidth(long, 40)
	if err != nil {
		t.Fatalf("MarkdownWithWidth() returned error: %v", err)
	}

	for _, line := range strings.Split(out, "\n") {
		// Allow slack for ANSI escapes and padding
		if len(stripANSI(line)) > 60 {
			t.Errorf("line exceeds wrapped width: %q", line)
		}
	}
}

func TestRendererPoolReuse(t *testing.T) {
	ClearCache()

	opts := DefaultOptions().WithWidth(72)
	if _, err := Markdown("hello", opts); err != nil {
		t.Fatalf("Markdown() returned error: %v", err)
	}
	if _, err := Markdown("world", opts); err != nil {
		t.Fatalf("Markdown() returned error: %v", err)
	}

	if CacheSize() != 1 {
		t.Errorf("CacheSize() = %d, want 1 for repeated options", CacheSize())
	}

	if _, err := Markdown("wider", opts.WithWidth(100)); err != nil {
		t.Fatalf("Markdown() returned error: %v", err)
	}
	if CacheSize() != 2 {
		t.Errorf("CacheSize() = %d, want 2 after a second configuration", CacheSize())
	}
}

func TestSetTUITheme(t *testing.T) {
	defer SetTUITheme("tokyonight")

	if !SetTUITheme("nord") {
		t.Fatal("SetTUITheme(nord) should succeed")
	}
	if GetTUITheme().Name != "nord" {
		t.Errorf("active theme = %s, want nord", GetTUITheme().Name)
	}

	if SetTUITheme("no-such-theme") {
		t.Error("SetTUITheme should reject unknown names")
	}
	if GetTUITheme().Name != "nord" {
		t.Error("a rejected theme change must not alter the active theme")
	}
}

func TestGetTUIThemeByName(t *testing.T) {
	for _, name := range []string{"tokyonight", "nord", "dracula"} {
		if _, ok := GetTUIThemeByName(name); !ok {
			t.Errorf("built-in theme %q not found", name)
		}
	}
}

// stripANSI removes escape sequences for width checks
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
