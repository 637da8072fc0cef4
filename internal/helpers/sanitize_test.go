package helpers

import "testing"

func TestNormalizeText_RemovesTagsAndScripts(t *testing.T) {
	input := `<p>Hello <strong>world</strong><script>alert('x')</script></p>`
	got := NormalizeText(input)
	want := "Hello world"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	input := "Week 1:\n\n  reading \t list"
	got := NormalizeText(input)
	want := "Week 1: reading list"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeText_DecodesEntities(t *testing.T) {
	input := `<p>Tom &amp; Jerry &lt;3</p>`
	got := NormalizeText(input)
	want := "Tom & Jerry <3"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeText_EmptyInput(t *testing.T) {
	if got := NormalizeText(""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := NormalizeText("   \n\t "); got != "" {
		t.Fatalf("expected empty string for whitespace input, got %q", got)
	}
}

func TestNormalizeText_MalformedMarkupBestEffort(t *testing.T) {
	input := `<div><p>unclosed <b>bold`
	got := NormalizeText(input)
	want := "unclosed bold"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
