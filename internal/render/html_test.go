package render

import (
	"strings"
	"testing"
)

func TestHTML(t *testing.T) {
	out, err := HTML("# Title\n\nsome *emphasis*\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<h1>Title</h1>") {
		t.Errorf("missing heading in %q", out)
	}
	if !strings.Contains(out, "<em>emphasis</em>") {
		t.Errorf("missing emphasis in %q", out)
	}
}

func TestHTML_EmptyContent(t *testing.T) {
	out, err := HTML("")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
