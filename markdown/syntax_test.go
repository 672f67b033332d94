package markdown

import (
	"strings"
	"testing"
)

func TestHighlightUnknownLanguage(t *testing.T) {
	code := `if x < 10 { print("hi") }`
	want := EscapeHTML(code)

	for _, lang := range []string{"", "brainfuck", "cobol"} {
		if got := Highlight(code, lang); got != want {
			t.Errorf("Highlight(%q, %q) = %q, want escaped input unchanged", code, lang, got)
		}
	}
}

func TestHighlightJavaScript(t *testing.T) {
	code := "// greet\nconst msg = 'hello';\nreturn 42;"
	got := Highlight(code, "javascript")

	if !strings.Contains(got, `<span class="code-comment">// greet</span>`) {
		t.Errorf("missing comment span: %q", got)
	}
	if !strings.Contains(got, `<span class="code-keyword">const</span>`) {
		t.Errorf("missing keyword span: %q", got)
	}
	if !strings.Contains(got, `<span class="code-string">&#039;hello&#039;</span>`) {
		t.Errorf("missing string span: %q", got)
	}
	if !strings.Contains(got, `<span class="code-number">42</span>`) {
		t.Errorf("missing number span: %q", got)
	}
}

func TestHighlightCommentWinsOverKeyword(t *testing.T) {
	got := Highlight("// return nothing", "javascript")

	if !strings.Contains(got, `<span class="code-comment">// return nothing</span>`) {
		t.Errorf("comment not claimed whole: %q", got)
	}
	if strings.Contains(got, "code-keyword") {
		t.Errorf("keyword rule matched inside a comment: %q", got)
	}
}

func TestHighlightRulesNeverNest(t *testing.T) {
	// The string span's class attribute contains quotes; later string rules
	// must not re-match inside inserted markup.
	got := Highlight(`a = "one"; b = "two"; n = 3`, "python")

	if strings.Count(got, "<span") != strings.Count(got, "</span>") {
		t.Errorf("span tags unbalanced: %q", got)
	}
	if strings.Contains(got, "<span class=\"code-string\"><span") {
		t.Errorf("nested spans: %q", got)
	}
}

func TestHighlightAliases(t *testing.T) {
	tests := []struct {
		alias     string
		canonical string
	}{
		{"js", "javascript"},
		{"ts", "typescript"},
		{"py", "python"},
		{"scss", "css"},
	}

	for _, tt := range tests {
		code := "// c\nreturn 1"
		if tt.alias == "py" {
			code = "# c\nreturn 1"
		}
		got := Highlight(code, tt.alias)
		want := Highlight(code, tt.canonical)
		if got != want {
			t.Errorf("alias %q differs from %q:\n%q\n%q", tt.alias, tt.canonical, got, want)
		}
	}
}

func TestHighlightJSONKeysAndValues(t *testing.T) {
	got := Highlight(`{"count": 3, "ok": true, "name": "x"}`, "json")

	if !strings.Contains(got, `<span class="code-key">&quot;name&quot;</span>`) {
		t.Errorf("missing key span: %q", got)
	}
	if !strings.Contains(got, `<span class="code-string">&quot;x&quot;</span>`) {
		t.Errorf("missing value string span: %q", got)
	}
	if !strings.Contains(got, `<span class="code-number">3</span>`) {
		t.Errorf("missing number span: %q", got)
	}
	if !strings.Contains(got, `<span class="code-literal">true</span>`) {
		t.Errorf("missing literal span: %q", got)
	}
}

func TestHighlightSQLCaseInsensitiveKeywords(t *testing.T) {
	got := Highlight("select id from users", "sql")
	if !strings.Contains(got, `<span class="code-keyword">select</span>`) {
		t.Errorf("lowercase keyword not matched: %q", got)
	}
}

func TestHighlightEscapesCode(t *testing.T) {
	got := Highlight(`<div class="x">`, "html")
	if strings.Contains(got, `<div`) {
		t.Errorf("raw tag leaked: %q", got)
	}
	if !strings.Contains(got, "&lt;") {
		t.Errorf("angle brackets not escaped: %q", got)
	}
}
