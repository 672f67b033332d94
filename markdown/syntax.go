package markdown

import (
	"regexp"
	"strings"
)

// rule is one highlighting substitution. Either class wraps the whole match
// in a span, or replace rewrites it with capture groups.
type rule struct {
	re      *regexp.Regexp
	class   string
	replace string
}

// Language rule tables. Rules run in list order over the escaped code, and
// a later rule never matches inside markup inserted by an earlier one
// (comments must win over keywords, keywords over numbers, and so on).
// Patterns are written against entity-escaped text, so quotes appear as
// &quot; / &#039; and angle brackets as &lt; / &gt;.
var languageRules = map[string][]rule{
	"javascript": {
		{re: regexp.MustCompile(`//.*`), class: "code-comment"},
		{re: regexp.MustCompile(`(?s)/\*.*?\*/`), class: "code-comment"},
		{re: regexp.MustCompile(`\b(const|let|var|function|return|if|else|for|while|class|import|export|from|async|await|try|catch|new|this)\b`), class: "code-keyword"},
		{re: regexp.MustCompile("(?s)&quot;.*?&quot;|&#039;.*?&#039;|`.*?`"), class: "code-string"},
		{re: regexp.MustCompile(`\b(true|false|null|undefined)\b`), class: "code-literal"},
		{re: regexp.MustCompile(`\b\d+(\.\d+)?\b`), class: "code-number"},
	},
	"typescript": {
		{re: regexp.MustCompile(`//.*`), class: "code-comment"},
		{re: regexp.MustCompile(`(?s)/\*.*?\*/`), class: "code-comment"},
		{re: regexp.MustCompile(`\b(const|let|var|function|return|if|else|for|while|class|import|export|from|async|await|try|catch|new|this|interface|type|enum)\b`), class: "code-keyword"},
		{re: regexp.MustCompile("(?s)&quot;.*?&quot;|&#039;.*?&#039;|`.*?`"), class: "code-string"},
		{re: regexp.MustCompile(`\b(true|false|null|undefined)\b`), class: "code-literal"},
		{re: regexp.MustCompile(`\b\d+(\.\d+)?\b`), class: "code-number"},
	},
	"html": {
		{re: regexp.MustCompile(`(?s)&lt;!--.*?--&gt;`), class: "code-comment"},
		{re: regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9-]*=)(&quot;[^&]*&quot;)`), replace: `<span class="code-attr">$1</span><span class="code-string">$2</span>`},
		{re: regexp.MustCompile(`&lt;/?[a-zA-Z][a-zA-Z0-9-]*|/?&gt;`), class: "code-tag"},
	},
	"css": {
		{re: regexp.MustCompile(`(?s)/\*.*?\*/`), class: "code-comment"},
		{re: regexp.MustCompile(`[a-zA-Z-]+\s*:`), class: "code-property"},
		{re: regexp.MustCompile(`(#[a-zA-Z0-9-]+|\.[\w-]+)`), class: "code-selector"},
		{re: regexp.MustCompile(`(\w+)(\s*\{)`), replace: `<span class="code-selector">$1</span>$2`},
		{re: regexp.MustCompile(`@\w+\b`), class: "code-keyword"},
		{re: regexp.MustCompile(`\b(inherit|initial|unset|none|block|flex)\b`), class: "code-value"},
	},
	"python": {
		{re: regexp.MustCompile(`#.*`), class: "code-comment"},
		{re: regexp.MustCompile(`\b(def|class|import|from|if|elif|else|for|while|try|except|finally|with|as|return|in|not|and|or|True|False|None|lambda)\b`), class: "code-keyword"},
		{re: regexp.MustCompile(`(?s)&quot;&quot;&quot;.*?&quot;&quot;&quot;|&#039;&#039;&#039;.*?&#039;&#039;&#039;|&quot;.*?&quot;|&#039;.*?&#039;`), class: "code-string"},
		{re: regexp.MustCompile(`\b\d+(\.\d+)?\b`), class: "code-number"},
	},
	// JSON rules match key and value together: a key locks its colon, so a
	// value rule keyed on the colon would never fire afterwards.
	"json": {
		{re: regexp.MustCompile(`(&quot;[^&]*&quot;)(\s*:\s*)(&quot;[^&]*&quot;)`), replace: `<span class="code-key">$1</span>$2<span class="code-string">$3</span>`},
		{re: regexp.MustCompile(`(&quot;[^&]*&quot;)(\s*:\s*)(\d+(\.\d+)?)`), replace: `<span class="code-key">$1</span>$2<span class="code-number">$3</span>`},
		{re: regexp.MustCompile(`(&quot;[^&]*&quot;)(\s*:\s*)(true|false|null)`), replace: `<span class="code-key">$1</span>$2<span class="code-literal">$3</span>`},
		{re: regexp.MustCompile(`(&quot;[^&]*&quot;)(\s*:)`), replace: `<span class="code-key">$1</span>$2`},
	},
	"php": {
		{re: regexp.MustCompile(`//.*|#.*`), class: "code-comment"},
		{re: regexp.MustCompile(`(?s)/\*.*?\*/`), class: "code-comment"},
		{re: regexp.MustCompile(`\b(function|return|if|else|foreach|for|while|class|public|private|protected|echo|include|require|namespace|use|extends|implements|new|try|catch|throw)\b`), class: "code-keyword"},
		{re: regexp.MustCompile(`\$\w+`), class: "code-variable"},
		{re: regexp.MustCompile(`(?s)&quot;.*?&quot;|&#039;.*?&#039;`), class: "code-string"},
		{re: regexp.MustCompile(`\b\d+(\.\d+)?\b`), class: "code-number"},
	},
	"sql": {
		{re: regexp.MustCompile(`--.*`), class: "code-comment"},
		{re: regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|FROM|WHERE|AND|OR|JOIN|LEFT|RIGHT|INNER|OUTER|GROUP BY|ORDER BY|HAVING|AS|ON|COUNT|SUM|AVG|MIN|MAX|UNION|ALL|DISTINCT|CREATE|TABLE|DROP|ALTER|INDEX|VIEW)\b`), class: "code-keyword"},
		{re: regexp.MustCompile(`(?s)&quot;.*?&quot;|&#039;.*?&#039;`), class: "code-string"},
		{re: regexp.MustCompile(`\b\d+(\.\d+)?\b`), class: "code-number"},
	},
}

var languageAliases = map[string]string{
	"js":   "javascript",
	"ts":   "typescript",
	"jsx":  "javascript",
	"tsx":  "typescript",
	"py":   "python",
	"scss": "css",
	"sass": "css",
	"less": "css",
}

// segment is a piece of the code being highlighted. Once a rule has claimed
// a piece, it is locked and later rules skip it.
type segment struct {
	text   string
	locked bool
}

// Highlight entity-escapes code and wraps recognized tokens in class-tagged
// spans. Unknown or missing languages return the escaped code unchanged.
func Highlight(code, language string) string {
	escaped := EscapeHTML(code)

	language = strings.ToLower(language)
	if canonical, ok := languageAliases[language]; ok {
		language = canonical
	}
	rules, ok := languageRules[language]
	if !ok {
		return escaped
	}

	segments := []segment{{text: escaped}}
	for _, r := range rules {
		segments = applyRule(segments, r)
	}

	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.text)
	}
	return sb.String()
}

// applyRule runs one rule over every unlocked segment, splitting matches
// into locked replacement segments.
func applyRule(segments []segment, r rule) []segment {
	var out []segment
	for _, seg := range segments {
		if seg.locked {
			out = append(out, seg)
			continue
		}
		out = append(out, splitSegment(seg.text, r)...)
	}
	return out
}

func splitSegment(text string, r rule) []segment {
	matches := r.re.FindAllStringIndex(text, -1)
	if matches == nil {
		return []segment{{text: text}}
	}

	var out []segment
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, segment{text: text[last:m[0]]})
		}
		matched := text[m[0]:m[1]]
		var replaced string
		if r.replace != "" {
			replaced = r.re.ReplaceAllString(matched, r.replace)
		} else {
			replaced = `<span class="` + r.class + `">` + matched + `</span>`
		}
		out = append(out, segment{text: replaced, locked: true})
		last = m[1]
	}
	if last < len(text) {
		out = append(out, segment{text: text[last:]})
	}
	return out
}
