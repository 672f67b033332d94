// Package markdown renders the Markdown subset the chat emits into sanitized
// HTML fragments.
//
// The renderer is a fixed multi-pass pipeline over a working buffer: code
// spans are extracted into placeholder tokens first, structural transforms
// (headings, emphasis, blockquotes, lists, links, paragraphs) run on the
// entity-escaped remainder, and the code spans are restored last with their
// content escaped independently by the highlighter. Pass order is part of
// the contract; each pass is a named function so it can be tested in
// isolation.
//
// The output never contains an unescaped user-supplied '<' or '>' outside
// the tags the renderer itself generates.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(\\w*)(.*?)```")
	inlineCodeRe  = regexp.MustCompile("`([^`]+)`")

	heading3Re = regexp.MustCompile(`(?m)^### (.*)$`)
	heading2Re = regexp.MustCompile(`(?m)^## (.*)$`)
	heading1Re = regexp.MustCompile(`(?m)^# (.*)$`)

	boldRe = regexp.MustCompile(`\*\*(.+?)\*\*`)
	// Italic must not consume ** sequences: bold runs first, and the
	// pattern forbids '*' inside the span and whitespace at its edges.
	italicRe = regexp.MustCompile(`\*([^*\s](?:[^*\n]*[^*\s])?)\*`)

	blockquoteRe = regexp.MustCompile(`(?m)^&gt; (.+)$`)

	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	paragraphBreakRe = regexp.MustCompile(`\n\s*\n`)
	listOpenFixRe    = regexp.MustCompile(`<p><(ul|ol)>`)
	listCloseFixRe   = regexp.MustCompile(`</(ul|ol)></p>`)

	orderedItemRe   = regexp.MustCompile(`^(\s*)(\d+)\.\s+(.+)$`)
	unorderedItemRe = regexp.MustCompile(`^(\s*)([*+-])\s+(.+)$`)
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML entity-escapes the five HTML-special characters.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// codeBlock is a fenced block lifted out of the buffer before the
// structural passes run.
type codeBlock struct {
	language string
	code     string
}

// renderBuffer is the working state of one Render call. The placeholder
// tokens embed a per-call UUID so they cannot collide with user content,
// and each token is restored exactly once, in extraction order.
type renderBuffer struct {
	text        string
	marker      string
	codeBlocks  []codeBlock
	inlineCodes []string
}

// Render converts raw Markdown text to a sanitized HTML fragment. It is
// pure and deterministic; rendering the same input twice yields identical
// output.
func Render(text string) string {
	if text == "" {
		return ""
	}

	b := &renderBuffer{text: text, marker: uuid.NewString()}

	b.extractCodeBlocks()
	b.extractInlineCode()
	b.text = EscapeHTML(b.text)
	b.text = passHeadings(b.text)
	b.text = passEmphasis(b.text)
	b.text = passBlockquotes(b.text)
	b.text = passLists(b.text)
	b.text = passLinks(b.text)
	b.text = passParagraphs(b.text)
	b.restoreCodeBlocks()
	b.restoreInlineCode()

	return b.text
}

func (b *renderBuffer) blockToken(i int) string {
	return fmt.Sprintf("{{CB-%s-%d}}", b.marker, i)
}

func (b *renderBuffer) inlineToken(i int) string {
	return fmt.Sprintf("{{IC-%s-%d}}", b.marker, i)
}

func (b *renderBuffer) extractCodeBlocks() {
	b.text = fencedBlockRe.ReplaceAllStringFunc(b.text, func(match string) string {
		sub := fencedBlockRe.FindStringSubmatch(match)
		token := b.blockToken(len(b.codeBlocks))
		b.codeBlocks = append(b.codeBlocks, codeBlock{
			language: sub[1],
			code:     strings.TrimSpace(sub[2]),
		})
		return token
	})
}

func (b *renderBuffer) extractInlineCode() {
	b.text = inlineCodeRe.ReplaceAllStringFunc(b.text, func(match string) string {
		sub := inlineCodeRe.FindStringSubmatch(match)
		token := b.inlineToken(len(b.inlineCodes))
		b.inlineCodes = append(b.inlineCodes, sub[1])
		return token
	})
}

// passHeadings converts #, ##, ### line prefixes. Longest marker first so
// "###" is never half-consumed by the "#" rule.
func passHeadings(text string) string {
	text = heading3Re.ReplaceAllString(text, "<h3>$1</h3>")
	text = heading2Re.ReplaceAllString(text, "<h2>$1</h2>")
	text = heading1Re.ReplaceAllString(text, "<h1>$1</h1>")
	return text
}

// passEmphasis applies bold before italic so the italic rule never eats a
// "**" pair.
func passEmphasis(text string) string {
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	return text
}

// passBlockquotes runs after escaping, so the quote marker to match is the
// escaped "&gt;".
func passBlockquotes(text string) string {
	return blockquoteRe.ReplaceAllString(text, "<blockquote>$1</blockquote>")
}

// passLinks rewrites [text](url) into anchors that open in a new tab
// without handing the opener to the target.
func passLinks(text string) string {
	return linkRe.ReplaceAllString(text, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)
}

// passParagraphs turns blank-line-separated runs into <p> blocks and strips
// the spurious paragraph tags the wrap leaves around list markup.
func passParagraphs(text string) string {
	text = paragraphBreakRe.ReplaceAllString(text, "</p><p>")
	if !strings.HasPrefix(text, "<ul") && !strings.HasPrefix(text, "<ol") {
		text = "<p>" + text + "</p>"
	}
	text = listOpenFixRe.ReplaceAllString(text, "<$1>")
	text = listCloseFixRe.ReplaceAllString(text, "</$1>")
	return text
}

func (b *renderBuffer) restoreCodeBlocks() {
	for i, block := range b.codeBlocks {
		b.text = strings.Replace(b.text, b.blockToken(i), renderCodeBlock(block), 1)
	}
}

func (b *renderBuffer) restoreInlineCode() {
	for i, code := range b.inlineCodes {
		html := `<code class="inline-code">` + EscapeHTML(code) + `</code>`
		b.text = strings.Replace(b.text, b.inlineToken(i), html, 1)
	}
}

// renderCodeBlock produces the labeled container: language badge, copy and
// collapse controls, and the highlighted <pre><code> body. The buttons are
// bare hooks; the page script binds their behavior.
func renderCodeBlock(block codeBlock) string {
	languageClass := ""
	languageLabel := ""
	if block.language != "" {
		languageClass = ` class="language-` + block.language + `"`
		languageLabel = `<div class="code-language">` + block.language + `</div>`
	}

	var sb strings.Builder
	sb.WriteString(`<div class="code-block-container">`)
	sb.WriteString(`<div class="code-block-header">`)
	sb.WriteString(languageLabel)
	sb.WriteString(`<div class="code-block-actions">`)
	sb.WriteString(`<button class="code-copy-btn" title="Copy code"></button>`)
	sb.WriteString(`<button class="code-collapse-btn" title="Collapse code"></button>`)
	sb.WriteString(`</div></div>`)
	sb.WriteString("<pre" + languageClass + "><code>")
	sb.WriteString(Highlight(block.code, block.language))
	sb.WriteString("</code></pre></div>")
	return sb.String()
}
