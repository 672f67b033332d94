package markdown

import "strings"

// listFrame is one open list while the line walker runs. Each open list has
// exactly one open <li> at any time; indent is the leading-whitespace
// character count of the items that opened it.
type listFrame struct {
	tag    string // "ul" or "ol"
	indent int
}

// passLists walks the buffer line by line, tracking indentation-based
// nesting. Ordered and unordered markers open <ol>/<ul>; a deeper indent
// opens a nested list inside the current item, a shallower one closes lists
// down to the matching level, and a blank line or end of text closes
// everything. Indentation compares leading-whitespace character counts, not
// tab width. Every opened tag is closed exactly once.
func passLists(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	var stack []listFrame

	closeAll := func() string {
		var sb strings.Builder
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sb.WriteString("</li></" + top.tag + ">")
		}
		return sb.String()
	}

	for _, line := range lines {
		indent, tag, content, ok := matchListItem(line)
		if !ok {
			if len(stack) > 0 && strings.TrimSpace(line) == "" {
				// Attach the closing tags to the last emitted line so the
				// blank line stays blank for the paragraph pass.
				out[len(out)-1] += closeAll()
			}
			out = append(out, line)
			continue
		}

		switch {
		case len(stack) == 0:
			stack = append(stack, listFrame{tag: tag, indent: indent})
			out = append(out, "<"+tag+"><li>"+content)

		case indent > stack[len(stack)-1].indent:
			// Deeper indent: nest a new list inside the open item.
			stack = append(stack, listFrame{tag: tag, indent: indent})
			out = append(out, "<"+tag+"><li>"+content)

		case indent < stack[len(stack)-1].indent:
			var sb strings.Builder
			for len(stack) > 1 && indent < stack[len(stack)-1].indent {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				sb.WriteString("</li></" + top.tag + ">")
			}
			sb.WriteString("</li><li>" + content)
			out = append(out, sb.String())

		default:
			out = append(out, "</li><li>"+content)
		}
	}

	if len(stack) > 0 {
		out[len(out)-1] += closeAll()
	}

	return strings.Join(out, "\n")
}

// matchListItem recognizes a list item line and returns its indentation
// depth, list tag, and content.
func matchListItem(line string) (indent int, tag, content string, ok bool) {
	if m := orderedItemRe.FindStringSubmatch(line); m != nil {
		return len(m[1]), "ol", m[3], true
	}
	if m := unorderedItemRe.FindStringSubmatch(line); m != nil {
		return len(m[1]), "ul", m[3], true
	}
	return 0, "", "", false
}
