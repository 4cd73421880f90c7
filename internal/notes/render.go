package notes

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Renderers are intentionally minimal: synthesized notes are constrained
// to headings, bullet lists, links, inline code, and bold, and should
// remain so. Given identical input they produce byte-identical output.

var (
	markdownStrongRE = regexp.MustCompile(`\*\*(.+?)\*\*`)
	markdownLinkRE   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	inlineCodeRE     = regexp.MustCompile("`([^`]+)`")
	spaceRunRE       = regexp.MustCompile(`[ \t]+`)
	blankRunRE       = regexp.MustCompile(`\n{3,}`)
)

// ToPlaintext renders validated notes markdown as email/blog-ready text.
func ToPlaintext(markdown string) string {
	var rendered []string
	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			rendered = append(rendered, "")
		case strings.HasPrefix(line, "## "):
			rendered = append(rendered, inlineToPlaintext(line[3:]), "")
		case strings.HasPrefix(line, "- "):
			rendered = append(rendered, "- "+inlineToPlaintext(line[2:]))
		default:
			rendered = append(rendered, inlineToPlaintext(line))
		}
	}
	text := strings.TrimSpace(strings.Join(rendered, "\n"))
	if text == "" {
		return ""
	}
	return blankRunRE.ReplaceAllString(text, "\n\n")
}

func inlineToPlaintext(text string) string {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return ""
	}
	stripped = markdownLinkRE.ReplaceAllStringFunc(stripped, func(match string) string {
		m := markdownLinkRE.FindStringSubmatch(match)
		label := strings.TrimSpace(m[1])
		href := strings.TrimSpace(m[2])
		if href == "" {
			return label
		}
		return label + " (" + href + ")"
	})
	stripped = inlineCodeRE.ReplaceAllString(stripped, "$1")
	stripped = markdownStrongRE.ReplaceAllString(stripped, "$1")
	stripped = strings.NewReplacer("*", "", "_", "").Replace(stripped)
	return strings.TrimSpace(spaceRunRE.ReplaceAllString(stripped, " "))
}

// safeLinkHref returns the href when it uses http or https, else "".
func safeLinkHref(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return trimmed
	}
	return ""
}

// ToHTMLFragment renders validated notes markdown as an HTML fragment
// (h2/ul/li/p). Only http and https hrefs survive as anchors; everything
// outside links, inline code, and strong is escaped.
func ToHTMLFragment(markdown string) string {
	var rendered []string
	inList := false
	closeList := func() {
		if inList {
			rendered = append(rendered, "</ul>")
			inList = false
		}
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			closeList()
		case strings.HasPrefix(line, "## "):
			closeList()
			rendered = append(rendered, "<h2>"+inlineToHTML(strings.TrimSpace(line[3:]))+"</h2>")
		case strings.HasPrefix(line, "- "):
			if !inList {
				rendered = append(rendered, "<ul>")
				inList = true
			}
			rendered = append(rendered, "<li>"+inlineToHTML(strings.TrimSpace(line[2:]))+"</li>")
		default:
			closeList()
			rendered = append(rendered, "<p>"+inlineToHTML(line)+"</p>")
		}
	}
	closeList()
	return strings.TrimSpace(strings.Join(rendered, "\n"))
}

// inlineToHTML walks the text once, handling strong, inline code, and
// links; every other character is escaped.
func inlineToHTML(text string) string {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if strings.HasPrefix(text[i:], "**") {
			if end := strings.Index(text[i+2:], "**"); end != -1 {
				out.WriteString("<strong>" + html.EscapeString(text[i+2:i+2+end]) + "</strong>")
				i += end + 4
				continue
			}
		}
		if text[i] == '`' {
			if end := strings.IndexByte(text[i+1:], '`'); end != -1 {
				out.WriteString("<code>" + html.EscapeString(text[i+1:i+1+end]) + "</code>")
				i += end + 2
				continue
			}
		}
		if text[i] == '[' {
			if mid := strings.Index(text[i+1:], "]("); mid != -1 {
				labelEnd := i + 1 + mid
				if end := strings.IndexByte(text[labelEnd+2:], ')'); end != -1 {
					label := text[i+1 : labelEnd]
					href := text[labelEnd+2 : labelEnd+2+end]
					if safe := safeLinkHref(href); safe != "" {
						out.WriteString(`<a href="` + html.EscapeString(safe) + `">` + html.EscapeString(label) + "</a>")
					} else {
						out.WriteString(html.EscapeString(label))
						if strings.TrimSpace(href) != "" {
							out.WriteString(" (" + html.EscapeString(strings.TrimSpace(href)) + ")")
						}
					}
					i = labelEnd + 2 + end + 1
					continue
				}
			}
		}
		out.WriteString(html.EscapeString(string(text[i])))
		i++
	}
	return out.String()
}
