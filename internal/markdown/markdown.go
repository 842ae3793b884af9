// Package markdown turns writing text into HTML and plain-text excerpts.
package markdown

import (
	stdhtml "html"
	"html/template"
	"io"
	"net/url"
	"strings"
	"unicode"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	md "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const (
	parserExtensions = parser.CommonExtensions | parser.AutoHeadingIDs
	breakSearchRatio = 0.8
	ellipsis         = "..."
)

type Options struct {
	// SiteHost marks links to this host as internal: they open in place and
	// keep referrer information.
	SiteHost string
}

func ToHTML(input string, opts Options) template.HTML {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	doc := parser.NewWithExtensions(parserExtensions).Parse([]byte(input))
	markExternalLinks(doc, strings.ToLower(strings.TrimSpace(opts.SiteHost)))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink,
		RenderNodeHook: renderCode,
	})

	return template.HTML(md.Render(doc, renderer))
}

// Excerpt returns the readable text of a writing cut to maxChars runes,
// preferring a word boundary near the end.
func Excerpt(input string, maxChars int) string {
	if maxChars < 1 || strings.TrimSpace(input) == "" {
		return ""
	}

	text := PlainText(input)
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	cut := maxChars
	for idx := maxChars - 1; idx >= int(float64(maxChars)*breakSearchRatio); idx-- {
		if unicode.IsSpace(runes[idx]) {
			cut = idx
			break
		}
	}

	return strings.TrimSpace(string(runes[:cut])) + ellipsis
}

// PlainText drops markup, images, code blocks and raw HTML, keeping link
// labels and inline code.
func PlainText(input string) string {
	doc := parser.NewWithExtensions(parserExtensions).Parse([]byte(input))

	var builder strings.Builder
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			if isBlock(node) {
				builder.WriteByte(' ')
			}
			return ast.GoToNext
		}

		switch n := node.(type) {
		case *ast.CodeBlock, *ast.Image, *ast.HTMLBlock, *ast.HTMLSpan, *ast.Table:
			return ast.SkipChildren
		case *ast.Text:
			builder.Write(n.Literal)
		case *ast.Code:
			builder.Write(n.Literal)
		case *ast.Softbreak, *ast.Hardbreak:
			builder.WriteByte(' ')
		}
		return ast.GoToNext
	})

	return strings.Join(strings.Fields(builder.String()), " ")
}

func isBlock(node ast.Node) bool {
	switch node.(type) {
	case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.BlockQuote:
		return true
	}
	return false
}

func markExternalLinks(doc ast.Node, siteHost string) {
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		link, ok := node.(*ast.Link)
		if !entering || !ok {
			return ast.GoToNext
		}

		if !isExternal(string(link.Destination), siteHost) {
			return ast.GoToNext
		}

		attrs := make([]string, 0, len(link.AdditionalAttributes)+2)
		for _, attr := range link.AdditionalAttributes {
			lowered := strings.ToLower(strings.TrimSpace(attr))
			if strings.HasPrefix(lowered, "target=") || strings.HasPrefix(lowered, "rel=") {
				continue
			}
			attrs = append(attrs, attr)
		}
		link.AdditionalAttributes = append(attrs, `target="_blank"`, `rel="noopener noreferrer"`)
		return ast.GoToNext
	})
}

func isExternal(href string, siteHost string) bool {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil || parsed.Host == "" {
		return false
	}

	return siteHost == "" || !strings.EqualFold(parsed.Host, siteHost)
}

func renderCode(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	if !entering {
		return ast.GoToNext, false
	}

	switch n := node.(type) {
	case *ast.CodeBlock:
		highlight(w, string(n.Literal), codeLanguage(n.Info))
		return ast.SkipChildren, true
	case *ast.Code:
		_, _ = io.WriteString(w, `<code class="inline-code">`+stdhtml.EscapeString(string(n.Literal))+`</code>`)
		return ast.SkipChildren, true
	}
	return ast.GoToNext, false
}

func highlight(w io.Writer, code string, language string) {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err == nil {
		formatter := chromahtml.New(chromahtml.WithClasses(true))
		if err = formatter.Format(w, styles.Fallback, iterator); err == nil {
			return
		}
	}

	_, _ = io.WriteString(w, `<pre class="chroma"><code>`+stdhtml.EscapeString(code)+`</code></pre>`)
}

func codeLanguage(info []byte) string {
	fields := strings.Fields(string(info))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
