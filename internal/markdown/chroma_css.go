package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	DefaultLightTheme = "github"
	DefaultDarkTheme  = "monokai"
)

var codeCSSCache sync.Map

// CodeCSS returns the highlighting stylesheet for code blocks, switching
// between the two themes with the reader's color scheme. Unknown theme names
// fall back to the default chroma style.
func CodeCSS(lightTheme string, darkTheme string) template.CSS {
	key := lightTheme + "|" + darkTheme
	if cached, ok := codeCSSCache.Load(key); ok {
		return cached.(template.CSS)
	}

	var out strings.Builder
	writeSchemeBlock(&out, "light", lightTheme)
	writeSchemeBlock(&out, "dark", darkTheme)

	css := template.CSS(out.String())
	codeCSSCache.Store(key, css)
	return css
}

func writeSchemeBlock(out *strings.Builder, scheme string, theme string) {
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	var buffer bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buffer, style); err != nil || buffer.Len() == 0 {
		return
	}

	out.WriteString("@media (prefers-color-scheme: " + scheme + ") {\n")
	out.Write(buffer.Bytes())
	out.WriteString("}\n")
}
