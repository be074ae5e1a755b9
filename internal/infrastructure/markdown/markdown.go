// Package markdown переводит ответы LLM из Markdown в HTML.
package markdown

import (
	"bytes"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer не включает html.WithUnsafe: сырой HTML из ответа модели отбрасывается.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *Renderer) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return buf.String(), nil
}
