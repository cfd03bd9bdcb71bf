package web

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeStyle is the chroma style used for fenced code in topic content.
const codeStyle = "github"

func newFormatter() *chromahtml.Formatter {
	return chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.TabWidth(4),
		chromahtml.WrapLongLines(true),
	)
}

func codeChromaStyle() *chroma.Style {
	style := styles.Get(codeStyle)
	if style == nil {
		style = styles.Fallback
	}
	return style
}

// newMarkdown returns a goldmark converter whose fenced code blocks are
// highlighted by chroma with CSS classes (inline styles would break the CSP).
func newMarkdown() goldmark.Markdown {
	hl := &codeHighlighter{formatter: newFormatter(), style: codeChromaStyle()}
	return goldmark.New(
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(hl, 100)),
		),
	)
}

// highlightCSS is the stylesheet for the classes emitted by newMarkdown.
func highlightCSS() ([]byte, error) {
	var buf bytes.Buffer
	if err := newFormatter().WriteCSS(&buf, codeChromaStyle()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type codeHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func (h *codeHighlighter) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, h.renderFencedCode)
}

func (h *codeHighlighter) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	lexer := lexers.Get(string(n.Language(source)))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code.String())
	if err != nil {
		return ast.WalkStop, err
	}
	if err := h.formatter.Format(w, h.style, iterator); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
