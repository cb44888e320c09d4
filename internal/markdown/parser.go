package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

// Document is one rendered content page.
type Document struct {
	HTML []byte
	// Meta holds the YAML frontmatter; empty when the block is missing or malformed.
	Meta map[string]any
	// Heading is the text of the first level-one heading, if any.
	Heading string
}

// Parser renders content pages. Raw HTML in the source is dropped.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer, &frontmatter.Extender{}),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(goldmarkhtml.WithXHTML()),
	)}
}

func (p *Parser) Parse(source []byte) (*Document, error) {
	pctx := parser.NewContext()
	root := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	var buf bytes.Buffer
	err := p.md.Renderer().Render(&buf, source, root)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		HTML:    buf.Bytes(),
		Meta:    map[string]any{},
		Heading: firstHeading(root, source),
	}
	if data := frontmatter.Get(pctx); data != nil {
		if err := data.Decode(&doc.Meta); err != nil {
			doc.Meta = map[string]any{}
		}
	}
	return doc, nil
}

func firstHeading(root ast.Node, source []byte) string {
	var heading string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		heading = plainText(h, source)
		return ast.WalkStop, nil
	})
	return heading
}

// plainText concatenates the text segments below n, dropping inline markup.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
