package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatterAndTables(t *testing.T) {
	doc, err := NewParser().Parse([]byte("---\ntitle: About\norder: 2\n---\n## Who we are\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)

	assert.Equal(t, "About", doc.Meta["title"])
	assert.Contains(t, string(doc.HTML), `<h2 id="who-we-are">Who we are</h2>`)
	assert.Contains(t, string(doc.HTML), "<table>")
	assert.NotContains(t, string(doc.HTML), "title: About")
	assert.Empty(t, doc.Heading, "only level-one headings count")
}

func TestParseWithoutFrontmatter(t *testing.T) {
	doc, err := NewParser().Parse([]byte("Hello <script>x()</script> **world**"))
	require.NoError(t, err)
	assert.Empty(t, doc.Meta)
	assert.Contains(t, string(doc.HTML), "<strong>world</strong>")
	assert.NotContains(t, string(doc.HTML), "<script>")
}

func TestParseFirstHeading(t *testing.T) {
	doc, err := NewParser().Parse([]byte("intro\n\n# Cookie *Policy*\n\n# Second\n"))
	require.NoError(t, err)
	assert.Equal(t, "Cookie Policy", doc.Heading)
}

func TestParseMalformedFrontmatter(t *testing.T) {
	doc, err := NewParser().Parse([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Meta)
}
