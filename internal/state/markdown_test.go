package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkdown = `# Top Level

Some intro text.

## Section One

Content of section one.

More content here.

## Section Two

Content of section two.

### Subsection

Nested content.

## Section Three

Final section.
`

const sampleTable = `| Phase | Plans Complete | Status | Completed |
|-------|----------------|--------|-----------|
| 1. Foundation | 1/3 | In Progress | - |
| 2. Core Commands | 0/3 | Not started | - |
`

func TestExtractSectionKnownHeader(t *testing.T) {
	section := ExtractSection(sampleMarkdown, "Section One", 2)
	assert.Contains(t, section, "Content of section one.")
	assert.Contains(t, section, "More content here.")
}

func TestExtractSectionMissingHeader(t *testing.T) {
	assert.Empty(t, ExtractSection(sampleMarkdown, "Nonexistent", 2))
}

func TestExtractSectionLastSection(t *testing.T) {
	assert.Contains(t, ExtractSection(sampleMarkdown, "Section Three", 2), "Final section.")
}

func TestExtractSectionNestedLevel3(t *testing.T) {
	assert.Contains(t, ExtractSection(sampleMarkdown, "Subsection", 3), "Nested content.")
}

func TestExtractSectionDoesNotBleed(t *testing.T) {
	section := ExtractSection(sampleMarkdown, "Section One", 2)
	assert.NotContains(t, section, "Content of section two.")
}

func TestExtractSectionIncludesDeeperHeadings(t *testing.T) {
	// A level-2 section keeps its level-3 subsections.
	section := ExtractSection(sampleMarkdown, "Section Two", 2)
	assert.Contains(t, section, "### Subsection")
	assert.Contains(t, section, "Nested content.")
	assert.NotContains(t, section, "Final section.")
}

func TestParseCheckboxItems(t *testing.T) {
	section := `- [x] **PKG-01**: First item completed
- [ ] **PKG-02**: Second item pending
- [X] **PKG-03**: Third item completed (uppercase X)
- [ ] **PKG-04**: Fourth item pending
`
	items := ParseCheckboxItems(section)
	require.Len(t, items, 4)
	assert.Equal(t, CheckboxItem{Checked: true, Text: "**PKG-01**: First item completed"}, items[0])
	assert.Equal(t, CheckboxItem{Checked: false, Text: "**PKG-02**: Second item pending"}, items[1])
	assert.True(t, items[2].Checked)
	assert.False(t, items[3].Checked)
}

func TestParseCheckboxItemsEmpty(t *testing.T) {
	assert.Empty(t, ParseCheckboxItems(""))
}

func TestParseTableRows(t *testing.T) {
	rows := ParseTableRows(sampleTable)
	require.Len(t, rows, 2)
	assert.Equal(t, "1. Foundation", rows[0]["Phase"])
	assert.Equal(t, "1/3", rows[0]["Plans Complete"])
	assert.Equal(t, "In Progress", rows[0]["Status"])
	assert.Equal(t, "2. Core Commands", rows[1]["Phase"])
}

func TestParseTableRowsEmpty(t *testing.T) {
	assert.Empty(t, ParseTableRows(""))
}

func TestParseTableRowsNoDataRows(t *testing.T) {
	assert.Empty(t, ParseTableRows("| A | B |\n|---|---|\n"))
}

func TestParseTableRowsShortRow(t *testing.T) {
	table := `| A | B | C |
|---|---|---|
| 1 | 2 |
`
	rows := ParseTableRows(table)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["A"])
	assert.Equal(t, "", rows[0]["C"])
}
