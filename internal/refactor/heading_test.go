package refactor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadingLevel(t *testing.T) {
	cases := []struct {
		line string
		want int
	}{
		{"# Title", 1},
		{"### Deep", 3},
		{"###### Six", 6},
		{"#text", 0},
		{"###", 0},
		{"", 0},
		{"plain", 0},
		{" # indented", 0},
		{"## ", 2},
		{"#\tTab", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HeadingLevel(tc.line), "line %q", tc.line)
	}
}

func TestStripHeading(t *testing.T) {
	assert.Equal(t, "Quick Start", StripHeading("## Quick Start"))
	assert.Equal(t, "Spaced", StripHeading("#   Spaced"))
	assert.Equal(t, "#nospace", StripHeading("#nospace"))
	assert.Equal(t, "Hi there!", StripHeading("Hi there!"))
}

func TestNormalizeHeadingLevels(t *testing.T) {
	got := NormalizeHeadingLevels([]string{"## A", "### B", "## C"})
	assert.Equal(t, []string{"# A", "## B", "# C"}, got)
}

func TestNormalizeHeadingLevels_LeavesTextAlone(t *testing.T) {
	in := []string{"text", "#### Deep", "more #### text", "##### Deeper", "#tag"}
	got := NormalizeHeadingLevels(in)
	assert.Equal(t, []string{"text", "# Deep", "more #### text", "## Deeper", "#tag"}, got)
	assert.Equal(t, "#### Deep", in[1], "input must not be modified")
}

func TestNormalizeHeadingLevels_NoHeadings(t *testing.T) {
	in := []string{"a", "b"}
	assert.Equal(t, in, NormalizeHeadingLevels(in))
	assert.Empty(t, NormalizeHeadingLevels(nil))
}

func TestNormalizeHeadingLevels_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"### x", "#### y", "text", "### z"},
		{"# a", "## b"},
		{"##### only"},
		{"none"},
	}
	for _, in := range inputs {
		once := NormalizeHeadingLevels(in)
		assert.Equal(t, once, NormalizeHeadingLevels(once))
	}
}

const splitDoc = `Intro line
# Book
## Chapter 1
text one
### Section 1.1
deep text
## Chapter 2
text two
# Appendix
stray
## Chapter A
text a`

func TestSplitByHeading_Level2(t *testing.T) {
	blocks := SplitByHeading(splitDoc, 2)
	require.Len(t, blocks, 3)
	assert.Equal(t, []string{"## Chapter 1", "text one", "### Section 1.1", "deep text"}, blocks[0])
	assert.Equal(t, []string{"## Chapter 2", "text two"}, blocks[1])
	assert.Equal(t, []string{"## Chapter A", "text a"}, blocks[2])
}

func TestSplitByHeading_Level1NoParentBoundary(t *testing.T) {
	blocks := SplitByHeading(splitDoc, 1)
	require.Len(t, blocks, 2)
	assert.Equal(t, "# Book", blocks[0][0])
	assert.Equal(t, "text two", blocks[0][len(blocks[0])-1])
	assert.Equal(t, []string{"# Appendix", "stray", "## Chapter A", "text a"}, blocks[1])
}

func TestSplitByHeading_ShallowerThanParentClosesBlock(t *testing.T) {
	doc := "### a\nbody\n# top\nafter\n### b"
	blocks := SplitByHeading(doc, 3)
	require.Len(t, blocks, 2)
	assert.Equal(t, []string{"### a", "body"}, blocks[0])
	assert.Equal(t, []string{"### b"}, blocks[1])
}

func TestSplitByHeading_NoMatches(t *testing.T) {
	assert.Empty(t, SplitByHeading("no headings\n#tag\n", 2))
	assert.Empty(t, SplitByHeading(splitDoc, 4))
	assert.Empty(t, SplitByHeading(splitDoc, 0))
}

func TestSplitByHeading_BlockInvariants(t *testing.T) {
	docs := []string{splitDoc, "## x\n# y\n## z\n### w\n#### v\n## u", strings.Repeat("## h\nline\n", 5)}
	for _, doc := range docs {
		for level := 1; level <= 4; level++ {
			for _, block := range SplitByHeading(doc, level) {
				require.NotEmpty(t, block)
				assert.Equal(t, level, HeadingLevel(block[0]))
				for _, line := range block[1:] {
					l := HeadingLevel(line)
					assert.False(t, l > 0 && l <= level, "block at level %d holds boundary %q", level, line)
				}
			}
		}
	}
}
