package refactor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetadata_StopsAtTerminator(t *testing.T) {
	doc := strings.Join([]string{
		"Source: Wikipedia",
		"Auteur : Jean Dupont",
		"MOC: Projet X",
		"",
		"***",
		"",
		"# Titre",
		"Contenu de la note",
	}, "\n")

	md := ExtractMetadata(doc)
	require.Equal(t, 3, md.Len())
	assert.Equal(t, []string{"Source", "Auteur", "MOC"}, md.Keys())
	for key, want := range map[string]string{"Source": "Wikipedia", "Auteur": "Jean Dupont", "MOC": "Projet X"} {
		got, ok := md.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestExtractMetadata_LinksAndTags(t *testing.T) {
	doc := "# Metadata\nAuteur : [[Morgan Housel]]\nSource : La Psychologie De lArgent\nCategory: #books\n***\n## First note\n\nCharlie Munger : la composition."

	md := ExtractMetadata(doc)
	require.Equal(t, 3, md.Len())
	v, _ := md.Get("Auteur")
	assert.Equal(t, "[[Morgan Housel]]", v)
	v, _ = md.Get("Category")
	assert.Equal(t, "#books", v)
	_, ok := md.Get("Charlie Munger")
	assert.False(t, ok, "lines after the terminator must not be scanned")
}

func TestExtractMetadata_NoTerminatorScansEverything(t *testing.T) {
	md := ExtractMetadata("plain line\nKey:Value\nnot a pair\nOther Key   :   spaced value  ")
	require.Equal(t, 2, md.Len())
	v, _ := md.Get("Other Key")
	assert.Equal(t, "spaced value", v)
}

func TestExtractMetadata_DuplicateKeyLastWins(t *testing.T) {
	md := ExtractMetadata("A: 1\nB: 2\nA: 3")
	assert.Equal(t, []string{"A", "B"}, md.Keys())
	v, _ := md.Get("A")
	assert.Equal(t, "3", v)
}

func TestExtractMetadata_TerminatorWithSpaces(t *testing.T) {
	md := ExtractMetadata("  ***  \nA: 1")
	assert.Equal(t, 0, md.Len())
	assert.False(t, md.IsNil())
}

func TestExtractMetadata_Empty(t *testing.T) {
	md := ExtractMetadata("")
	assert.Equal(t, 0, md.Len())
	assert.False(t, md.IsNil())
}

func TestExtractMetadata_RoundTrip(t *testing.T) {
	pairs := [][2]string{{"Alpha", "one"}, {"Beta Key", "two words"}, {"gamma_3", "x: y"}}
	var lines []string
	seps := []string{":", " : ", ":   ", "  :"}
	for i, p := range pairs {
		lines = append(lines, p[0]+seps[i%len(seps)]+p[1])
	}
	lines = append(lines, "***", "Ignored: yes")

	md := ExtractMetadata(strings.Join(lines, "\n"))
	require.Equal(t, len(pairs), md.Len())
	for _, p := range pairs {
		got, ok := md.Get(p[0])
		require.True(t, ok, p[0])
		assert.Equal(t, p[1], got)
	}
}

func TestMetadata_JSONKeepsOrder(t *testing.T) {
	md := NewMetadata()
	md.Set("z", "1")
	md.Set("a", "2")

	data, err := json.Marshal(md)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":"2"}`, string(data))

	var back Metadata
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"z", "a"}, back.Keys())
}

func TestMetadata_UnmarshalRejectsArray(t *testing.T) {
	var md Metadata
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &md))
}
