package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextIsOneChunk(t *testing.T) {
	chunks := NewTextChunker().ChunkText("Data Analyst\n\nMust know SQL.", 500, 50)
	assert.Equal(t, []string{"Data Analyst\n\nMust know SQL."}, chunks)
}

func TestChunkText_SplitsParagraphs(t *testing.T) {
	para := strings.Repeat("a", 80)
	text := strings.Join([]string{para, para, para}, "\n\n")

	chunks := NewTextChunker().ChunkText(text, 100, 0)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, para, c)
	}
}

func TestChunkText_OverlapCarriesTail(t *testing.T) {
	first := strings.Repeat("a", 70) + "XYZ"
	second := strings.Repeat("b", 70)

	chunks := NewTextChunker().ChunkText(first+"\n\n"+second, 100, 3)
	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	// One paragraph separator between the carried tail and the next block.
	assert.Equal(t, "XYZ\n\n"+second, chunks[1])
}

func TestChunkText_LongParagraphSplitsOnSentences(t *testing.T) {
	sentence := strings.Repeat("word ", 10) + "end."
	text := strings.Repeat(sentence+" ", 10)

	chunks := NewTextChunker().ChunkText(text, 120, 0)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
	}
}

func TestChunkText_EmptyInput(t *testing.T) {
	assert.Empty(t, NewTextChunker().ChunkText(" \n\n ", 100, 10))
}

func TestChunkText_OverlapNeverExceedsBudget(t *testing.T) {
	para := strings.Repeat("a", 80)
	text := strings.Join([]string{para, para, para}, "\n\n")

	// 30 + 2 + 80 runes would overflow, so the tail is dropped.
	chunks := NewTextChunker().ChunkText(text, 100, 30)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, para, c)
	}
}

func TestChunkText_HeadingsStartEverySectionChunk(t *testing.T) {
	text := "# Data Analyst\n## Skills\n- SQL\n- Python\n\n# Backend Engineer\nGo services."

	chunks := NewTextChunker().ChunkText(text, 500, 0)
	assert.Equal(t, []string{
		"# Data Analyst\n## Skills\n- SQL\n- Python",
		"# Backend Engineer\nGo services.",
	}, chunks)
}

func TestChunkText_BulletsStayWhole(t *testing.T) {
	var lines []string
	for i := 0; i < 4; i++ {
		lines = append(lines, "- "+strings.Repeat(string(rune('a'+i)), 30))
	}
	text := "## Must have\n" + strings.Join(lines, "\n")

	chunks := NewTextChunker().ChunkText(text, 60, 0)
	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.Equal(t, "## Must have\n"+lines[i], c)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 60)
	}
}

func TestChunkText_WrappedBulletContinuation(t *testing.T) {
	text := "- Owns the reporting\n  pipeline end to end\n- Writes SQL"

	chunks := NewTextChunker().ChunkText(text, 500, 0)
	assert.Equal(t, []string{"- Owns the reporting pipeline end to end\n- Writes SQL"}, chunks)
}

func TestChunkText_BudgetCountsRunes(t *testing.T) {
	para := strings.Repeat("é", 80)
	text := strings.Join([]string{para, para, para}, "\n\n")

	chunks := NewTextChunker().ChunkText(text, 100, 0)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, para, c)
	}

	chunks = NewTextChunker().ChunkText(strings.Repeat("ü", 250), 100, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 100, utf8.RuneCountInString(chunks[1]))
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[2]))
}

func TestChunkText_HeadedChunksWithOverlapFit(t *testing.T) {
	sentence := "Candidates should show ownership of délivery. "
	text := "## Leadership\n" + strings.Repeat(sentence, 40)

	for _, size := range []int{60, 90, 150, 400} {
		chunks := NewTextChunker().ChunkText(text, size, size/3)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), size, "size %d", size)
			assert.True(t, strings.HasPrefix(c, "## Leadership\n"), "size %d", size)
		}
	}
}
