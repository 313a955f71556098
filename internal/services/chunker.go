package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextChunker splits guideline documents into overlapping pieces for
// embedding.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// guidelineSection is the run of blocks under one markdown heading. Nested
// headings with no body between them are kept together as context.
type guidelineSection struct {
	heading string
	blocks  []guidelineBlock
}

type guidelineBlock struct {
	text   string
	bullet bool
}

// chunkPiece is a unit the packer never splits, with the separator that
// joins it to whatever precedes it in a chunk.
type chunkPiece struct {
	text string
	sep  string
}

// ChunkText packs guideline text into chunks of at most maxChunkSize runes.
// Chunks never span a heading; every chunk of a section starts with that
// section's heading line(s). Bullets are kept whole where they fit, and the
// last overlap runes of a chunk are repeated at the start of the next one in
// the same section only when doing so stays within the budget.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var chunks []string
	for _, sec := range splitSections(text) {
		chunks = append(chunks, packSection(sec, maxChunkSize, overlap)...)
	}
	return chunks
}

func splitSections(text string) []guidelineSection {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var sections []guidelineSection
	var cur guidelineSection
	var para []string

	flushPara := func() {
		if len(para) > 0 {
			cur.blocks = append(cur.blocks, guidelineBlock{text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flushPara()
		case isHeading(line):
			flushPara()
			if len(cur.blocks) > 0 {
				sections = append(sections, cur)
				cur = guidelineSection{heading: line}
			} else if cur.heading != "" {
				cur.heading += "\n" + line
			} else {
				cur.heading = line
			}
		case isBullet(line):
			flushPara()
			cur.blocks = append(cur.blocks, guidelineBlock{text: line, bullet: true})
		default:
			// Indented continuation of a wrapped bullet.
			n := len(cur.blocks)
			if len(para) == 0 && n > 0 && cur.blocks[n-1].bullet && raw != line && strings.HasPrefix(raw, " ") {
				cur.blocks[n-1].text += " " + line
				continue
			}
			para = append(para, line)
		}
	}
	flushPara()
	if len(cur.blocks) > 0 {
		sections = append(sections, cur)
	}
	return sections
}

func packSection(sec guidelineSection, maxChunkSize, overlap int) []string {
	prefix := ""
	if sec.heading != "" {
		prefix = sec.heading + "\n"
	}
	budget := maxChunkSize - utf8.RuneCountInString(prefix)
	if budget < maxChunkSize/2 || budget <= 0 {
		// A heading that would eat most of the budget is dropped rather
		// than starving the body.
		prefix = ""
		budget = maxChunkSize
	}

	var pieces []chunkPiece
	for i, block := range sec.blocks {
		sep := "\n\n"
		if i > 0 && block.bullet && sec.blocks[i-1].bullet {
			sep = "\n"
		}
		if utf8.RuneCountInString(block.text) <= budget {
			pieces = append(pieces, chunkPiece{text: block.text, sep: sep})
			continue
		}
		for j, part := range splitOversized(block.text, budget) {
			if j > 0 {
				sep = " "
			}
			pieces = append(pieces, chunkPiece{text: part, sep: sep})
		}
	}

	var chunks []string
	var body strings.Builder
	bodyLen := 0

	for _, p := range pieces {
		textLen := utf8.RuneCountInString(p.text)
		sepLen := utf8.RuneCountInString(p.sep)

		if bodyLen > 0 && bodyLen+sepLen+textLen > budget {
			prev := body.String()
			chunks = append(chunks, prefix+prev)
			body.Reset()
			bodyLen = 0

			if tail := overlapTail(prev, overlap); tail != "" {
				tailLen := utf8.RuneCountInString(tail)
				if tailLen+sepLen+textLen <= budget {
					body.WriteString(tail)
					bodyLen = tailLen
				}
			}
		}

		if bodyLen > 0 {
			body.WriteString(p.sep)
			bodyLen += sepLen
		}
		body.WriteString(p.text)
		bodyLen += textLen
	}

	if bodyLen > 0 {
		chunks = append(chunks, prefix+body.String())
	}
	return chunks
}

// splitOversized breaks a block on sentence ends, then on words, then on
// runes, until every part fits in n runes.
func splitOversized(text string, n int) []string {
	var parts []string
	for _, sentence := range splitIntoSentences(text) {
		if utf8.RuneCountInString(sentence) <= n {
			parts = append(parts, sentence)
			continue
		}
		parts = append(parts, packWords(sentence, n)...)
	}
	return parts
}

// splitIntoSentences splits after '.', '!' or '?' followed by whitespace,
// keeping the terminator on the sentence.
func splitIntoSentences(text string) []string {
	var result []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			result = append(result, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		result = append(result, s)
	}
	return result
}

func packWords(text string, n int) []string {
	var parts []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > n {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = nil
			}
			parts = append(parts, string(w[:n]))
			w = w[n:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > n {
			parts = append(parts, string(cur))
			cur = nil
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func overlapTail(text string, n int) string {
	return strings.TrimLeftFunc(getLastNChars(text, n), unicode.IsSpace)
}

func getLastNChars(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}

func isHeading(line string) bool {
	hashes := 0
	for hashes < len(line) && line[hashes] == '#' {
		hashes++
	}
	return hashes > 0 && hashes <= 6 && hashes < len(line) && line[hashes] == ' '
}

func isBullet(line string) bool {
	for _, marker := range []string{"- ", "* ", "+ ", "• "} {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	return digits > 0 && digits+1 < len(line) &&
		(line[digits] == '.' || line[digits] == ')') && line[digits+1] == ' '
}
