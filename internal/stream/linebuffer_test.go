package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(b *LineBuffer, chunks []string) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, b.Push(c)...)
	}
	if tail, ok := b.Flush(); ok {
		lines = append(lines, tail)
	}
	return lines
}

func TestLineBufferChunkBoundaryInvariance(t *testing.T) {
	input := "ab\ncd"
	splits := [][]string{
		{input},
		{"ab\n", "cd"},
		{"a", "b", "\n", "c", "d"},
		{"ab", "\ncd"},
	}

	want := collect(&LineBuffer{}, splits[0])
	require.Equal(t, []string{"ab", "cd"}, want)

	for _, chunks := range splits[1:] {
		assert.Equal(t, want, collect(&LineBuffer{}, chunks), "chunks %q", chunks)
	}
}

func TestLineBufferReconstructsInput(t *testing.T) {
	inputs := []string{
		"",
		"\n",
		"single line no newline",
		"a\nb\nc\n",
		"a\n\nb",
		"{\"type\":\"content\",\"chunk\":\"xin chào\"}\n{\"type\":\"error\"}",
	}

	for _, input := range inputs {
		// Feed byte by byte, the worst possible chunking.
		var b LineBuffer
		var lines []string
		for _, r := range input {
			lines = append(lines, b.Push(string(r))...)
		}
		if tail, ok := b.Flush(); ok {
			lines = append(lines, tail)
		}
		got := strings.Join(lines, "\n")
		if strings.HasSuffix(input, "\n") {
			got += "\n"
		}
		assert.Equal(t, input, got, "input %q", input)
	}
}

func TestLineBufferNoDuplicateEmission(t *testing.T) {
	var b LineBuffer
	first := b.Push("one\ntwo")
	assert.Equal(t, []string{"one"}, first)

	second := b.Push("\n")
	assert.Equal(t, []string{"two"}, second)

	_, ok := b.Flush()
	assert.False(t, ok)
}

func TestLineBufferFlushEmptyCarry(t *testing.T) {
	var b LineBuffer
	b.Push("done\n")
	line, ok := b.Flush()
	assert.False(t, ok)
	assert.Empty(t, line)
}
