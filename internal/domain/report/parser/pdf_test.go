package parser

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte("PK\x03\x04")))
	assert.False(t, IsPDF([]byte("%PD")))
	assert.False(t, IsPDF(nil))
}

func TestExtractLines_RejectsNonPDF(t *testing.T) {
	_, err := ExtractLines([]byte("just some text"))
	require.ErrorIs(t, err, ErrNotPDF)
}

func TestGroupIntoLines(t *testing.T) {
	// Two visual lines; the second arrives before the first and with its
	// fragments out of X order.
	texts := []pdf.Text{
		{S: "39,90", X: 200, Y: 700, W: 30},
		{S: "QUEIJO MUSSARELA", X: 10, Y: 700.8, W: 100},
		{S: "PRESUNTO", X: 10, Y: 680, W: 60},
		{S: "24,50", X: 200, Y: 680.5, W: 30},
	}

	lines := groupIntoLines(texts)

	require.Len(t, lines, 2)
	assert.Equal(t, "QUEIJO MUSSARELA 39,90", lines[0])
	assert.Equal(t, "PRESUNTO 24,50", lines[1])
}

func TestGroupIntoLines_AdjacentFragmentsNotSplit(t *testing.T) {
	// A word split into two touching fragments must stay one token.
	texts := []pdf.Text{
		{S: "MUSSA", X: 10, Y: 500, W: 30},
		{S: "RELA", X: 40.5, Y: 500, W: 24},
	}

	lines := groupIntoLines(texts)

	require.Len(t, lines, 1)
	assert.Equal(t, "MUSSARELA", lines[0])
}

func TestGroupIntoLines_SkipsBlankFragments(t *testing.T) {
	texts := []pdf.Text{
		{S: "   ", X: 10, Y: 500, W: 10},
		{S: "PAO", X: 30, Y: 500, W: 20},
	}

	lines := groupIntoLines(texts)

	require.Len(t, lines, 1)
	assert.Equal(t, "PAO", lines[0])
}
