package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDamerauLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"труба", "труба", 0},
		{"труба", "трубы", 1},
		{"труба", "труб", 1},
		{"ab", "ba", 1}, // транспозиция соседних
		{"муфта", "", 5},
		{"", "", 0},
		{"отвод", "тройник", 6},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, damerauLevenshtein(c.a, c.b), "%q vs %q", c.a, c.b)
		assert.Equal(t, c.want, damerauLevenshtein(c.b, c.a), "%q vs %q", c.b, c.a)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 0.0, similarity("труба", ""))
	assert.Equal(t, 1.0, similarity("труба", "труба"))
	assert.InDelta(t, 0.8, similarity("труба", "трубы"), 1e-9)
}

func TestBestSimilarityTokenOrder(t *testing.T) {
	// перестановка токенов не должна ронять схожесть
	a := "труба полипропилен 110×2000"
	b := "полипропилен труба 110×2000"
	assert.Less(t, similarity(a, b), 1.0)
	assert.Equal(t, 1.0, bestSimilarity(a, b))
}
