package tagger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagsDice(t *testing.T) {
	tests := []struct {
		name   string
		result string
		want   []string
	}{
		{"one is small odd", "1", []string{TagSmall, TagOdd, "1"}},
		{"three is small odd", "3", []string{TagSmall, TagOdd, "3"}},
		{"four is big even", "4", []string{TagBig, TagEven, "4"}},
		{"five is big odd", "5", []string{TagBig, TagOdd, "5"}},
		{"six is big even", "6", []string{TagBig, TagEven, "6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Tags(tt.result, GameDice)
			assert.Len(t, set, len(tt.want))
			for _, tag := range tt.want {
				assert.True(t, set.Has(tag), "missing tag %s", tag)
			}
		})
	}
}

func TestTagsSum(t *testing.T) {
	tests := []struct {
		name   string
		result string
		want   []string
	}{
		{"low sum", "1+2+3", []string{TagSmall, TagEven, "6"}},
		{"threshold sum", "9+5+0", []string{TagBig, TagEven, "14"}},
		{"just below threshold", "6+4+3", []string{TagSmall, TagOdd, "13"}},
		{"comma separated", "9,9,9", []string{TagBig, TagOdd, "27"}},
		{"plain digits", "095", []string{TagBig, TagEven, "14"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Tags(tt.result, GameSum)
			for _, tag := range tt.want {
				assert.True(t, set.Has(tag), "missing tag %s in %v", tag, set)
			}
		})
	}
}

func TestTagsUnparseable(t *testing.T) {
	tests := []struct {
		name   string
		result string
		game   string
	}{
		{"empty", "", GameDice},
		{"letters", "abc", GameDice},
		{"out of range die", "7", GameDice},
		{"zero die", "0", GameDice},
		{"letters sum", "x+y", GameSum},
		{"unknown game", "5", "roulette"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Tags(tt.result, tt.game))
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("big", "5", GameDice))
	assert.False(t, Match("even", "5", GameDice))
	assert.True(t, Match("5", "5", GameDice))
	assert.False(t, Match("4", "5", GameDice))
	// Unparseable results never match.
	assert.False(t, Match("big", "??", GameDice))
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, []string{TagSmall}, Opposite(TagBig, GameDice))
	assert.Equal(t, []string{TagBig}, Opposite(TagSmall, GameSum))
	assert.Equal(t, []string{TagEven}, Opposite(TagOdd, GameDice))
	assert.Equal(t, []string{TagOdd}, Opposite(TagEven, GameSum))
	assert.Equal(t, []string{"1", "2", "4", "5", "6"}, Opposite("3", GameDice))
	// Sum-game literals have no sensible complement.
	assert.Nil(t, Opposite("14", GameSum))
	assert.Nil(t, Opposite("unknown", GameDice))
}
