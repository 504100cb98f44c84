// Package tagger maps raw game results to semantic tags (big/small,
// odd/even, literal value) per game variant. All functions are pure; an
// unparseable result yields an empty tag set and is a non-match everywhere.
package tagger

import (
	"strconv"
	"strings"
)

// Game variants.
const (
	// GameDice is a single die game, values 1-6. Big when value >= 4.
	GameDice = "dice"
	// GameSum is a summed multi-digit game (PC28 style). The digits of the
	// result are summed, range 0-27. Big when the sum >= 14.
	GameSum = "sum"
)

// Semantic tags.
const (
	TagBig   = "big"
	TagSmall = "small"
	TagOdd   = "odd"
	TagEven  = "even"
)

const (
	diceBigThreshold = 4
	sumBigThreshold  = 14
)

// Set is a set of semantic tags.
type Set map[string]struct{}

// Has reports whether the tag is in the set.
func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAll reports whether every tag is in the set.
func (s Set) HasAll(tags []string) bool {
	for _, t := range tags {
		if !s.Has(t) {
			return false
		}
	}
	return len(tags) > 0
}

// Tags computes the tag set for a raw result under the given game variant.
func Tags(result, game string) Set {
	value, ok := Value(result, game)
	if !ok {
		return Set{}
	}

	set := Set{strconv.Itoa(value): {}}

	threshold := diceBigThreshold
	if game == GameSum {
		threshold = sumBigThreshold
	}
	if value >= threshold {
		set[TagBig] = struct{}{}
	} else {
		set[TagSmall] = struct{}{}
	}
	if value%2 == 0 {
		set[TagEven] = struct{}{}
	} else {
		set[TagOdd] = struct{}{}
	}
	return set
}

// Value parses the numeric value a result judges against: the die face for
// GameDice, the digit sum for GameSum. Returns false when the result does
// not parse for the variant.
func Value(result, game string) (int, bool) {
	result = strings.TrimSpace(result)
	if result == "" {
		return 0, false
	}

	switch game {
	case GameDice:
		v, err := strconv.Atoi(result)
		if err != nil || v < 1 || v > 6 {
			return 0, false
		}
		return v, true
	case GameSum:
		sum := 0
		seen := false
		for _, r := range result {
			switch {
			case r >= '0' && r <= '9':
				sum += int(r - '0')
				seen = true
			case r == '+' || r == ',' || r == ' ' || r == '=':
				// Separators in forms like "3+5+9" or "3,5,9".
			default:
				return 0, false
			}
		}
		if !seen {
			return 0, false
		}
		return sum, true
	default:
		return 0, false
	}
}

// Match reports whether a single bet target matches the result. Semantic
// targets go through the tag set; a numeric target is an exact literal match
// on the judged value.
func Match(target, result, game string) bool {
	return Tags(result, game).Has(strings.TrimSpace(target))
}

// Opposite returns the semantic opposite of a tag for reverse betting.
// big<->small, odd<->even; a digit target on GameDice maps to its complement
// set. Tags with no defined opposite return nil.
func Opposite(tag, game string) []string {
	switch tag {
	case TagBig:
		return []string{TagSmall}
	case TagSmall:
		return []string{TagBig}
	case TagOdd:
		return []string{TagEven}
	case TagEven:
		return []string{TagOdd}
	}
	if game == GameDice {
		if v, err := strconv.Atoi(tag); err == nil && v >= 1 && v <= 6 {
			out := make([]string, 0, 5)
			for d := 1; d <= 6; d++ {
				if d != v {
					out = append(out, strconv.Itoa(d))
				}
			}
			return out
		}
	}
	return nil
}
