package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberTrendHeat(t *testing.T) {
	// Occurrence streak of big is 3.
	env := diceEnv("5", "6", "4", "1")

	r := &NumberTrend{Tags: []string{"big"}, Threshold: 3, Polarity: PolarityHeat, Mode: ModeFollow}
	assert.Equal(t, []string{"big"}, r.Next(env))

	short := &NumberTrend{Tags: []string{"big"}, Threshold: 4, Polarity: PolarityHeat, Mode: ModeFollow}
	assert.Empty(t, short.Next(env))
}

func TestNumberTrendOmission(t *testing.T) {
	// "6" has not occurred for the last 3 rounds.
	env := diceEnv("1", "2", "3", "6")

	r := &NumberTrend{Tags: []string{"6"}, Threshold: 3, Polarity: PolarityOmission, Mode: ModeFollow}
	assert.Equal(t, []string{"6"}, r.Next(env))

	// One more round of omission required.
	deep := &NumberTrend{Tags: []string{"6"}, Threshold: 4, Polarity: PolarityOmission, Mode: ModeFollow}
	assert.Empty(t, deep.Next(env))

	// The omission streak stops at the last occurrence.
	recent := &NumberTrend{Tags: []string{"1"}, Threshold: 1, Polarity: PolarityOmission, Mode: ModeFollow}
	assert.Empty(t, recent.Next(env))
}

func TestNumberTrendFullMatch(t *testing.T) {
	// big streak 3, odd streak 1.
	env := diceEnv("5", "6", "4", "1")

	// AND aggregation: both tags must cross the threshold.
	and := &NumberTrend{Tags: []string{"big", "odd"}, Threshold: 2, FullMatch: true, Polarity: PolarityHeat, Mode: ModeFollow}
	assert.Empty(t, and.Next(env))

	// OR aggregation: the first crossing tag fires alone.
	or := &NumberTrend{Tags: []string{"odd", "big"}, Threshold: 2, Polarity: PolarityHeat, Mode: ModeFollow}
	assert.Equal(t, []string{"big"}, or.Next(env))
}

func TestNumberTrendFullMatchUnion(t *testing.T) {
	// big streak 2 and even streak 2 both cross; targets union without
	// duplicates.
	env := diceEnv("6", "4", "1")

	r := &NumberTrend{Tags: []string{"big", "even"}, Threshold: 2, FullMatch: true, Polarity: PolarityHeat, Mode: ModeReverse}
	assert.Equal(t, []string{"small", "odd"}, r.Next(env))
}

func TestNumberTrendContinueBet(t *testing.T) {
	r := &NumberTrend{
		Tags: []string{"big"}, Threshold: 2, Polarity: PolarityHeat, Mode: ModeFollow,
		continueBet: continueBet{Trigger: TriggerContinue, LockRounds: 1},
	}
	require.Equal(t, []string{"big"}, r.Next(diceEnv("5", "6")))
	// Locked round repeats, then the lock releases.
	assert.Equal(t, []string{"big"}, r.Next(diceEnv("1", "5", "6")))
	assert.Empty(t, r.Next(diceEnv("1", "1", "5", "6")))
}
