package odds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecode(t *testing.T) {
	o, err := Decode(KindFlat, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.Multiplier())

	o, err = Decode(KindSequence, json.RawMessage(`{"values":[1,2,4]}`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.Multiplier())

	_, err = Decode(KindSequence, nil)
	assert.Error(t, err)
	_, err = Decode(KindSequence, json.RawMessage(`{`))
	assert.Error(t, err)
	_, err = Decode("nope", nil)
	assert.Error(t, err)
}

func TestFlatNeverChanges(t *testing.T) {
	f := &Flat{}
	f.Advance(true)
	f.Advance(false)
	assert.Equal(t, 1.0, f.Multiplier())
	assert.False(t, f.Dirty())
}

// TestSequenceMartingale: default mode advances on loss and resets on win.
func TestSequenceMartingale(t *testing.T) {
	s := &Sequence{Values: []float64{1, 2, 4}}

	require.Equal(t, 1.0, s.Multiplier())
	s.Advance(false)
	assert.True(t, s.Dirty())
	require.Equal(t, 2.0, s.Multiplier())
	s.Advance(false)
	require.Equal(t, 4.0, s.Multiplier())

	// Past the end the index wraps to the start.
	s.Advance(false)
	require.Equal(t, 1.0, s.Multiplier())

	s.Advance(false)
	s.Advance(true)
	assert.Equal(t, 1.0, s.Multiplier())
	assert.Equal(t, 0, s.Index)
}

func TestSequenceAdvanceOnWin(t *testing.T) {
	s := &Sequence{Values: []float64{1, 1.5, 2.25}, Mode: AdvanceOnWin}

	s.Advance(true)
	require.Equal(t, 1.5, s.Multiplier())
	s.Advance(false)
	assert.Equal(t, 1.0, s.Multiplier())
}

func TestSequenceClamps(t *testing.T) {
	s := &Sequence{Values: []float64{0, -3, 2}}
	assert.Equal(t, 1.0, s.Multiplier())
	s.Index = 1
	assert.Equal(t, 1.0, s.Multiplier())
	s.Index = 2
	assert.Equal(t, 2.0, s.Multiplier())

	// Out-of-range persisted index and empty sequence stake the unit.
	s.Index = 99
	assert.Equal(t, 1.0, s.Multiplier())
	assert.Equal(t, 1.0, (&Sequence{}).Multiplier())
}

// TestSequenceIndexInvariant: whatever the outcome stream, the index stays
// inside the sequence and equals the number of qualifying outcomes since the
// last non-qualifying one, modulo the sequence length.
func TestSequenceIndexInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "len")
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i + 1)
		}
		mode := rapid.SampledFrom([]string{"", AdvanceOnLoss, AdvanceOnWin}).Draw(t, "mode")
		s := &Sequence{Values: values, Mode: mode}

		streak := 0
		outcomes := rapid.SliceOfN(rapid.Bool(), 1, 50).Draw(t, "outcomes")
		for _, won := range outcomes {
			s.Advance(won)
			if won == (mode == AdvanceOnWin) {
				streak++
			} else {
				streak = 0
			}
			if s.Index != streak%n {
				t.Fatalf("index %d, want %d after streak %d", s.Index, streak%n, streak)
			}
		}
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	s := &Sequence{Values: []float64{1, 2}, Index: 1, Mode: AdvanceOnWin}
	raw, err := Encode(s)
	require.NoError(t, err)

	o, err := Decode(KindSequence, raw)
	require.NoError(t, err)
	assert.Equal(t, 2.0, o.Multiplier())
	assert.False(t, o.Dirty())
}
