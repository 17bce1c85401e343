package power

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemperatureIndexClamps(t *testing.T) {
	assert.Equal(t, 0, TemperatureIndex(300))
	assert.Equal(t, 0, TemperatureIndex(200))
	assert.Equal(t, TemperatureSteps-1, TemperatureIndex(500))
	assert.Equal(t, 1, TemperatureIndex(310))
}

func TestSyntheticTableMonotonicInFrequency(t *testing.T) {
	tbl := NewSyntheticTable(4)
	lowC, _ := tbl.Lookup(1, 0, 0)
	highC, _ := tbl.Lookup(1, 3, 0)
	assert.Less(t, lowC, highC)
}

func TestFileTableRoundTrip(t *testing.T) {
	const numFreq = 1
	var sb strings.Builder
	for folder := 0; folder < Folders; folder++ {
		for f := 0; f < numFreq; f++ {
			for temp := 0; temp < TemperatureSteps; temp++ {
				sb.WriteString("1.5\t0.25\n")
			}
		}
	}

	tbl, err := NewFileTable(strings.NewReader(sb.String()), numFreq)
	require.NoError(t, err)

	core, l3 := tbl.Lookup(1, 0, 0)
	assert.Equal(t, 1.5, core)
	assert.Equal(t, 0.25, l3)
}

func TestFileTableShortInput(t *testing.T) {
	_, err := NewFileTable(strings.NewReader("1.0\t1.0\n"), 2)
	require.Error(t, err)
}
