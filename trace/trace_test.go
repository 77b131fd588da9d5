package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteToThenParseRoundTrips(t *testing.T) {
	tr := Trace{
		Header: Header{Strategy: "random", Fair: true, Seed: 42, HasSeed: true},
		Steps: []Step{
			{Kind: SchedulingChoice, OperationID: 3},
			{Kind: BooleanChoice, Bool: true},
			{Kind: IntegerChoice, Int: 7},
		},
	}

	var buf strings.Builder
	_, err := tr.WriteTo(&buf)
	require.NoError(t, err)

	assert.Equal(t, "# strategy=random fair=true seed=42\nS:3\nB:1\nI:7\n", buf.String())

	parsed, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, tr, *parsed)
}

func TestWriteToOmitsSeedWhenUnset(t *testing.T) {
	tr := Trace{Header: Header{Strategy: "pct", Fair: false}}
	var buf strings.Builder
	_, err := tr.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "# strategy=pct fair=false seed=-\n", buf.String())
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("S:0\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRejectsUnrecognizedRecordKind(t *testing.T) {
	_, err := Parse(strings.NewReader("# strategy=random fair=true seed=1\nX:0\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRejectsMissingStrategyField(t *testing.T) {
	_, err := Parse(strings.NewReader("# fair=true seed=1\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}
