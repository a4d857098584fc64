package rawlog

import (
	"testing"

	"github.com/banshee-data/bufferbench/internal/testutil"
	"github.com/banshee-data/bufferbench/internal/units"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePerBuffer(t *testing.T) {
	data := testutil.PerBufferLog([2]uint32{100, 200}, [2]uint32{300, 400})

	got, err := DecodePerBuffer(data)
	require.NoError(t, err)

	want := []Interval{{Start: 100, End: 200}, {Start: 300, End: 400}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodePerBuffer mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePerBuffer_IgnoresBytesAfterTerminator(t *testing.T) {
	data := testutil.PerBufferLog([2]uint32{100, 200})
	// uninitialised log region, including a partial record
	data = append(data, 0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5, 6, 7)

	got, err := DecodePerBuffer(data)
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 100, End: 200}}, got)
}

func TestDecodePerBuffer_HalfZeroTerminates(t *testing.T) {
	tests := []struct {
		name  string
		pairs [][2]uint32
	}{
		{"zero start", [][2]uint32{{100, 200}, {0, 500}, {600, 700}}},
		{"zero end", [][2]uint32{{100, 200}, {500, 0}, {600, 700}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePerBuffer(testutil.PerBufferLog(tt.pairs...))
			require.NoError(t, err)
			assert.Equal(t, []Interval{{Start: 100, End: 200}}, got)
		})
	}
}

func TestDecodePerBuffer_EmptyLog(t *testing.T) {
	got, err := DecodePerBuffer(testutil.PerBufferLog())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodePerBuffer_Malformed(t *testing.T) {
	full := testutil.PerBufferLog([2]uint32{100, 200})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"no terminator", full[:8]},
		{"record cut short", full[:12]},
		{"terminator cut short", full[:15]},
		{"odd length", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePerBuffer(tt.data)
			require.ErrorIs(t, err, ErrMalformedLog)
			assert.Nil(t, got, "no partial output on failure")
		})
	}
}

func TestDecodeBetweenBuffers(t *testing.T) {
	got, err := DecodeBetweenBuffers(testutil.BetweenBuffersLog(500, 1500))
	require.NoError(t, err)
	assert.Equal(t, []units.Tick{500, 1500}, got)
}

func TestDecodeBetweenBuffers_Malformed(t *testing.T) {
	full := testutil.BetweenBuffersLog(500)

	for name, data := range map[string][]byte{
		"empty input":      {},
		"no terminator":    full[:4],
		"record cut short": full[:6],
	} {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeBetweenBuffers(data)
			require.ErrorIs(t, err, ErrMalformedLog)
			assert.Nil(t, got)
		})
	}
}

func TestDecode(t *testing.T) {
	log, err := Decode(
		testutil.PerBufferLog([2]uint32{100, 200}, [2]uint32{300, 400}),
		testutil.BetweenBuffersLog(500, 1500),
	)
	require.NoError(t, err)

	want := &Log{
		PerBuffer:      []Interval{{Start: 100, End: 200}, {Start: 300, End: 400}},
		BetweenBuffers: []units.Tick{500, 1500},
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_EitherLogMalformedAborts(t *testing.T) {
	good := testutil.PerBufferLog([2]uint32{100, 200})
	goodGaps := testutil.BetweenBuffersLog(500)

	log, err := Decode(good[:10], goodGaps)
	assert.ErrorIs(t, err, ErrMalformedLog)
	assert.ErrorContains(t, err, "per-buffer")
	assert.Nil(t, log)

	log, err = Decode(good, goodGaps[:4])
	assert.ErrorIs(t, err, ErrMalformedLog)
	assert.ErrorContains(t, err, "between-buffers")
	assert.Nil(t, log)
}
