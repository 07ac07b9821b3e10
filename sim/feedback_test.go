package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackHeader_RoundTrip_BitExact(t *testing.T) {
	// GIVEN a header with non-trivial field values
	in := FeedbackHeader{
		Rssi:         -63.4375,
		Snr:          17.203125,
		LossPackets:  3,
		TotalPackets: 412,
	}

	// WHEN it is encoded and decoded
	buf := in.Append(nil)
	require.Len(t, buf, FeedbackSize)
	out, rest, err := DecodeFeedback(buf)

	// THEN all four fields reproduce exactly, bit-for-bit for the floats
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, math.Float64bits(in.Rssi), math.Float64bits(out.Rssi))
	assert.Equal(t, math.Float64bits(in.Snr), math.Float64bits(out.Snr))
	assert.Equal(t, in.LossPackets, out.LossPackets)
	assert.Equal(t, in.TotalPackets, out.TotalPackets)
}

func TestFeedbackHeader_Append_PrependsToPayload(t *testing.T) {
	// GIVEN a header encoded in front of an existing payload
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	buf := FeedbackHeader{Rssi: 1, Snr: 2, LossPackets: 3, TotalPackets: 4}.Append(nil)
	buf = append(buf, payload...)

	// WHEN the header is decoded
	_, rest, err := DecodeFeedback(buf)

	// THEN the remaining payload is returned untouched
	require.NoError(t, err)
	assert.Equal(t, payload, rest)
}

func TestDecodeFeedback_ShortBuffer_Fails(t *testing.T) {
	// GIVEN buffers shorter than the 24-byte header
	for _, n := range []int{0, 1, 8, 16, 23} {
		// WHEN decode runs
		h, rest, err := DecodeFeedback(make([]byte, n))

		// THEN it fails with ErrMalformedFeedback and a zero header
		assert.ErrorIs(t, err, ErrMalformedFeedback, "len %d", n)
		assert.Equal(t, FeedbackHeader{}, h, "len %d", n)
		assert.Nil(t, rest, "len %d", n)
	}
}
