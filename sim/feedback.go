package sim

import (
	"encoding/binary"
	"errors"
	"math"
)

// FeedbackSize is the exact encoded size of a FeedbackHeader: two
// float64 fields followed by two uint32 counters, big endian.
const FeedbackSize = 8 + 8 + 4 + 4

// ErrMalformedFeedback reports a feedback payload too short to carry a
// complete header. The frame is dropped by the caller; no state is
// mutated on this error.
var ErrMalformedFeedback = errors.New("feedback: truncated header")

// FeedbackHeader is the wire form of one receiver-side quality report:
// aggregated signal strength and SNR (both dB), and the loss/total frame
// counters for the reporting window. Field order and widths are the wire
// compatibility contract; there is no version field, so any change here
// breaks compatibility with deployed peers.
type FeedbackHeader struct {
	Rssi         float64
	Snr          float64
	LossPackets  uint32
	TotalPackets uint32
}

// Append encodes the header onto p and returns the extended slice. The
// encoded form is exactly FeedbackSize bytes.
func (h FeedbackHeader) Append(p []byte) []byte {
	p = binary.BigEndian.AppendUint64(p, math.Float64bits(h.Rssi))
	p = binary.BigEndian.AppendUint64(p, math.Float64bits(h.Snr))
	p = binary.BigEndian.AppendUint32(p, h.LossPackets)
	p = binary.BigEndian.AppendUint32(p, h.TotalPackets)
	return p
}

// DecodeFeedback consumes one header from the front of p and returns it
// together with the remaining payload. A buffer shorter than
// FeedbackSize yields ErrMalformedFeedback and a zero header.
func DecodeFeedback(p []byte) (FeedbackHeader, []byte, error) {
	if len(p) < FeedbackSize {
		return FeedbackHeader{}, nil, ErrMalformedFeedback
	}
	var h FeedbackHeader
	h.Rssi = math.Float64frombits(binary.BigEndian.Uint64(p[0:8]))
	h.Snr = math.Float64frombits(binary.BigEndian.Uint64(p[8:16]))
	h.LossPackets = binary.BigEndian.Uint32(p[16:20])
	h.TotalPackets = binary.BigEndian.Uint32(p[20:24])
	return h, p[FeedbackSize:], nil
}
