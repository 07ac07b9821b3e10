package sim

// StationID identifies a remote peer by its link-layer address, e.g.
// "02:00:00:00:00:01".
type StationID string

// BroadcastID is the group address: frames enqueued to it reach every
// node on the channel.
const BroadcastID StationID = "ff:ff:ff:ff:ff:ff"

// IsGroup reports whether the address is group (broadcast) addressed.
func (id StationID) IsGroup() bool {
	return id == BroadcastID
}

// StationRecord is the engine-owned per-peer state. Records are created
// lazily on first contact and never evicted; each station's extra fields
// live here, keyed by identity, instead of hanging off a downcast of a
// generic station handle.
type StationRecord struct {
	// LastSnr is the most recent directly-measured linear SNR from this
	// peer's own control/data acknowledgment exchange. It is distinct
	// from the peer-reported aggregate delivered over the feedback
	// channel and must not be conflated with it.
	LastSnr float64

	// Supported is the peer's advertised mode subset, in advertisement
	// order. Empty until the association layer populates it.
	Supported []Mode
}
