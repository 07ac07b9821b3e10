// Package sim implements a discrete-event simulation of closed-loop
// link-rate adaptation for a wireless data link.
//
// A transmitter learns per-receiver and group channel quality through
// periodic feedback frames carried over the simulated link itself, and
// selects per transmission the modulation/coding mode that maximizes
// delivery probability (type 0, PER-ceiling scan) or expected throughput
// (type 1). The package contains the event loop, the mode catalog, the
// feedback wire codec, receive-path quality accumulation, per-station
// records and the rate adaptation engine; cmd/ provides the scenario
// harness on top.
//
// Everything in this package runs on the single event-loop goroutine; no
// type here is safe for concurrent use and none takes locks.
package sim
