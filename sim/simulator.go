// sim/simulator.go
package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// EventQueue implements heap.Interface and orders events by timestamp.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int           { return len(eq) }
func (eq EventQueue) Less(i, j int) bool { return eq[i].Timestamp() < eq[j].Timestamp() }
func (eq EventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator is the core object that holds simulation time, the node
// registry and the event loop. One event runs to completion before the
// next begins; all node and engine state is touched only from this loop.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue has all the simulator events: frame deliveries,
	// feedback firings and traffic generation.
	EventQueue EventQueue
	// Nodes indexes every station on the channel by address.
	Nodes map[StationID]*Node
	// Channel decides per-receiver delivery for transmitted frames.
	Channel Channel
	// Metrics aggregates run-wide counters shared by all nodes.
	Metrics *Metrics
	// Rng hands out deterministic per-subsystem RNG streams.
	Rng *PartitionedRNG
}

// NewSimulator returns a simulator with an empty node registry.
func NewSimulator(horizon int64, seed int64) *Simulator {
	return &Simulator{
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
		Nodes:      make(map[StationID]*Node),
		Metrics:    &Metrics{},
		Rng:        NewPartitionedRNG(NewSimulationKey(seed)),
	}
}

// Schedule pushes an event into the simulator's event queue.
func (s *Simulator) Schedule(ev Event) {
	heap.Push(&s.EventQueue, ev)
}

// ScheduleAfter schedules fn as an event delay ticks from now.
func (s *Simulator) ScheduleAfter(delay int64, fn func(*Simulator)) {
	s.Schedule(&funcEvent{time: s.Clock + delay, fn: fn})
}

// funcEvent adapts a closure to the Event interface.
type funcEvent struct {
	time int64
	fn   func(*Simulator)
}

func (e *funcEvent) Timestamp() int64     { return e.time }
func (e *funcEvent) Execute(s *Simulator) { e.fn(s) }

// Run executes events in timestamp order until the queue drains or the
// horizon is passed.
func (s *Simulator) Run() {
	for len(s.EventQueue) > 0 {
		ev := heap.Pop(&s.EventQueue).(Event)
		s.Clock = ev.Timestamp()
		if s.Clock > s.Horizon {
			break
		}
		logrus.Debugf("[tick %07d] Executing %T", s.Clock, ev)
		ev.Execute(s)
	}
	logrus.Infof("[tick %07d] Simulation ended", s.Clock)
}

// AddNode registers a node under its address. Registering the same
// address twice is a programming error.
func (s *Simulator) AddNode(n *Node) {
	if _, ok := s.Nodes[n.ID]; ok {
		panic("AddNode: duplicate station address " + string(n.ID))
	}
	s.Nodes[n.ID] = n
}
