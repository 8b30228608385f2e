package app

import (
	"sync"

	"github.com/rs/zerolog"
)

// Signal is an environment event reported by the platform hosting the session.
type Signal string

const (
	SignalVisibilityHidden Signal = "visibility_hidden"
	SignalCopy             Signal = "copy"
	SignalContextMenu      Signal = "context_menu"
	SignalNavigateAway     Signal = "navigate_away"
)

// Signals lists every capability the detector listens for.
var Signals = []Signal{SignalVisibilityHidden, SignalCopy, SignalContextMenu, SignalNavigateAway}

// ParseSignal maps a wire name to a Signal.
func ParseSignal(raw string) (Signal, bool) {
	for _, s := range Signals {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Verdict tells the platform how to treat the event that produced a signal.
type Verdict struct {
	PreventDefault bool `json:"preventDefault"`
	ConfirmLeave   bool `json:"confirmLeave"`
}

// SignalHandler reacts to one signal.
type SignalHandler func(Signal) Verdict

// EventSource is the platform capability set. Platforms lacking a capability
// may accept the listener and simply never dispatch it.
type EventSource interface {
	Listen(sig Signal, h SignalHandler) (remove func())
}

// Dispatcher is an in-process EventSource. Transports feed it the signals they
// receive from their platform.
type Dispatcher struct {
	mu       sync.Mutex
	seq      int
	handlers map[Signal]map[int]SignalHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Signal]map[int]SignalHandler)}
}

func (d *Dispatcher) Listen(sig Signal, h SignalHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	id := d.seq
	if d.handlers[sig] == nil {
		d.handlers[sig] = make(map[int]SignalHandler)
	}
	d.handlers[sig][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.handlers[sig], id)
			d.mu.Unlock()
		})
	}
}

// Dispatch delivers sig to every registered handler and merges their verdicts.
// Handlers run without the dispatcher lock held, so they may deregister.
func (d *Dispatcher) Dispatch(sig Signal) Verdict {
	d.mu.Lock()
	hs := make([]SignalHandler, 0, len(d.handlers[sig]))
	for _, h := range d.handlers[sig] {
		hs = append(hs, h)
	}
	d.mu.Unlock()

	var merged Verdict
	for _, h := range hs {
		v := h(sig)
		merged.PreventDefault = merged.PreventDefault || v.PreventDefault
		merged.ConfirmLeave = merged.ConfirmLeave || v.ConfirmLeave
	}
	return merged
}

// Listeners reports how many handlers are registered for sig.
func (d *Dispatcher) Listeners(sig Signal) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[sig])
}

// violationSink is the part of the session the detector drives.
type violationSink interface {
	RecordViolation(description string) bool
	violationTime() string
}

// attachDetector registers the proctoring handlers and returns the function
// that removes all of them.
func attachDetector(src EventSource, sink violationSink, log zerolog.Logger) func() {
	handle := func(sig Signal) Verdict {
		switch sig {
		case SignalVisibilityHidden:
			desc := "Tab switched at " + sink.violationTime()
			if sink.RecordViolation(desc) {
				log.Warn().Str("violation", desc).Msg("visibility lost")
			}
			return Verdict{}
		case SignalCopy, SignalContextMenu:
			log.Debug().Str("signal", string(sig)).Msg("suppressed platform action")
			return Verdict{PreventDefault: true}
		case SignalNavigateAway:
			return Verdict{ConfirmLeave: true}
		}
		return Verdict{}
	}

	removers := make([]func(), 0, len(Signals))
	for _, sig := range Signals {
		removers = append(removers, src.Listen(sig, handle))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, remove := range removers {
				remove()
			}
		})
	}
}
