package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Constraints are the requested video dimensions for the live preview.
type Constraints struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultConstraints matches the small on-screen proctoring preview.
var DefaultConstraints = Constraints{Width: 320, Height: 240}

// Stream is an acquired camera stream. Stop releases the device.
type Stream interface {
	Stop()
}

// Camera acquires a continuous stream. Open may block until the platform answers;
// it must return promptly once ctx is cancelled.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// MonitorFeed owns the live camera stream of one session. Acquisition happens
// in the background and its outcome is reported through onResolve.
type MonitorFeed struct {
	log    zerolog.Logger
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	stream   Stream
	err      error
	released bool
}

// StartMonitorFeed begins best-effort acquisition. onResolve receives nil on
// success or the acquisition error; it is not called if the feed was released first.
func StartMonitorFeed(camera Camera, c Constraints, log zerolog.Logger, onResolve func(error)) *MonitorFeed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &MonitorFeed{
		log:    log,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		stream, err := camera.Open(ctx, c)

		f.mu.Lock()
		if f.released {
			f.mu.Unlock()
			if stream != nil {
				stream.Stop()
			}
			return
		}
		f.stream = stream
		f.err = err
		f.mu.Unlock()

		if err != nil {
			f.log.Warn().Err(err).Msg("live monitoring unavailable, continuing without video")
		} else {
			f.log.Info().Int("width", c.Width).Int("height", c.Height).Msg("live monitoring started")
		}
		if onResolve != nil {
			onResolve(err)
		}
	}()
	return f
}

// Done is closed once acquisition has resolved.
func (f *MonitorFeed) Done() <-chan struct{} {
	return f.done
}

// Active reports whether a stream is currently held.
func (f *MonitorFeed) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream != nil
}

// Release stops the stream exactly once. A stream that resolves after
// Release is stopped as soon as it arrives.
func (f *MonitorFeed) Release() {
	f.mu.Lock()
	if f.released {
		f.mu.Unlock()
		return
	}
	f.released = true
	stream := f.stream
	f.stream = nil
	f.mu.Unlock()

	f.cancel()
	if stream != nil {
		stream.Stop()
		f.log.Info().Msg("live monitoring stopped")
	}
}
