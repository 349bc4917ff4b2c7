package match

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// PollPurpose names one repeating check against the server. At most
// one timer runs per purpose at any time.
type PollPurpose string

const (
	PollQueue PollPurpose = "queue-status"
	PollMatch PollPurpose = "match-status"
)

// Poller owns the repeating timers that drive the client. Starting a
// purpose again replaces any running timer for it, and StopAll halts
// everything on teardown. Ticks within one timer run sequentially: a
// tick callback completes before the next fires.
type Poller struct {
	clock clockwork.Clock

	mu     sync.Mutex
	active map[PollPurpose]chan struct{}
	wg     sync.WaitGroup
}

func NewPoller(clock clockwork.Clock) *Poller {
	return &Poller{
		clock:  clock,
		active: make(map[PollPurpose]chan struct{}),
	}
}

// Start begins polling for purpose, cancelling any prior timer for the
// same purpose first. Cancellation is asynchronous: a tick of the
// replaced timer that is already executing runs to completion, so tick
// callbacks must tolerate one trailing invocation.
func (p *Poller) Start(purpose PollPurpose, interval time.Duration, tick func()) {
	p.mu.Lock()
	if stop, ok := p.active[purpose]; ok {
		close(stop)
		log.Debug().Str("purpose", string(purpose)).Msg("replaced existing poll timer")
	}
	stop := make(chan struct{})
	p.active[purpose] = stop
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(purpose, interval, tick, stop)
}

func (p *Poller) run(purpose PollPurpose, interval time.Duration, tick func(), stop chan struct{}) {
	defer p.wg.Done()

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().
		Str("purpose", string(purpose)).
		Dur("interval", interval).
		Msg("poll timer started")

	for {
		select {
		case <-stop:
			log.Debug().Str("purpose", string(purpose)).Msg("poll timer stopped")
			return
		case <-ticker.Chan():
			// A tick racing a cancellation is dropped.
			select {
			case <-stop:
				log.Debug().Str("purpose", string(purpose)).Msg("poll timer stopped")
				return
			default:
			}
			tick()
		}
	}
}

// Stop cancels the timer for one purpose, if any.
func (p *Poller) Stop(purpose PollPurpose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stop, ok := p.active[purpose]; ok {
		close(stop)
		delete(p.active, purpose)
	}
}

// StopAll cancels every active timer.
func (p *Poller) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for purpose, stop := range p.active {
		close(stop)
		delete(p.active, purpose)
	}
}

// Wait blocks until all poll goroutines have exited. Intended for
// tests and orderly shutdown.
func (p *Poller) Wait() {
	p.wg.Wait()
}
