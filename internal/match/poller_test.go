package match

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func recvNoTick(t *testing.T, ch <-chan string, within time.Duration) {
	t.Helper()
	select {
	case who := <-ch:
		t.Fatalf("expected no tick within %v, got one from %q", within, who)
	case <-time.After(within):
	}
}

// advanceUntilTick nudges the fake clock forward until the poll
// goroutine has registered its ticker and fired at least once.
func advanceUntilTick(t *testing.T, fc *clockwork.FakeClock, interval time.Duration, ch <-chan string) string {
	t.Helper()
	for i := 0; i < 50; i++ {
		fc.Advance(interval)
		select {
		case who := <-ch:
			return who
		case <-time.After(20 * time.Millisecond):
		}
	}
	t.Fatalf("no tick after repeated clock advances")
	return "" // unreachable
}

func TestPollerTicksAtInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPoller(fc)
	defer func() {
		p.StopAll()
		p.Wait()
	}()

	ticks := make(chan string, 16)
	p.Start(PollQueue, time.Second, func() { ticks <- "queue" })

	advanceUntilTick(t, fc, time.Second, ticks)
	advanceUntilTick(t, fc, time.Second, ticks)
}

func TestStartReplacesPriorTimerForSamePurpose(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPoller(fc)
	defer func() {
		p.StopAll()
		p.Wait()
	}()

	ticks := make(chan string, 16)
	p.Start(PollQueue, time.Second, func() { ticks <- "old" })
	p.Start(PollQueue, time.Second, func() { ticks <- "new" })

	who := advanceUntilTick(t, fc, time.Second, ticks)
	if who != "new" {
		t.Fatalf("replaced timer must not tick, got %q", who)
	}
	// drain any further ticks and make sure none came from the old timer
	for {
		select {
		case who := <-ticks:
			if who != "new" {
				t.Fatalf("replaced timer ticked after replacement: %q", who)
			}
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func TestStopHaltsOnePurpose(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPoller(fc)
	defer func() {
		p.StopAll()
		p.Wait()
	}()

	queueTicks := make(chan string, 16)
	matchTicks := make(chan string, 16)
	p.Start(PollQueue, time.Second, func() { queueTicks <- "queue" })
	p.Start(PollMatch, time.Second, func() { matchTicks <- "match" })

	advanceUntilTick(t, fc, time.Second, matchTicks)

	p.Stop(PollQueue)
	// let the queue goroutine observe the stop before advancing again
	drainDeadline := time.After(200 * time.Millisecond)
drain:
	for {
		select {
		case <-queueTicks:
		case <-drainDeadline:
			break drain
		}
	}

	advanceUntilTick(t, fc, time.Second, matchTicks)
	recvNoTick(t, queueTicks, 100*time.Millisecond)
}

func TestStopAllCancelsEverything(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPoller(fc)

	ticks := make(chan string, 16)
	p.Start(PollQueue, time.Second, func() { ticks <- "queue" })
	p.Start(PollMatch, time.Second, func() { ticks <- "match" })

	p.StopAll()
	p.Wait()

	fc.Advance(5 * time.Second)
	recvNoTick(t, ticks, 100*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewPoller(fc)

	p.Start(PollQueue, time.Second, func() {})
	p.Stop(PollQueue)
	p.Stop(PollQueue)
	p.StopAll()
	p.Wait()
}
