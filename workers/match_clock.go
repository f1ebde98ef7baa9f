package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/VictorBagz/KBR/utils"
)

// flushEvery throttles clock persistence to one write per ten ticks. The
// local counter keeps running regardless; a missed flush just means the
// stored clock lags by a few seconds.
const flushEvery = 10

// TimeStore persists the running clock display for a match.
type TimeStore interface {
	SaveMatchTime(ctx context.Context, matchID, display string) error
}

// MatchClock drives the running match-time counter for the one active
// match. A one-second tick increments the local counter; every tenth tick
// fires a fire-and-forget persistence write. The periodic flush is
// best-effort: failures are logged and swallowed, and never stall the tick.
type MatchClock struct {
	store    TimeStore
	interval time.Duration

	mu      sync.Mutex
	matchID string
	seconds int
	running bool
	stopCh  chan struct{}
}

func NewMatchClock(store TimeStore) *MatchClock {
	return &MatchClock{
		store:    store,
		interval: time.Second,
	}
}

// Start begins ticking for the given match from the supplied elapsed
// seconds. Starting while already running re-targets the clock.
func (c *MatchClock) Start(matchID string, fromSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.stopLocked()
	}
	if fromSeconds < 0 {
		fromSeconds = 0
	}
	c.matchID = matchID
	c.seconds = fromSeconds
	c.running = true
	c.stopCh = make(chan struct{})
	go c.run(c.stopCh)

	log.Printf("[CLOCK] started for match %s at %s", matchID, utils.FormatClock(fromSeconds))
}

// Pause stops the tick and performs one synchronous persistence of the
// current display. Unlike the periodic flush, a pause-time write failure is
// surfaced to the operator.
func (c *MatchClock) Pause(ctx context.Context) (string, error) {
	c.mu.Lock()
	c.stopLocked()
	matchID := c.matchID
	display := utils.FormatClock(c.seconds)
	c.mu.Unlock()

	if matchID == "" {
		return display, nil
	}
	if err := c.store.SaveMatchTime(ctx, matchID, display); err != nil {
		return display, err
	}
	log.Printf("[CLOCK] paused match %s at %s", matchID, display)
	return display, nil
}

// Halt stops ticking and returns the final display without flushing. The
// caller owns the final combined write (end-of-match persists status, clock
// and scores together).
func (c *MatchClock) Halt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return utils.FormatClock(c.seconds)
}

// ResetLocal stops ticking and zeroes the counter, ready for the next
// match. Persistence of the reset itself is the caller's job.
func (c *MatchClock) ResetLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.seconds = 0
	c.matchID = ""
}

// SetDisplay overwrites the counter from operator-typed text. Malformed
// input parses as zero rather than erroring, matching the admin form.
func (c *MatchClock) SetDisplay(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seconds = utils.ParseClock(text)
}

// Display returns the current "MM:SS" string.
func (c *MatchClock) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return utils.FormatClock(c.seconds)
}

// Elapsed returns the current counter in seconds.
func (c *MatchClock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seconds
}

// Running reports whether the clock is ticking.
func (c *MatchClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// MatchID returns the match the clock is attached to, if any.
func (c *MatchClock) MatchID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

func (c *MatchClock) run(stopCh chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-stopCh:
			return
		}
	}
}

// tick advances the counter by exactly one second and, on every tenth
// second, kicks off a background flush of the display string.
func (c *MatchClock) tick() {
	c.mu.Lock()
	c.seconds++
	seconds := c.seconds
	matchID := c.matchID
	c.mu.Unlock()

	if seconds%flushEvery == 0 && seconds > 0 && matchID != "" {
		go c.flush(matchID, utils.FormatClock(seconds))
	}
}

func (c *MatchClock) flush(matchID, display string) {
	// A flush launched by the last tick can outlive a Halt or ResetLocal;
	// skip it once the clock no longer tracks this match, so it cannot
	// overwrite the finished or reset match's stored clock.
	c.mu.Lock()
	live := c.running && c.matchID == matchID
	c.mu.Unlock()
	if !live {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.store.SaveMatchTime(ctx, matchID, display); err != nil {
		log.Printf("[CLOCK] flush failed for match %s: %v", matchID, err)
	}
}

// stopLocked halts the ticker goroutine. Callers hold c.mu.
func (c *MatchClock) stopLocked() {
	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
}
