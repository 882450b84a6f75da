package clock

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock drives the repeating scan tick and the one-shot auto-select
// deadline for a scanning session. Re-arming always disarms first, so at
// most one repeating ticker and one deadline are ever live.
type Clock struct {
	mu       sync.Mutex
	ticker   *time.Ticker
	tickStop chan struct{}
	deadline *time.Timer
}

func New() *Clock {
	return &Clock{}
}

// Arm starts firing onTick every interval until Disarm is called.
func (c *Clock) Arm(interval time.Duration, onTick func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked()

	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	c.ticker = ticker
	c.tickStop = stop

	log.Debug().Dur("interval", interval).Msg("Scan clock armed")

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				onTick()
			}
		}
	}()
}

// Disarm stops the repeating tick. Safe to call when not armed.
func (c *Clock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

func (c *Clock) disarmLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.tickStop)
	c.ticker = nil
	c.tickStop = nil
}

// Armed reports whether the repeating tick is live.
func (c *Clock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker != nil
}

// Schedule replaces any pending deadline with a new one firing fn after
// delay.
func (c *Clock) Schedule(delay time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()

	var tm *time.Timer
	tm = time.AfterFunc(delay, func() {
		fn()
		c.mu.Lock()
		if c.deadline == tm {
			c.deadline = nil
		}
		c.mu.Unlock()
	})
	c.deadline = tm
}

// CancelSchedule drops the pending deadline, if any.
func (c *Clock) CancelSchedule() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Clock) cancelLocked() {
	if c.deadline == nil {
		return
	}
	c.deadline.Stop()
	c.deadline = nil
}

// Pending reports whether a deadline is scheduled.
func (c *Clock) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline != nil
}
