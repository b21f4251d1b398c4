// Package input is the sampler adapter between the raw capture
// collaborator and the focus analyzer. The capture layer delivers
// discrete key/pointer events into a Collector; the evaluation loop
// periodically drains the accumulated counters into one immutable Sample.
package input

import (
	"math"
	"sync"
	"time"
)

// Sample is one drained interaction window. Immutable once produced.
type Sample struct {
	Timestamp             time.Time `json:"timestamp"`
	KeystrokeCount        int       `json:"keystroke_count"`
	MouseMovementDistance float64   `json:"mouse_movement_distance"`
	MouseClickCount       int       `json:"mouse_click_count"`
	IdleTime              float64   `json:"idle_time"` // seconds since last activity
}

// Collector accumulates interaction counters between drains. All methods
// are safe for concurrent use; event delivery and draining contend on a
// single mutex so no event is lost or double-counted across a drain
// boundary.
type Collector struct {
	mu            sync.Mutex
	keystrokes    int
	mouseDistance float64
	mouseClicks   int
	lastActivity  time.Time
	lastX, lastY  float64
	hasLastPos    bool

	now func() time.Time
}

// NewCollector creates a collector with zeroed counters. The collector
// starts "active now" so idle time is measured from creation until the
// first event arrives.
func NewCollector() *Collector {
	c := &Collector{now: time.Now}
	c.lastActivity = c.now()
	return c
}

// KeyPress records one keystroke.
func (c *Collector) KeyPress() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keystrokes++
	c.lastActivity = c.now()
}

// PointerMove records a pointer position. Distance accumulates as the
// Euclidean length of each movement since the previously seen position;
// the first position only establishes the origin.
func (c *Collector) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasLastPos {
		dx := x - c.lastX
		dy := y - c.lastY
		c.mouseDistance += math.Sqrt(dx*dx + dy*dy)
		c.lastActivity = c.now()
	}
	c.lastX, c.lastY = x, y
	c.hasLastPos = true
}

// Click records one pointer click (press only).
func (c *Collector) Click() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mouseClicks++
	c.lastActivity = c.now()
}

// Drain atomically snapshots the accumulated counters into a Sample and
// resets them. The last pointer position survives the reset so movement
// distance stays continuous across windows.
func (c *Collector) Drain() Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Sample{
		Timestamp:             now,
		KeystrokeCount:        c.keystrokes,
		MouseMovementDistance: c.mouseDistance,
		MouseClickCount:       c.mouseClicks,
		IdleTime:              now.Sub(c.lastActivity).Seconds(),
	}

	c.keystrokes = 0
	c.mouseDistance = 0
	c.mouseClicks = 0

	return s
}
