package ui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const counterFPS = 60

// Counter tweens a number towards its target with a critically damped
// spring and displays the floor of the animated value
type Counter struct {
	spring    harmonica.Spring
	pos       float64
	vel       float64
	target    float64
	animating bool
}

// NewCounter creates a counter resting at zero
func NewCounter() Counter {
	return Counter{
		spring: harmonica.NewSpring(harmonica.FPS(counterFPS), 6.0, 1.0),
	}
}

// SetTarget moves the goal. It returns true when a new animation loop must
// be started, i.e. the counter was at rest and now has somewhere to go.
func (c *Counter) SetTarget(v float64) bool {
	c.target = v
	if c.animating || c.settled() {
		return false
	}
	c.animating = true
	return true
}

// Step advances one frame and reports whether the counter is still moving
func (c *Counter) Step() bool {
	c.pos, c.vel = c.spring.Update(c.pos, c.vel, c.target)
	if c.settled() {
		c.pos, c.vel = c.target, 0
		c.animating = false
		return false
	}
	c.animating = true
	return true
}

// Animating reports whether a frame loop is running
func (c Counter) Animating() bool { return c.animating }

// Value is the displayed integer
func (c Counter) Value() int {
	return int(math.Floor(c.pos))
}

// Target returns the current goal
func (c Counter) Target() float64 { return c.target }

func (c Counter) settled() bool {
	return math.Abs(c.target-c.pos) < 0.01 && math.Abs(c.vel) < 0.01
}

func counterTick() tea.Cmd {
	return tea.Tick(time.Second/counterFPS, func(time.Time) tea.Msg {
		return counterFrameMsg{}
	})
}
