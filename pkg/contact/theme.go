package contact

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/codewithjohnson/folio/pkg/clock"
)

// Theme is an accent colour pair for the highlight behind the call to action.
type Theme struct {
	Name      string
	Primary   string
	Secondary string
}

// Themes is the fixed rotation order.
var Themes = []Theme{
	{Name: "orange", Primary: "#F97316", Secondary: "rgba(249, 115, 22, 0.2)"},
	{Name: "violet", Primary: "#8B5CF6", Secondary: "rgba(139, 92, 246, 0.2)"},
	{Name: "pink", Primary: "#EC4899", Secondary: "rgba(236, 72, 153, 0.2)"},
}

// ValidThemeIndex reports whether i addresses an entry of Themes.
func ValidThemeIndex(i int) bool { return i >= 0 && i < len(Themes) }

// ThemeRotator starts on a random theme and advances one step every
// ThemeInterval until closed.
type ThemeRotator struct {
	mu       sync.Mutex
	clock    clock.Clock
	onChange func(int)
	index    int
	timer    clock.Timer
	closed   bool
}

// NewThemeRotator draws the initial theme from rng and arms the interval.
func NewThemeRotator(c clock.Clock, rng *rand.Rand, onChange func(int)) *ThemeRotator {
	return NewThemeRotatorAt(c, rng.IntN(len(Themes)), onChange)
}

// NewThemeRotatorAt starts on Themes[index] and arms the interval. It panics
// if index is out of range; see ValidThemeIndex.
func NewThemeRotatorAt(c clock.Clock, index int, onChange func(int)) *ThemeRotator {
	if !ValidThemeIndex(index) {
		panic(fmt.Sprintf("contact: theme index %d out of range", index))
	}
	r := &ThemeRotator{clock: c, onChange: onChange, index: index}
	r.mu.Lock()
	r.schedule()
	r.mu.Unlock()
	return r
}

// Index returns the current position in Themes.
func (r *ThemeRotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Theme returns the current theme.
func (r *ThemeRotator) Theme() Theme {
	return Themes[r.Index()]
}

// Close stops the rotation.
func (r *ThemeRotator) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// schedule arms the next tick. Callers must hold r.mu.
func (r *ThemeRotator) schedule() {
	r.timer = r.clock.AfterFunc(ThemeInterval, r.tick)
}

func (r *ThemeRotator) tick() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.index = (r.index + 1) % len(Themes)
	idx := r.index
	r.schedule()
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(idx)
	}
}
