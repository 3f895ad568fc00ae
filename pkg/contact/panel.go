// Package contact holds the state behind the contact page: the copy-email
// confirmation, the rotating accent theme and the social link icons.
package contact

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/codewithjohnson/folio/pkg/clock"
)

const (
	// CopyResetDelay is how long the "copied" confirmation stays visible.
	CopyResetDelay = 2000 * time.Millisecond
	// ThemeInterval is the accent theme rotation period.
	ThemeInterval = 8000 * time.Millisecond
)

// ErrClosed is returned by operations on a closed Panel.
var ErrClosed = errors.New("contact panel closed")

// ClipboardWriter writes text to a clipboard. Implementations report the
// real outcome of the write.
type ClipboardWriter interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to ClipboardWriter.
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

// State is a snapshot of a Panel.
type State struct {
	Email      string
	Copied     bool
	ThemeIndex int
	Theme      Theme
}

// Options configures a Panel. Zero values get sensible defaults.
type Options struct {
	Clock    clock.Clock
	Rand     *rand.Rand
	// Theme is the initial theme index. When nil or out of range the
	// initial theme is drawn from Rand.
	Theme    *int
	Email    string
	OnChange func(State)
}

// Panel combines a CopyFeedback and a ThemeRotator. OnChange is called after
// every state change, never concurrently with itself and never after Close
// returns. OnChange must not call Close.
type Panel struct {
	email    string
	copy     *CopyFeedback
	theme    *ThemeRotator
	onChange func(State)

	emitMu sync.Mutex
	closed bool
}

// NewPanel starts the theme rotation and returns the panel.
func NewPanel(opts Options) *Panel {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p := &Panel{email: opts.Email, onChange: opts.OnChange}
	p.copy = NewCopyFeedback(opts.Clock, func(bool) { p.emit() })
	onTheme := func(int) { p.emit() }
	if opts.Theme != nil && ValidThemeIndex(*opts.Theme) {
		p.theme = NewThemeRotatorAt(opts.Clock, *opts.Theme, onTheme)
	} else {
		p.theme = NewThemeRotator(opts.Clock, opts.Rand, onTheme)
	}
	return p
}

// Email is the address written by Copy.
func (p *Panel) Email() string { return p.email }

// State returns the current snapshot.
func (p *Panel) State() State {
	idx := p.theme.Index()
	return State{
		Email:      p.email,
		Copied:     p.copy.Copied(),
		ThemeIndex: idx,
		Theme:      Themes[idx],
	}
}

// Copy writes the email to w and waits for the outcome. On success the
// confirmation is shown and its reset timer restarted. On failure the
// confirmation is left as it was and the error is returned.
func (p *Panel) Copy(ctx context.Context, w ClipboardWriter) error {
	if p.isClosed() {
		return ErrClosed
	}
	if err := w.WriteText(ctx, p.email); err != nil {
		return fmt.Errorf("copying %s to clipboard: %w", p.email, err)
	}
	p.copy.Trigger()
	return nil
}

// Close stops both timers. It is safe to call more than once.
func (p *Panel) Close() {
	p.emitMu.Lock()
	p.closed = true
	p.emitMu.Unlock()
	p.copy.Close()
	p.theme.Close()
}

func (p *Panel) isClosed() bool {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	return p.closed
}

func (p *Panel) emit() {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if p.closed || p.onChange == nil {
		return
	}
	p.onChange(p.State())
}

// CopyFeedback is the "copied" flag with its auto-reset. A new Trigger
// replaces any pending reset, so at most one reset timer is ever armed.
type CopyFeedback struct {
	mu       sync.Mutex
	clock    clock.Clock
	onChange func(bool)
	copied   bool
	timer    clock.Timer
	gen      uint64
	closed   bool
}

// NewCopyFeedback returns an unset flag. onChange may be nil.
func NewCopyFeedback(c clock.Clock, onChange func(bool)) *CopyFeedback {
	return &CopyFeedback{clock: c, onChange: onChange}
}

// Copied reports whether the confirmation is showing.
func (f *CopyFeedback) Copied() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copied
}

// Trigger sets the flag and schedules its reset after CopyResetDelay.
func (f *CopyFeedback) Trigger() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.copied = true
	f.timer = f.clock.AfterFunc(CopyResetDelay, func() { f.reset(gen) })
	f.mu.Unlock()

	f.notify(true)
}

func (f *CopyFeedback) reset(gen uint64) {
	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.copied = false
	f.timer = nil
	f.mu.Unlock()

	f.notify(false)
}

func (f *CopyFeedback) notify(copied bool) {
	if f.onChange != nil {
		f.onChange(copied)
	}
}

// Close cancels the pending reset.
func (f *CopyFeedback) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
