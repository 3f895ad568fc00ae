package clock

import (
	"testing"
	"time"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	m.AfterFunc(3*time.Second, func() { order = append(order, "c") })

	m.Advance(2 * time.Second)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected fire order after 2s: %v", order)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", m.Pending())
	}

	m.Advance(time.Second)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("expected c to fire at 3s, got %v", order)
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("first Stop should report true")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report false")
	}
	m.Advance(time.Minute)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestManualRescheduleFromCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(time.Second, tick)
	}
	m.AfterFunc(time.Second, tick)

	m.Advance(3500 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks in 3.5s, got %d", ticks)
	}
	if got := m.Now(); !got.Equal(time.Unix(0, 0).Add(3500 * time.Millisecond)) {
		t.Fatalf("clock did not land on target: %v", got)
	}
}
