package content

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "first.md", "---\ntitle: First\ndate: 2024-01-01\n---\nhi\n")

	lib := NewLibrary(NewLoader(root, false))
	if _, err := lib.Reload(); err != nil {
		t.Fatalf("initial reload: %v", err)
	}

	reloaded := make(chan []Post, 4)
	w := NewWatcher(lib, func(posts []Post) { reloaded <- posts })
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("watcher returned error: %v", err)
		}
	}()

	// Give the watcher a moment to register the directories.
	time.Sleep(100 * time.Millisecond)
	writePost(t, root, "second.md", "---\ntitle: Second\ndate: 2024-02-01\n---\nhello\n")

	select {
	case posts := <-reloaded:
		if len(posts) != 2 || posts[0].Slug != "second" {
			t.Fatalf("unexpected reload result: %+v", posts)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if lib.Len() != 2 {
		t.Fatalf("library not updated, has %d posts", lib.Len())
	}
}

func TestReloadLoopRunsOneReloadAtATime(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	started := make(chan struct{}, 8)
	release := make(chan struct{})

	loop := newReloadLoop(func() {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		started <- struct{}{}
		<-release
		active.Add(-1)
		runs.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.run(ctx)
	}()

	waitStarted := func(what string) {
		t.Helper()
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}

	loop.trigger()
	waitStarted("first reload")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.trigger()
		}()
	}
	wg.Wait()

	release <- struct{}{}
	waitStarted("follow-up reload")
	release <- struct{}{}

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the follow-up reload to finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if got := maxActive.Load(); got != 1 {
		t.Errorf("Expected reloads never to overlap, saw %d at once", got)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("Expected triggers during a reload to collapse into one, got %d runs", got)
	}
	select {
	case <-started:
		t.Error("Expected no reload after the follow-up")
	default:
	}
}
