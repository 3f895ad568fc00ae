package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codewithjohnson/folio/pkg/clock"
	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/scroll"
	"github.com/gorilla/websocket"
)

type liveFixture struct {
	hub   *Hub
	clock *clock.Manual
	lib   *content.Library
	ts    *httptest.Server
}

func newLiveFixture(t *testing.T, posts []content.Post) *liveFixture {
	t.Helper()
	f := &liveFixture{
		hub:   NewHub(8),
		clock: clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		lib:   content.NewLibrary(nil),
	}
	f.lib.Set(posts)
	h := &Handler{
		Hub:         f.hub,
		Source:      f.lib,
		Clock:       f.clock,
		Email:       "codewithjohnson@gmail.com",
		Dates:       listing.NewDateFormatter("en-US"),
		RenderScroll: func(_ context.Context, v scroll.View) (string, error) {
			slugs := make([]string, len(v.Cards))
			for i, c := range v.Cards {
				slugs[i] = c.Slug
			}
			return strings.Join(slugs, ","), nil
		},
	}
	f.ts = httptest.NewServer(h)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *liveFixture) dial(t *testing.T) (*websocket.Conn, Message) {
	t.Helper()
	return f.dialQuery(t, "")
}

// dialQuery connects with the raw query string query, e.g. "scroll=1".
func (f *liveFixture) dialQuery(t *testing.T, query string) (*websocket.Conn, Message) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.ts.URL, "http")
	if query != "" {
		u += "?" + query
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	init := readMessage(t, conn)
	if init.Type != MsgInit {
		t.Fatalf("expected init message, got %q", init.Type)
	}
	return conn, init
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func samplePosts(n int) []content.Post {
	posts := make([]content.Post, n)
	for i := range posts {
		posts[i] = content.Post{
			Slug:  "p" + string(rune('a'+i)),
			Title: "Post",
			Date:  time.Date(2024, 1, 20-i, 0, 0, 0, 0, time.UTC),
		}
	}
	return posts
}

func TestSessionInit(t *testing.T) {
	f := newLiveFixture(t, nil)
	_, init := f.dial(t)

	if init.Session == "" {
		t.Fatal("expected a session id")
	}
	if init.Theme == nil || init.Theme.Index < 0 || init.Theme.Index >= len(contact.Themes) {
		t.Fatalf("unexpected theme %+v", init.Theme)
	}
	if init.Copied == nil || *init.Copied {
		t.Fatalf("expected copied=false, got %v", init.Copied)
	}
	waitFor(t, "listener registration", func() bool { return f.hub.Size() == 1 })
}

func TestSessionScrollReadyOnce(t *testing.T) {
	f := newLiveFixture(t, samplePosts(8))
	conn, _ := f.dialQuery(t, "scroll=1")

	msg := readMessage(t, conn)
	if msg.Type != MsgScroll {
		t.Fatalf("expected scroll message, got %q", msg.Type)
	}
	if got := strings.Count(msg.HTML, ",") + 1; got != scroll.MaxCards {
		t.Fatalf("expected %d cards, got %d (%s)", scroll.MaxCards, got, msg.HTML)
	}

	// reloads after Ready never produce another scroll message
	f.lib.Set(nil)
	f.hub.Broadcast(NewReloadEvent(0, time.Now()))
	writeMessage(t, conn, ClientMessage{Type: MsgCopy, OK: true})
	next := readMessage(t, conn)
	if next.Type != MsgCopied {
		t.Fatalf("expected copied after reload, got %q", next.Type)
	}
}

func TestSessionWithoutScrollParamSkipsPanel(t *testing.T) {
	f := newLiveFixture(t, samplePosts(3))
	for _, query := range []string{"", "scroll=0", "scroll=yes"} {
		conn, _ := f.dialQuery(t, query)

		// the copy reply is the first message, so no scroll panel was queued
		writeMessage(t, conn, ClientMessage{Type: MsgCopy, OK: true})
		if msg := readMessage(t, conn); msg.Type != MsgCopied {
			t.Fatalf("query %q: expected copied first, got %+v", query, msg)
		}
	}
}

func TestSessionStartsOnPageTheme(t *testing.T) {
	f := newLiveFixture(t, nil)
	for i := range contact.Themes {
		_, init := f.dialQuery(t, fmt.Sprintf("theme=%d", i))
		if init.Theme == nil || init.Theme.Index != i || init.Theme.Name != contact.Themes[i].Name {
			t.Fatalf("theme=%d: got %+v", i, init.Theme)
		}
	}
	for _, bad := range []string{"theme=-1", "theme=3", "theme=violet"} {
		_, init := f.dialQuery(t, bad)
		if init.Theme == nil || !contact.ValidThemeIndex(init.Theme.Index) {
			t.Fatalf("%s: expected a valid fallback theme, got %+v", bad, init.Theme)
		}
	}
}

func TestSessionScrollWaitsForPosts(t *testing.T) {
	f := newLiveFixture(t, nil)
	conn, _ := f.dialQuery(t, "scroll=1")
	waitFor(t, "listener registration", func() bool { return f.hub.Size() == 1 })

	f.lib.Set(samplePosts(2))
	f.hub.Broadcast(NewReloadEvent(2, time.Now()))

	msg := readMessage(t, conn)
	if msg.Type != MsgScroll || msg.HTML != "pa,pb" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestSessionCopyAndReset(t *testing.T) {
	f := newLiveFixture(t, nil)
	conn, _ := f.dial(t)

	writeMessage(t, conn, ClientMessage{Type: MsgCopy, OK: true})
	msg := readMessage(t, conn)
	if msg.Type != MsgCopied || msg.Copied == nil || !*msg.Copied {
		t.Fatalf("expected copied=true, got %+v", msg)
	}

	f.clock.Advance(contact.CopyResetDelay)
	msg = readMessage(t, conn)
	if msg.Type != MsgCopied || msg.Copied == nil || *msg.Copied {
		t.Fatalf("expected copied=false, got %+v", msg)
	}
}

func TestSessionCopyFailure(t *testing.T) {
	f := newLiveFixture(t, nil)
	conn, _ := f.dial(t)

	writeMessage(t, conn, ClientMessage{Type: MsgCopy, OK: false, Error: "NotAllowedError"})
	msg := readMessage(t, conn)
	if msg.Type != MsgError {
		t.Fatalf("expected error message, got %+v", msg)
	}
}

func TestSessionThemeRotation(t *testing.T) {
	f := newLiveFixture(t, nil)
	conn, init := f.dial(t)

	f.clock.Advance(contact.ThemeInterval)
	msg := readMessage(t, conn)
	if msg.Type != MsgTheme || msg.Theme == nil {
		t.Fatalf("expected theme message, got %+v", msg)
	}
	if want := (init.Theme.Index + 1) % len(contact.Themes); msg.Theme.Index != want {
		t.Fatalf("theme index %d, want %d", msg.Theme.Index, want)
	}
}

func TestSessionScheduleIsNotAnswered(t *testing.T) {
	f := newLiveFixture(t, nil)
	conn, _ := f.dial(t)

	// the browser opens the link itself; the report gets no reply
	writeMessage(t, conn, ClientMessage{Type: MsgSchedule})
	writeMessage(t, conn, ClientMessage{Type: MsgCopy, OK: true})
	if msg := readMessage(t, conn); msg.Type != MsgCopied {
		t.Fatalf("expected copied as the next message, got %+v", msg)
	}
}

func TestSessionTeardown(t *testing.T) {
	f := newLiveFixture(t, nil)
	conn, _ := f.dial(t)
	waitFor(t, "listener registration", func() bool { return f.hub.Size() == 1 })
	if f.clock.Pending() == 0 {
		t.Fatal("expected the theme timer to be armed")
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	waitFor(t, "listener removal", func() bool { return f.hub.Size() == 0 })
	waitFor(t, "timers cancelled", func() bool { return f.clock.Pending() == 0 })
}
