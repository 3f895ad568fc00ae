package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/codewithjohnson/folio/pkg/clock"
	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/log"
	"github.com/codewithjohnson/folio/pkg/scroll"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server to client message types.
const (
	MsgInit   = "init"
	MsgTheme  = "theme"
	MsgCopied = "copied"
	MsgScroll = "scroll"
	MsgError  = "error"
)

// Client to server message types. Schedule only reports that the browser
// followed the scheduling link; the link itself opens natively.
const (
	MsgCopy     = "copy"
	MsgSchedule = "schedule"
)

// Query parameters of the /live/ws request.
const (
	// ParamTheme is the theme index the page was rendered with.
	ParamTheme = "theme"
	// ParamScroll asks for the scroll panel once it is Ready. Pages that
	// already rendered it Ready leave it out.
	ParamScroll = "scroll"
)

const (
	writeWait    = 10 * time.Second
	outboxSize   = 16
	maxClientMsg = 4096
)

// ThemePayload is the theme part of a server message.
type ThemePayload struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Message is sent from the server to the browser.
type Message struct {
	Type    string        `json:"type"`
	Session string        `json:"session,omitempty"`
	Theme   *ThemePayload `json:"theme,omitempty"`
	Copied  *bool         `json:"copied,omitempty"`
	HTML    string        `json:"html,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ClientMessage is sent from the browser. For copy messages the browser
// reports the outcome of its own clipboard write.
type ClientMessage struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ScrollRenderer renders the Ready state of the scroll widget to HTML.
type ScrollRenderer func(ctx context.Context, v scroll.View) (string, error)

// Handler upgrades /live/ws requests into sessions. Each session owns one
// contact panel and one scroll widget.
type Handler struct {
	Hub          *Hub
	Source       content.Source
	Clock        clock.Clock
	Email        string
	Dates        listing.DateFormatter
	RenderScroll ScrollRenderer

	upgrader websocket.Upgrader
}

var logger = log.ForService("live")

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		logger.Debugf("upgrade failed: %v", err)
		return
	}
	s := h.newSession(conn, parseSessionQuery(r))
	s.run(r.Context())
}

type sessionQuery struct {
	theme  *int
	scroll bool
}

// parseSessionQuery ignores malformed values: a bad theme falls back to a
// random one and anything but "1" leaves the scroll panel alone.
func parseSessionQuery(r *http.Request) sessionQuery {
	q := r.URL.Query()
	var sq sessionQuery
	if v, err := strconv.Atoi(q.Get(ParamTheme)); err == nil && contact.ValidThemeIndex(v) {
		sq.theme = &v
	}
	sq.scroll = q.Get(ParamScroll) == "1"
	return sq
}

// Session is one connected browser.
type Session struct {
	ID string

	h          *Handler
	conn       *websocket.Conn
	outbox     chan Message
	panel      *contact.Panel
	widget     *scroll.Widget
	wantScroll bool
	last       contact.State
}

func (h *Handler) newSession(conn *websocket.Conn, sq sessionQuery) *Session {
	c := h.Clock
	if c == nil {
		c = clock.Real()
	}
	s := &Session{
		ID:         uuid.NewString(),
		h:          h,
		conn:       conn,
		outbox:     make(chan Message, outboxSize),
		widget:     scroll.New(h.Dates),
		wantScroll: sq.scroll,
	}
	s.panel = contact.NewPanel(contact.Options{
		Clock:    c,
		Theme:    sq.theme,
		Email:    h.Email,
		OnChange: s.onPanelChange,
	})
	s.last = s.panel.State()
	return s
}

func (s *Session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	listenerID, events := s.h.Hub.Register()
	defer s.h.Hub.Unregister(listenerID)
	defer s.panel.Close()

	logger.Debugf("session %s connected", s.ID)
	defer logger.Debugf("session %s closed", s.ID)

	state := s.panel.State()
	if err := s.write(Message{Type: MsgInit, Session: s.ID, Theme: themePayload(state), Copied: &state.Copied}); err != nil {
		_ = s.conn.Close()
		return
	}
	s.observe(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, events)
		_ = s.conn.Close()
	}()

	s.readLoop(ctx)
	cancel()
	<-done
}

func (s *Session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxClientMsg)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("session %s read: %v", s.ID, err)
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(Message{Type: MsgError, Error: "invalid message"})
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case MsgCopy:
		err := s.panel.Copy(ctx, contact.ClipboardFunc(func(context.Context, string) error {
			if msg.OK {
				return nil
			}
			if msg.Error == "" {
				return errors.New("clipboard write failed")
			}
			return errors.New(msg.Error)
		}))
		if err != nil {
			logger.Debugf("session %s: %v", s.ID, err)
			s.send(Message{Type: MsgError, Error: "Could not copy the email address."})
		}
	case MsgSchedule:
		logger.Debugf("session %s followed the schedule link", s.ID)
	default:
		s.send(Message{Type: MsgError, Error: "unknown message type"})
	}
}

func (s *Session) writeLoop(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == EventReload {
				s.observe(ctx)
			}
		case msg := <-s.outbox:
			if err := s.write(msg); err != nil {
				logger.Debugf("session %s write: %v", s.ID, err)
				return
			}
		}
	}
}

// observe feeds the widget the current posts and queues the rendered panel
// on its one Loading to Ready transition. Sessions that did not ask for the
// panel never observe.
func (s *Session) observe(ctx context.Context) {
	if !s.wantScroll || !s.widget.Observe(s.h.Source.Posts()) {
		return
	}
	if s.h.RenderScroll == nil {
		return
	}
	html, err := s.h.RenderScroll(ctx, s.widget.View())
	if err != nil {
		logger.Errorf("rendering scroll panel: %v", err)
		return
	}
	s.send(Message{Type: MsgScroll, HTML: html})
}

// onPanelChange runs serialized by the panel, so s.last needs no lock.
func (s *Session) onPanelChange(state contact.State) {
	if state.ThemeIndex != s.last.ThemeIndex {
		s.send(Message{Type: MsgTheme, Theme: themePayload(state)})
	}
	if state.Copied != s.last.Copied {
		copied := state.Copied
		s.send(Message{Type: MsgCopied, Copied: &copied})
	}
	s.last = state
}

// send queues msg, dropping it when the client is not keeping up.
func (s *Session) send(msg Message) {
	select {
	case s.outbox <- msg:
	default:
		logger.Debugf("session %s: dropping %s message", s.ID, msg.Type)
	}
}

func (s *Session) write(msg Message) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func themePayload(state contact.State) *ThemePayload {
	return &ThemePayload{
		Index:     state.ThemeIndex,
		Name:      state.Theme.Name,
		Primary:   state.Theme.Primary,
		Secondary: state.Theme.Secondary,
	}
}
