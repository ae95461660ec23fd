package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
	"autotrader-backend/internal/usecase"
)

type fakeBot struct {
	running  bool
	startErr error
	starts   int
	stops    int
}

func (b *fakeBot) Start() error {
	b.starts++
	if b.startErr != nil {
		return b.startErr
	}
	b.running = true
	return nil
}

func (b *fakeBot) Stop() {
	b.stops++
	b.running = false
}

func (b *fakeBot) IsRunning() bool { return b.running }

func drainEvent(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return domain.Event{}
	}
}

func TestDispatchStartStop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	bot := &fakeBot{}
	h := NewHandler(hub, bot, usecase.NewSettings(15, 10), zap.NewNop())
	_, events := hub.Subscribe()

	h.dispatch(command{Command: "start"})
	if bot.starts != 1 || !bot.running {
		t.Fatalf("starts = %d, running = %v", bot.starts, bot.running)
	}
	if e := drainEvent(t, events); e.Type != domain.EventSuccess {
		t.Errorf("start event type = %s, want success", e.Type)
	}

	h.dispatch(command{Command: "stop"})
	if bot.stops != 1 || bot.running {
		t.Fatalf("stops = %d, running = %v", bot.stops, bot.running)
	}
	if e := drainEvent(t, events); e.Type != domain.EventWarning {
		t.Errorf("stop event type = %s, want warning", e.Type)
	}
}

func TestDispatchStartWhileRunning(t *testing.T) {
	hub := NewHub(zap.NewNop())
	bot := &fakeBot{startErr: usecase.ErrAlreadyRunning}
	h := NewHandler(hub, bot, usecase.NewSettings(15, 10), zap.NewNop())
	_, events := hub.Subscribe()

	h.dispatch(command{Command: "start"})

	e := drainEvent(t, events)
	if e.Type != domain.EventWarning {
		t.Errorf("event type = %s, want warning for a duplicate start", e.Type)
	}
}

func TestDispatchUpdateTradeAmount(t *testing.T) {
	hub := NewHub(zap.NewNop())
	settings := usecase.NewSettings(15, 10)
	h := NewHandler(hub, &fakeBot{}, settings, zap.NewNop())
	_, events := hub.Subscribe()

	h.dispatch(command{Command: "update_trade_amount", Value: 20})
	if e := drainEvent(t, events); e.Type != domain.EventSuccess {
		t.Errorf("event type = %s, want success", e.Type)
	}
	if settings.TradeAmount() != 20 {
		t.Errorf("trade amount = %g, want 20", settings.TradeAmount())
	}

	h.dispatch(command{Command: "update_trade_amount", Value: 5})
	if e := drainEvent(t, events); e.Type != domain.EventError {
		t.Errorf("event type = %s, want error for a sub-minimum amount", e.Type)
	}
	if settings.TradeAmount() != 20 {
		t.Errorf("rejected update changed the amount to %g", settings.TradeAmount())
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	hub := NewHub(zap.NewNop())
	h := NewHandler(hub, &fakeBot{}, usecase.NewSettings(15, 10), zap.NewNop())
	_, events := hub.Subscribe()

	h.dispatch(command{Command: "self_destruct"})
	if e := drainEvent(t, events); e.Type != domain.EventError {
		t.Errorf("event type = %s, want error", e.Type)
	}
}

func TestHandleRoundTrip(t *testing.T) {
	hub := NewHub(zap.NewNop())
	bot := &fakeBot{}
	h := NewHandler(hub, bot, usecase.NewSettings(15, 10), zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(h.Handle))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(command{Command: "start"}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event domain.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}
	if event.Type != domain.EventSuccess {
		t.Errorf("event = %+v, want the start confirmation", event)
	}
}
