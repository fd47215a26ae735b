package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) last() (domain.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return domain.Message{}, false
	}
	var msg domain.Message
	if err := json.Unmarshal(f.frames[len(f.frames)-1], &msg); err != nil {
		return domain.Message{}, false
	}
	return msg, true
}

func newTestServer(t *testing.T) (*httptest.Server, *Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := core.NewRegistry()
	rooms := core.NewRoomSet()
	ctl := &Controller{
		Registry: reg,
		Rooms:    rooms,
		Router:   core.NewRouter(reg, rooms),
	}

	r := gin.New()
	r.GET("/events", ctl.Stream)
	r.POST("/send", ctl.Send)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, ctl
}

func TestStream_RequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStream_RegistersAndPushesFrames(t *testing.T) {
	srv, ctl := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?userId=patient-b", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	welcome := readEvent(t, reader)
	if welcome.Kind != domain.KindConnected {
		t.Fatalf("expected connected welcome, got %s", welcome.Kind)
	}

	// Registration is implicit and immediate.
	if _, ok := ctl.Registry.Lookup("patient-b"); !ok {
		t.Fatalf("expected stream to register its user id")
	}

	msg := domain.NewMessage(domain.KindCallNotification, "doctor-a")
	msg.To = "patient-b"
	msg.Data = map[string]any{"sessionId": "s1"}
	ctl.Router.Route(msg)

	got := readEvent(t, reader)
	if got.Kind != domain.KindCallNotification || got.Data["sessionId"] != "s1" {
		t.Fatalf("unexpected pushed frame: %+v", got)
	}

	// Cancelling the stream eventually unregisters the user.
	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for ctl.Registry.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected unregister after stream cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// readEvent parses the next `data: <json>` frame off the stream.
func readEvent(t *testing.T, r *bufio.Reader) domain.Message {
	t.Helper()
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		var msg domain.Message
		if err := json.Unmarshal(bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:"))), &msg); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return msg
	}
}

func TestSend_RoutesToRegisteredConn(t *testing.T) {
	srv, ctl := newTestServer(t)
	sink := &fakeConn{}
	ctl.Registry.Register("doctor-a", sink)

	body := `{"kind":"chat_message","from":"patient-b","to":"doctor-a","data":{"text":"hi"}}`
	resp, err := http.Post(srv.URL+"/send", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Delivered int `json:"delivered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", out.Delivered)
	}

	got, ok := sink.last()
	if !ok || got.Kind != domain.KindChatMessage {
		t.Fatalf("expected chat frame at the sink, got %+v", got)
	}
	if got.ID == "" || got.Timestamp == 0 {
		t.Fatalf("send endpoint must stamp id and timestamp")
	}
}

func TestSend_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{oops`},
		{"unknown kind", `{"kind":"teleport","from":"a"}`},
		{"missing from", `{"kind":"chat_message"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/send", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}
