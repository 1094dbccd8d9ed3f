package tap

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

func newTestServer(t *testing.T, hub *Hub) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := NewServer(hub, WithRegistry(reg), WithNamespace("test"))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, reg
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestHubRegisterRejectsDuplicates(t *testing.T) {
	hub := NewHub()
	s, _ := rivulet.Pipe[any]()

	if err := hub.Register("ticks", s); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := hub.Register("ticks", s); err == nil {
		t.Error("duplicate registration must fail")
	}

	names := hub.Names()
	if len(names) != 1 || names[0] != "ticks" {
		t.Errorf("expected [ticks], got %v", names)
	}
}

func TestHealthListsStreams(t *testing.T) {
	hub := NewHub()
	a, _ := rivulet.Pipe[any]()
	b, _ := rivulet.Pipe[any]()
	hub.Register("beta", b)
	hub.Register("alpha", a)

	ts, _ := newTestServer(t, hub)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Status  string   `json:"status"`
		Streams []string `json:"streams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if len(body.Streams) != 2 || body.Streams[0] != "alpha" || body.Streams[1] != "beta" {
		t.Errorf("expected sorted stream names, got %v", body.Streams)
	}
}

func TestWebsocketReceivesFramesInOrder(t *testing.T) {
	hub := NewHub()
	stream, input := rivulet.Pipe[string]()
	if err := Publish(hub, "words", stream); err != nil {
		t.Fatal(err)
	}

	ts, _ := newTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/events/words"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	input.SendValue("one")
	input.SendValue("two")
	input.SendCompleted()

	for i, want := range []string{"one", "two"} {
		f := readFrame(t, conn)
		if f.Kind != "value" || f.Value != want || f.Stream != "words" {
			t.Errorf("frame %d: got %+v, want value %q", i, f, want)
		}
	}
	f := readFrame(t, conn)
	if f.Kind != "completed" {
		t.Errorf("expected terminal completed frame, got %+v", f)
	}
}

func TestWebsocketFailureFrameCarriesError(t *testing.T) {
	hub := NewHub()
	stream, input := rivulet.Pipe[int]()
	Publish(hub, "nums", stream)

	ts, _ := newTestServer(t, hub)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/events/nums"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	input.SendFailed(errors.New("boom"))

	f := readFrame(t, conn)
	if f.Kind != "failed" || f.Error != "boom" {
		t.Errorf("expected failed frame carrying the error text, got %+v", f)
	}
}

func TestWebsocketUnknownStream(t *testing.T) {
	hub := NewHub()
	ts, _ := newTestServer(t, hub)

	resp, err := http.Get(ts.URL + "/events/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown stream, got %d", resp.StatusCode)
	}
}

func TestMetricsCountForwardedEvents(t *testing.T) {
	hub := NewHub()
	stream, input := rivulet.Pipe[int]()
	Publish(hub, "nums", stream)

	ts, reg := newTestServer(t, hub)

	input.SendValue(1)
	input.SendValue(2)
	input.SendCompleted()

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var valueCount, completedCount float64
	for _, fam := range families {
		if fam.GetName() != "test_tap_events_forwarded_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			kind := ""
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" {
					kind = l.GetValue()
				}
			}
			switch kind {
			case "value":
				valueCount = m.GetCounter().GetValue()
			case "completed":
				completedCount = m.GetCounter().GetValue()
			}
		}
	}
	if valueCount != 2 {
		t.Errorf("expected 2 forwarded values, got %v", valueCount)
	}
	if completedCount != 1 {
		t.Errorf("expected 1 forwarded completion, got %v", completedCount)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics endpoint must serve the registry, got %d", resp.StatusCode)
	}
}
