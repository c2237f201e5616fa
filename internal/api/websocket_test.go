package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docscaffold/internal/pipeline"
	"github.com/gorilla/websocket"
)

func dialUI(t *testing.T, srv *Server, header http.Header) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocket_FailureKeepsSessionOpenThenSuccessTerminates(t *testing.T) {
	srv, mem := newTestServer(t, testConfig())
	conn := dialUI(t, srv, nil)

	// An ignored message type produces no reply.
	if err := conn.WriteJSON(pipeline.Message{Type: "resize", Payload: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := conn.WriteJSON(pipeline.Message{Type: pipeline.MessageParseAndGenerate, Payload: "Home -> Hero\npages: x"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != "notify" || f.Message != "Do not mix global and page-specific syntax" {
		t.Fatalf("expected mixed-syntax notification, got %+v", f)
	}
	if pages, _ := mem.Pages(); len(pages) != 0 {
		t.Fatalf("parse failure must not create pages")
	}

	if err := conn.WriteJSON(pipeline.Message{Type: pipeline.MessageParseAndGenerate, Payload: "Home -> Hero"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != "notify" || f.Message != pipeline.SuccessMessage {
		t.Fatalf("expected success notification, got %+v", f)
	}
	if f := readFrame(t, conn); f.Type != "terminate" {
		t.Fatalf("expected terminate frame, got %+v", f)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close after terminate, got %v", err)
	}
	if active := mem.ActivePage(); active == nil || active.Name != "Home" {
		t.Errorf("expected Home to be active, got %+v", active)
	}
}

func TestWebSocket_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	conn := dialUI(t, srv, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != "notify" || !strings.HasPrefix(f.Message, "Invalid message") {
		t.Fatalf("unexpected frame %+v", f)
	}
}

func TestWebSocket_OriginCheck(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://ui.example"}
	srv, _ := newTestServer(t, cfg)
	ts := httptest.NewServer(srv)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake to fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %+v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://ui.example"}})
	if err != nil {
		t.Fatalf("expected allowed origin to connect: %v", err)
	}
	conn.Close()
}

func TestWebSocket_QueryAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	srv, _ := newTestServer(t, cfg)
	ts := httptest.NewServer(srv)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	if _, _, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatal("expected unauthenticated handshake to fail")
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?api_key=secret", nil)
	if err != nil {
		t.Fatalf("expected api_key query to authenticate: %v", err)
	}
	conn.Close()
}
