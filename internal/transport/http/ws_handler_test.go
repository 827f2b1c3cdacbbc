package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brainy-quiz-service/internal/infra/memory"
	"brainy-quiz-service/internal/seed"
	"github.com/gorilla/websocket"
)

func TestWebSocketSessionFlow(t *testing.T) {
	store := memory.NewContentStore(seed.Sample())
	if err := store.LoadInitialDataIfNeeded(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	wsHandler := NewWSHandler(store, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?stageId=country_stage_1&userId=u1&category=country"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives before any operation.
	typ, payload := readNext(conn, t, "state")
	if payload["phase"] != "idle" {
		t.Fatalf("expected idle snapshot, got %v", payload["phase"])
	}

	writeMsg(conn, t, "start", nil)
	waitForPhase(conn, t, "inProgress")

	writeMsg(conn, t, "selectOption", map[string]any{"index": 0})
	writeMsg(conn, t, "submit", nil)

	resultSeen := false
	completedSeen := false
	for i := 0; i < 10 && !(resultSeen && completedSeen); i++ {
		typ, payload = readNext(conn, t, "")
		switch typ {
		case "result":
			resultSeen = true
			if payload["score"] != float64(1) {
				t.Fatalf("expected result score 1, got %v", payload["score"])
			}
		case "state":
			if payload["phase"] == "completed" {
				completedSeen = true
			}
		}
	}
	if !resultSeen || !completedSeen {
		t.Fatalf("expected completed state and result, got completed=%v result=%v", completedSeen, resultSeen)
	}
}

func TestWebSocketConfiguredQuestionSeconds(t *testing.T) {
	store := memory.NewContentStore(seed.Sample())
	if err := store.LoadInitialDataIfNeeded(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	wsHandler := NewWSHandler(store, 20)

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "?stageId=general_stage_1&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	writeMsg(conn, t, "start", nil)
	for i := 0; i < 10; i++ {
		typ, payload := readNext(conn, t, "")
		if typ != "state" || payload["phase"] != "inProgress" {
			continue
		}
		if payload["timeRemaining"] != float64(20) {
			t.Fatalf("expected configured countdown 20, got %v", payload["timeRemaining"])
		}
		return
	}
	t.Fatalf("never observed in-progress state")
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	wsHandler := NewWSHandler(memory.NewContentStore(seed.Sample()), 0)
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeMsg(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func waitForPhase(conn *websocket.Conn, t *testing.T, phase string) {
	t.Helper()
	for i := 0; i < 10; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "state" && payload["phase"] == phase {
			return
		}
	}
	t.Fatalf("never observed phase %s", phase)
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
