package http

import (
	"encoding/json"
	"log"
	"net/http"

	"brainy-quiz-service/internal/app"
	"brainy-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one quiz session per websocket connection.
type WSHandler struct {
	store           app.ContentStore
	questionSeconds int // 0 keeps the engine default
	upgrader        websocket.Upgrader
}

func NewWSHandler(store app.ContentStore, questionSeconds int) *WSHandler {
	return &WSHandler{
		store:           store,
		questionSeconds: questionSeconds,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectOptionPayload struct {
	Index int `json:"index"`
}

type shortAnswerPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into a session
// engine: inbound messages become engine operations, state transitions and
// the persisted result flow back out.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	stageID := r.URL.Query().Get("stageId")
	userID := r.URL.Query().Get("userId")
	if stageID == "" || userID == "" {
		http.Error(w, "missing stageId or userId", http.StatusBadRequest)
		return
	}
	mode := domain.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeMultipleChoice
	}
	category := domain.Category(r.URL.Query().Get("category"))
	if category == "" {
		category = domain.CategoryGeneral
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	coordinator := app.NewCoordinator()
	presenter := app.PresenterFunc(func(result domain.StageResult) {
		coordinator.PresentResult(result)
		select {
		case send <- outboundMessage[any]{Type: "result", Payload: result}:
		case <-closeSignals:
		}
	})

	engine := app.NewSessionEngine(h.store, presenter, userID, mode, category, stageID)
	engine.SetQuestionSeconds(h.questionSeconds)
	coordinator.Push(app.NewQuizSessionScreen(engine))
	defer engine.Stop()

	updates, cancel := engine.Subscribe()
	defer cancel()

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			engine.Start(r.Context())
		case "selectOption":
			var payload selectOptionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectOption payload"}}
				continue
			}
			engine.SelectOption(payload.Index)
		case "shortAnswer":
			var payload shortAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid shortAnswer payload"}}
				continue
			}
			engine.SetShortAnswer(payload.Text)
		case "submit":
			engine.SubmitAnswer(r.Context())
		case "skip":
			engine.Skip(r.Context())
		case "retry":
			// Dismiss the result (if presented) and restart the session
			// entry underneath; the engine instance is reused.
			coordinator.RouteToMostRecent(r.Context(), app.KindQuizSession, app.RestartQuiz{})
		case "retrySave":
			engine.RetrySave(r.Context())
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
