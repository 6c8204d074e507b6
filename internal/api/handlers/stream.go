package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Liszten/kpiComp/internal/analysis"
	"github.com/Liszten/kpiComp/pkg/logger"
)

const writeWait = 10 * time.Second

// StreamMessage is one websocket frame sent to the client
type StreamMessage struct {
	Type     string             `json:"type"` // progress, report, error
	Progress *analysis.Progress `json:"progress,omitempty"`
	Report   *analysis.Report   `json:"report,omitempty"`
	Error    string             `json:"error,omitempty"`
	Status   int                `json:"status,omitempty"`
}

// StreamHandler streams analysis progress over a websocket
type StreamHandler struct {
	service  AnalysisService
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new streaming handler
func NewStreamHandler(service AnalysisService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Analyze upgrades the connection, sends progress frames and then the report or an error
// GET /ws/analyze/{ticker}
func (h *StreamHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ticker, ok := normalizeTicker(mux.Vars(r)["ticker"])

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// progress arrives from peer fetch goroutines
	var mu sync.Mutex
	send := func(msg StreamMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.WithError(err).Debug("Websocket write failed")
		}
	}

	if !ok {
		send(StreamMessage{Type: "error", Error: "Invalid ticker", Status: http.StatusBadRequest})
		return
	}

	report, err := h.service.AnalyzeWithProgress(r.Context(), ticker, func(p analysis.Progress) {
		send(StreamMessage{Type: "progress", Progress: &p})
	})
	if err != nil {
		status, message := classifyError(ticker, err)
		send(StreamMessage{Type: "error", Error: message, Status: status})
		return
	}

	send(StreamMessage{Type: "report", Report: report})

	mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
	mu.Unlock()
}
