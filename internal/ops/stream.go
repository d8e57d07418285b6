package ops

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/monitoring"
	"github.com/GriffinCanCode/streamdup/internal/relay"
)

// writeWait bounds each websocket write so a stalled client cannot pin
// the pusher goroutine.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same trust domain as /metrics
	},
}

// frame is the wire format pushed to stream clients.
type frame struct {
	Type      string          `json:"type"`
	ClientID  string          `json:"client_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Stats     *relay.Snapshot `json:"stats,omitempty"`
}

// StreamHandler pushes periodic session snapshots over a websocket.
type StreamHandler struct {
	session  statsSource
	log      *logging.Logger
	metrics  *monitoring.Metrics
	interval time.Duration
}

// NewStreamHandler creates a websocket handler pushing one snapshot per
// second.
func NewStreamHandler(session statsSource, log *logging.Logger, metrics *monitoring.Metrics) *StreamHandler {
	return &StreamHandler{
		session:  session,
		log:      log,
		metrics:  metrics,
		interval: time.Second,
	}
}

// HandleConnection upgrades the request and streams snapshots until the
// client disconnects or the session stops. The final frame carries type
// "stopped" with the closing snapshot.
func (h *StreamHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID := uuid.New().String()
	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	h.log.Debug("stream client connected", zap.String("client_id", clientID))

	hello := frame{
		Type:      "hello",
		ClientID:  clientID,
		SessionID: h.session.ID().String(),
	}
	if err := h.send(conn, hello); err != nil {
		return
	}
	h.metrics.RecordWSMessage("out", "hello")

	// We never expect client messages, but reading is the only way to
	// observe the peer closing the connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.log.Debug("stream client disconnected", zap.String("client_id", clientID))
			return
		case <-ticker.C:
			snap := h.session.Snapshot()
			out := frame{Type: "stats", Stats: &snap}
			stopped := h.session.State() == relay.StateStopped
			if stopped {
				out.Type = "stopped"
			}

			if err := h.send(conn, out); err != nil {
				h.log.Debug("stream client write failed",
					zap.String("client_id", clientID),
					zap.Error(err))
				return
			}
			h.metrics.RecordWSMessage("out", out.Type)

			if stopped {
				h.log.Debug("stream closing with session", zap.String("client_id", clientID))
				return
			}
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, f frame) error {
	buf, err := sonic.Marshal(f)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, buf)
}
