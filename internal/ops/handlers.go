package ops

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/streamdup/internal/relay"
	"github.com/GriffinCanCode/streamdup/internal/shared/id"
)

// statsSource is the slice of the relay session the ops surface reads.
// Everything behind it is a lock-free snapshot, so handlers never touch
// the streaming goroutine.
type statsSource interface {
	ID() id.SessionID
	State() relay.State
	Snapshot() relay.Snapshot
}

// Handlers serves the read-only diagnostic endpoints.
type Handlers struct {
	session statsSource
}

// NewHandlers creates the endpoint handlers for a session.
func NewHandlers(session statsSource) *Handlers {
	return &Handlers{session: session}
}

// Root handles the service info endpoint.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "streamdup",
		"session": h.session.ID().String(),
	})
}

// Health reports session liveness and the current destination count.
func (h *Handlers) Health(c *gin.Context) {
	snap := h.session.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"state":        snap.State,
		"destinations": snap.Destinations,
	})
}

// Stats returns the full session snapshot.
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}
