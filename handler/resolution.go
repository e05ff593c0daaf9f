package handler

import (
	"net/http"

	"github.com/AnTengye/fleetdocs/service"
	"github.com/AnTengye/fleetdocs/store"
	"github.com/gin-gonic/gin"
)

type ResolutionHandler struct {
	registry store.Registry
	sessions *service.SessionStore
}

func NewResolutionHandler(registry store.Registry) *ResolutionHandler {
	return &ResolutionHandler{
		registry: registry,
		sessions: service.GetSessionStore(),
	}
}

type RematchRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

type SelectRequest struct {
	VehicleID uint `json:"vehicle_id" binding:"required"`
}

// Get returns the currently presented item and queue progress
func (h *ResolutionHandler) Get(c *gin.Context) {
	session := h.sessions.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	h.respondState(c, session, "")
}

// Rematch re-runs the matcher with an operator-corrected identifier and,
// on success, merges and advances to the next item. On failure the item
// stays presented and the error is surfaced inline.
func (h *ResolutionHandler) Rematch(c *gin.Context) {
	session := h.sessions.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req RematchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var outcome string
	err := session.Do(func(q *service.ResolutionQueue) error {
		var err error
		outcome, err = q.Rematch(c.Request.Context(), req.Identifier)
		return err
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	h.respondState(c, session, outcome)
}

// Select merges the presented document into an explicitly chosen vehicle,
// bypassing matching, and advances to the next item.
func (h *ResolutionHandler) Select(c *gin.Context) {
	session := h.sessions.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	vehicle, err := h.registry.GetVehicle(c.Request.Context(), req.VehicleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		return
	}

	var outcome string
	err = session.Do(func(q *service.ResolutionQueue) error {
		var err error
		outcome, err = q.Select(c.Request.Context(), vehicle)
		return err
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	h.respondState(c, session, outcome)
}

// Skip drops the presented item without resolving it
func (h *ResolutionHandler) Skip(c *gin.Context) {
	session := h.sessions.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	_ = session.Do(func(q *service.ResolutionQueue) error {
		q.Skip()
		return nil
	})

	h.respondState(c, session, "")
}

// Close drops all remaining items and ends the session
func (h *ResolutionHandler) Close(c *gin.Context) {
	session := h.sessions.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	_ = session.Do(func(q *service.ResolutionQueue) error {
		q.Close()
		return nil
	})

	h.respondState(c, session, "")
}

// respondState renders the queue state after a transition. Once the queue
// is done, the session is discarded and the response carries the
// refreshed vehicle/contract listing so the caller reflects every merge
// performed during the session, even when items were skipped.
func (h *ResolutionHandler) respondState(c *gin.Context, session *service.ResolutionSession, outcome string) {
	var (
		done         bool
		current      any
		index, total int
	)
	_ = session.Do(func(q *service.ResolutionQueue) error {
		done = q.Done()
		index, total = q.Progress()
		if item, ok := q.Current(); ok {
			current = item
		}
		return nil
	})

	response := gin.H{
		"done":  done,
		"index": index,
		"total": total,
	}
	if outcome != "" {
		response["outcome"] = outcome
	}

	if done {
		h.sessions.Delete(session.ID)
		vehicles, err := h.registry.ListVehiclesWithContracts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh vehicle listing"})
			return
		}
		response["vehicles"] = vehicles
	} else {
		response["current"] = current
	}

	c.JSON(http.StatusOK, response)
}
