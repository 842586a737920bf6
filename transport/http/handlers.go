package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/service"
)

// Handlers contains the HTTP handlers for the verification endpoints.
type Handlers struct {
	svc *service.VerificationService
	log *slog.Logger
}

// NewHandlers creates new verification handlers.
func NewHandlers(svc *service.VerificationService, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{svc: svc, log: log}
}

// SignatureRequest is the payload posted by the browser signer page.
type SignatureRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// Signature handles a signature submission for a pending verification.
func (h *Handlers) Signature(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or signature"})
		return
	}

	result, err := h.svc.Verify(c.Request.Context(), req.UserID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoActiveSession):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No active verification"})
		case errors.Is(err, core.ErrSignatureMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature mismatch"})
		case errors.Is(err, core.ErrInvalidSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed signature"})
		default:
			// Never leak internal detail to the caller.
			h.log.Error("verification failed", "user_id", req.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"score":   result.Score,
		"roles":   result.Roles,
	})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
