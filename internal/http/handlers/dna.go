package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/barisgudul/therapy-backend/internal/http/response"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/services"
)

type DnaHandler struct {
	log *logger.Logger
	dna services.DnaSynthesisService
}

func NewDnaHandler(log *logger.Logger, dna services.DnaSynthesisService) *DnaHandler {
	return &DnaHandler{
		log: log.With("handler", "DnaHandler"),
		dna: dna,
	}
}

type synthesizeRequest struct {
	UserID *uuid.UUID `json:"user_id"`
	// Older clients send camelCase.
	UserIDCamel *uuid.UUID `json:"userId"`
}

func (r synthesizeRequest) userID() *uuid.UUID {
	if r.UserID != nil {
		return r.UserID
	}
	return r.UserIDCamel
}

// Synthesize runs the batch for one user when the body names one, or for
// every user when the body is empty.
func (h *DnaHandler) Synthesize(c *gin.Context) {
	var req synthesizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	if target := req.userID(); target != nil && *target != uuid.Nil {
		if err := h.dna.RunForUser(c.Request.Context(), *target); err != nil {
			response.RespondError(c, http.StatusInternalServerError, "dna_synthesis_failed", err)
			return
		}
		response.RespondOK(c, gin.H{
			"message": fmt.Sprintf("dna synthesis completed for user %s", target),
		})
		return
	}

	summary, err := h.dna.RunAll(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "dna_synthesis_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"message": fmt.Sprintf("dna synthesis processed %d users", summary.Processed),
		"counts":  summary,
	})
}
