package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/barisgudul/therapy-backend/internal/clients/redis"
	pkgerrors "github.com/barisgudul/therapy-backend/internal/pkg/errors"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
	"github.com/barisgudul/therapy-backend/internal/services"
)

type MemoryHandler struct {
	log         *logger.Logger
	ingestion   services.MemoryIngestionService
	dna         services.DnaSynthesisService
	cooldown    redis.Cooldown
	cooldownTTL time.Duration
}

// NewMemoryHandler wires the ingest endpoint. cooldown may be nil, which
// disables the ingest-triggered DNA refresh without affecting ingestion.
func NewMemoryHandler(
	log *logger.Logger,
	ingestion services.MemoryIngestionService,
	dna services.DnaSynthesisService,
	cooldown redis.Cooldown,
	cooldownTTL time.Duration,
) *MemoryHandler {
	return &MemoryHandler{
		log:         log.With("handler", "MemoryHandler"),
		ingestion:   ingestion,
		dna:         dna,
		cooldown:    cooldown,
		cooldownTTL: cooldownTTL,
	}
}

func (h *MemoryHandler) Ingest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input services.MemoryIngestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if input.UserID == uuid.Nil {
		input.UserID = rd.UserID
	}
	if input.UserID != rd.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "user mismatch"})
		return
	}

	if err := h.ingestion.Ingest(c.Request.Context(), input); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pkgerrors.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.maybeTriggerSynthesis(rd.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// maybeTriggerSynthesis enqueues one background DNA refresh per user per
// cooldown window. Detached from the request: the ingest response never
// waits on synthesis.
func (h *MemoryHandler) maybeTriggerSynthesis(userID uuid.UUID) {
	if h.cooldown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := h.cooldown.Allow(ctx, "dna:"+userID.String(), h.cooldownTTL)
	if err != nil {
		h.log.Warn("synthesis cooldown check failed", "user_id", userID, "error", err)
		return
	}
	if !ok {
		return
	}

	go func() {
		runCtx, runCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer runCancel()
		if err := h.dna.RunForUser(runCtx, userID); err != nil {
			h.log.Error("triggered dna synthesis failed", "user_id", userID, "error", err)
		}
	}()
}
