package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
	"github.com/barisgudul/therapy-backend/internal/services"
)

type UserHandler struct {
	log     *logger.Logger
	erasure services.ErasureService
}

func NewUserHandler(log *logger.Logger, erasure services.ErasureService) *UserHandler {
	return &UserHandler{
		log:     log.With("handler", "UserHandler"),
		erasure: erasure,
	}
}

// EraseData deletes all behavioral records for the authenticated user.
func (h *UserHandler) EraseData(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.erasure.EraseUserData(c.Request.Context(), rd.UserID); err != nil {
		h.log.Error("user data erasure failed", "user_id", rd.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to erase user data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
