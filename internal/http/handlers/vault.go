package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/http/response"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
	"github.com/barisgudul/therapy-backend/internal/services"
)

type VaultHandler struct {
	log    *logger.Logger
	vault  services.VaultService
	traits services.TraitService
}

func NewVaultHandler(log *logger.Logger, vault services.VaultService, traits services.TraitService) *VaultHandler {
	return &VaultHandler{
		log:    log.With("handler", "VaultHandler"),
		vault:  vault,
		traits: traits,
	}
}

func (h *VaultHandler) GetVault(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	doc, err := h.vault.GetMergedVault(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "vault_read_failed", err)
		return
	}
	response.RespondOK(c, doc)
}

func (h *VaultHandler) UpdateVault(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var update types.VaultDocument
	if err := c.ShouldBindJSON(&update); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := h.vault.ApplyVaultUpdate(c.Request.Context(), update); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "vault_write_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (h *VaultHandler) GetTraits(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	traits := h.traits.GetTraitsForUser(c.Request.Context(), rd.UserID)
	response.RespondOK(c, gin.H{"traits": traits})
}
