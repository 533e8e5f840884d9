// Account and persona handlers for the tenant dashboard.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
	"github.com/tbourn/go-receptionist-backend/internal/services"
)

// UpdatePersonaRequest selects a new persona.
type UpdatePersonaRequest struct {
	VoiceID string `json:"voiceId" binding:"required" example:"coach"`
}

// ListPersonasResponse lists the selectable personas.
type ListPersonasResponse struct {
	Personas []domain.Persona `json:"personas"`
	Default  string           `json:"default,omitempty" example:"tradie"`
}

// GetAccount godoc
// @ID          getAccount
// @Summary     Current tenant account
// @Description Returns the tenant profile, persona and, once provisioned, the receptionist phone number.
// @Tags        Account
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.Account
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "No profile yet"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/v1/account [get]
func (h *Handlers) GetAccount(c *gin.Context) {
	acc, err := h.d.Accounts.Get(c.Request.Context(), userID(c))
	switch {
	case err == nil:
		ok(c, http.StatusOK, acc)
	case errors.Is(err, services.ErrUserRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgMissingUser)
	case errors.Is(err, services.ErrProfileNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// UpdatePersona godoc
// @ID          updatePersona
// @Summary     Switch receptionist persona
// @Description Clones the persona's blueprint assistant with the tenant's business name, points the tenant's number at it and stores the new selection.
// @Tags        Account
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdatePersonaRequest  true  "New persona"
//
// @Success     200  {object}  services.PersonaChange
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown persona"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "No number linked yet"
// @Failure     500  {object}  handlers.ErrorResponse  "Voice platform or database error"
// @Router      /api/v1/account/persona [put]
func (h *Handlers) UpdatePersona(c *gin.Context) {
	var req UpdatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.VoiceID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "voiceId required")
		return
	}

	ch, err := h.d.Personas.AssignPersona(c.Request.Context(), userID(c), strings.TrimSpace(req.VoiceID))
	switch {
	case err == nil:
		ok(c, http.StatusOK, ch)
	case errors.Is(err, services.ErrUserRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgMissingUser)
	case errors.Is(err, services.ErrUnknownPersona):
		fail(c, http.StatusBadRequest, ErrCodeUnknownPersona, "unknown voice: "+req.VoiceID)
	case errors.Is(err, services.ErrLinkNotFound):
		fail(c, http.StatusNotFound, ErrCodeNoLinkedNumber, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodePersonaFailed, err.Error())
	}
}

// ListPersonas godoc
// @ID          listPersonas
// @Summary     Selectable personas
// @Tags        Account
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ListPersonasResponse
// @Router      /api/v1/personas [get]
func (h *Handlers) ListPersonas(c *gin.Context) {
	resp := ListPersonasResponse{Personas: h.d.Catalog.All()}
	if p, found := h.d.Catalog.Default(); found {
		resp.Default = p.ID
	}
	ok(c, http.StatusOK, resp)
}
