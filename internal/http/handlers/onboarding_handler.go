// Onboarding handlers: subscription checkout and phone-number provisioning.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-receptionist-backend/internal/http/middleware"
	"github.com/tbourn/go-receptionist-backend/internal/services"
)

// HeaderIdempotencyReplayed marks a response served from the idempotency store.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	msgMissingUser = "User ID is missing. Please log in again."
	msgNoNumbers   = "No UK numbers available right now."
)

// CheckoutRequest is the onboarding form submitted before payment.
type CheckoutRequest struct {
	// Email defaults to the token's email claim.
	Email        string `json:"email" example:"owner@example.co.uk"`
	VoiceID      string `json:"voiceId" example:"tradie"`
	BusinessName string `json:"businessName" binding:"max=255" example:"McLeod Plumbing"`
}

// CheckoutResponse carries the hosted checkout URL.
type CheckoutResponse struct {
	URL string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_123"`
}

// ProvisionNumberRequest selects the persona answering the new number.
type ProvisionNumberRequest struct {
	BusinessName string `json:"businessName" binding:"max=255" example:"McLeod Plumbing"`
	VoiceID      string `json:"voiceId" example:"pro"`
}

// ProvisionNumberResponse is returned once the number is live.
type ProvisionNumberResponse struct {
	Success     bool   `json:"success" example:"true"`
	PhoneNumber string `json:"phoneNumber" example:"+447700900123"`
}

// Checkout godoc
// @ID          startCheckout
// @Summary     Start the subscription checkout
// @Description Saves business name and persona on the tenant profile, then opens a hosted subscription checkout.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CheckoutRequest  true  "Onboarding details"
//
// @Success     200  {object}  handlers.CheckoutResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing user or unknown persona"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Database or payment provider error"
// @Router      /api/v1/checkout [post]
func (h *Handlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgMissingUser)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = c.GetString(middleware.UserEmailKey)
	}

	sess, err := h.d.Checkout.Start(c.Request.Context(), services.CheckoutInput{
		UserID:       uid,
		Email:        email,
		PersonaID:    req.VoiceID,
		BusinessName: strings.TrimSpace(req.BusinessName),
	})
	var storeErr *services.StoreError
	switch {
	case err == nil:
		ok(c, http.StatusOK, CheckoutResponse{URL: sess.URL})
	case errors.Is(err, services.ErrUserRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgMissingUser)
	case errors.Is(err, services.ErrUnknownPersona):
		fail(c, http.StatusBadRequest, ErrCodeUnknownPersona, "unknown voice: "+req.VoiceID)
	case errors.As(err, &storeErr):
		fail(c, http.StatusInternalServerError, ErrCodeDatabase, "Database Error: "+storeErr.Err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeCheckoutFailed, err.Error())
	}
}

// ProvisionNumber godoc
// @ID          provisionNumber
// @Summary     Buy and link a phone number
// @Description Buys a mobile number, imports it into the voice platform answered by the persona's assistant, links it to the tenant and completes onboarding. Send Idempotency-Key to make retries safe; a replayed response carries Idempotency-Replayed: true.
// @Tags        Onboarding
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false  "Client idempotency key"  example(provision-7f3c)
// @Param       body             body    handlers.ProvisionNumberRequest  true  "Provisioning options"
//
// @Success     200  {object}  handlers.ProvisionNumberResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a previous identical request"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown persona or bad idempotency key"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "No numbers or provider failure"
// @Router      /api/v1/numbers [post]
func (h *Handlers) ProvisionNumber(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	key, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)

	if hasKey && middleware.IsReplay(c) && h.d.Idempotency != nil {
		rec, err := h.d.Idempotency.Get(ctx, uid, scope, key, time.Now().UTC())
		if err == nil && rec != nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Body))
			return
		}
	}

	var req ProvisionNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.d.Provisioning.Provision(ctx, services.ProvisionRequest{
		UserID:       uid,
		BusinessName: strings.TrimSpace(req.BusinessName),
		PersonaID:    req.VoiceID,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrUserRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgMissingUser)
		return
	case errors.Is(err, services.ErrUnknownPersona):
		fail(c, http.StatusBadRequest, ErrCodeUnknownPersona, "unknown voice: "+req.VoiceID)
		return
	case errors.Is(err, services.ErrNoNumbersAvailable):
		fail(c, http.StatusInternalServerError, ErrCodeNoNumbers, msgNoNumbers)
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeProvisioningFailed, err.Error())
		return
	}

	resp := ProvisionNumberResponse{Success: true, PhoneNumber: res.PhoneNumber}
	if hasKey && h.d.Idempotency != nil {
		body, _ := json.Marshal(resp)
		if err := h.d.Idempotency.Save(ctx, uid, scope, key, http.StatusOK, body); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not saved")
		}
	}
	ok(c, http.StatusOK, resp)
}
