package enrollment

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"enrollment-backend/internal/gateway"
	"enrollment-backend/internal/shared/server/middleware"
	"enrollment-backend/internal/shared/server/respond"
)

// Handler exposes the wizard over HTTP.
type Handler struct {
	svc   *Service
	uiURL string
}

// NewHandler constructs a Handler. uiURL is the wizard UI address the
// provider-return endpoint redirects back to; empty means respond with JSON
// instead of redirecting.
func NewHandler(svc *Service, uiURL string) *Handler {
	return &Handler{svc: svc, uiURL: uiURL}
}

// RegisterRoutes attaches the wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/enrollments/:token", h.begin)
	rg.POST("/enrollments/:token/profile", h.profile)
	rg.POST("/enrollments/:token/signature", h.signature)
	rg.GET("/enrollments/:token/payment", h.payment)
	rg.POST("/enrollments/:token/password", h.password)
	rg.GET("/enrollments/:token/return", h.providerReturn)
	rg.POST("/enrollments/:token/navigate", h.navigate)
	rg.POST("/enrollments/:token/commit", h.commit)
}

func (h *Handler) begin(c *gin.Context) {
	view, err := h.svc.Begin(c.Request.Context(), c.Param("token"), middleware.CurrentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) profile(c *gin.Context) {
	var in ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	view, err := h.svc.SubmitProfile(c.Request.Context(), c.Param("token"), in, middleware.CurrentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) signature(c *gin.Context) {
	signingURL, err := h.svc.StartSignature(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, gin.H{"signingUrl": signingURL})
}

func (h *Handler) payment(c *gin.Context) {
	paymentURL, err := h.svc.PaymentURL(c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, gin.H{"paymentUrl": paymentURL})
}

func (h *Handler) password(c *gin.Context) {
	var in PasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	view, err := h.svc.SubmitPassword(c.Param("token"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) providerReturn(c *gin.Context) {
	token := c.Param("token")
	res := DetectReturn(c.Request.URL.Query())
	view, err := h.svc.HandleReturn(c.Request.Context(), token, res, middleware.CurrentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if h.uiURL == "" {
		respond.OK(c, view)
		return
	}
	c.Redirect(http.StatusFound, h.uiURL+"?token="+url.QueryEscape(token))
}

func (h *Handler) navigate(c *gin.Context) {
	var in struct {
		Direction string `json:"direction"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "malformed JSON body", nil)
		return
	}
	view, err := h.svc.Navigate(c.Param("token"), in.Direction)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) commit(c *gin.Context) {
	out, err := h.svc.Commit(c.Request.Context(), c.Param("token"), middleware.CurrentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *ValidationError
	var rejected *gateway.RejectedError

	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_failed", "one or more fields are invalid", verr.Fields)
	case errors.Is(err, ErrEmailExists):
		respond.Error(c, http.StatusConflict, "email_exists", "An account with this email already exists; sign in instead.", nil)
	case errors.Is(err, ErrMissingToken):
		respond.Error(c, http.StatusBadRequest, "missing_token", "enrollment token required", nil)
	case errors.Is(err, gateway.ErrExpired):
		respond.Error(c, http.StatusGone, "link_expired", "This enrollment link has expired.", nil)
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "session_not_found", "no active enrollment session", nil)
	case errors.Is(err, ErrStepNotApplicable):
		respond.Error(c, http.StatusConflict, "step_not_applicable", "this step does not apply to the enrollment", nil)
	case errors.Is(err, ErrForwardBlocked):
		respond.Error(c, http.StatusConflict, "step_incomplete", "complete the current step first", nil)
	case errors.Is(err, ErrStepsIncomplete):
		respond.Error(c, http.StatusConflict, "steps_incomplete", "not all steps are complete", nil)
	case errors.As(err, &rejected):
		respond.Error(c, http.StatusBadGateway, "remote_rejected", rejected.Reason, nil)
	case errors.Is(err, gateway.ErrUnavailable):
		respond.Error(c, http.StatusBadGateway, "remote_unavailable", "The enrollment service is temporarily unavailable; try again.", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
