// Package licensegin exposes the session and prompt facades over gin for
// the surrounding CRUD screens, and provides the single funnel those screens
// push backend failures through.
package licensegin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/licensekit/classify"
	"github.com/PaulFidika/licensekit/core"
	"github.com/PaulFidika/licensekit/prompt"
	"github.com/PaulFidika/licensekit/session"
)

var (
	endpointLogin    = classify.Endpoint{Name: "/auth/login", Kind: classify.EndpointAction}
	endpointRegister = classify.Endpoint{Name: "/auth/register", Kind: classify.EndpointAction}
)

// Handlers bundles the engine facades for route registration.
type Handlers struct {
	Sessions *session.Controller
	Prompts  *prompt.Scheduler
	Reporter *classify.Reporter
}

// RegisterRoutes mounts the session and prompt endpoints.
func (h *Handlers) RegisterRoutes(r gin.IRoutes) {
	r.GET("/session", h.handleSessionGET)
	r.POST("/session/login", h.handleLoginPOST)
	r.POST("/session/register", h.handleRegisterPOST)
	r.POST("/session/refresh", h.handleRefreshPOST)
	r.DELETE("/session", h.handleLogoutDELETE)
	r.GET("/prompt", h.handlePromptGET)
	r.POST("/prompt/dismiss", h.handlePromptDismissPOST)
}

func sessionBody(snap session.Snapshot) gin.H {
	return gin.H{
		"state":              snap.State.String(),
		"actor":              snap.Actor,
		"entitlement_status": snap.Status(),
	}
}

func (h *Handlers) handleSessionGET(c *gin.Context) {
	c.JSON(http.StatusOK, sessionBody(h.Sessions.Snapshot()))
}

// Report is the classifyAndReport funnel. It returns the user-facing message
// ("" when suppressed or routed), drives the expiry transition on real auth
// errors, and turns entitlement signals into a status refresh for the prompt
// flow.
func (h *Handlers) Report(c *gin.Context, err error, ep classify.Endpoint) string {
	actorID := ""
	if snap := h.Sessions.Snapshot(); snap.Actor != nil {
		actorID = snap.Actor.ID.String()
	}
	out := h.Reporter.Classify(err, ep)
	h.Sessions.HandleAuthFailure(c.Request.Context(), out)
	h.Sessions.HandleEntitlementSignal(c.Request.Context(), out)
	return h.Reporter.Report(c.Request.Context(), actorID, err, ep)
}

// failWith writes the classified failure. Suppressed failures still need an
// HTTP status, but carry no message for the UI to toast.
func (h *Handlers) failWith(c *gin.Context, err error, ep classify.Endpoint, fallback int) {
	msg := h.Report(c, err, ep)
	status := fallback
	var req *classify.RequestError
	if errors.As(err, &req) && req.StatusCode >= 400 {
		status = req.StatusCode
	}
	c.JSON(status, gin.H{"error": msg})
}

func (h *Handlers) handleLoginPOST(c *gin.Context) {
	var creds core.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.Sessions.Login(c.Request.Context(), creds); err != nil {
		h.failWith(c, err, endpointLogin, http.StatusUnauthorized)
		return
	}
	c.JSON(http.StatusOK, sessionBody(h.Sessions.Snapshot()))
}

func (h *Handlers) handleRegisterPOST(c *gin.Context) {
	var reg core.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.Sessions.Register(c.Request.Context(), reg); err != nil {
		h.failWith(c, err, endpointRegister, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, sessionBody(h.Sessions.Snapshot()))
}

func (h *Handlers) handleRefreshPOST(c *gin.Context) {
	if err := h.Sessions.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "not_authenticated"})
		return
	}
	c.JSON(http.StatusOK, sessionBody(h.Sessions.Snapshot()))
}

func (h *Handlers) handleLogoutDELETE(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) handlePromptGET(c *gin.Context) {
	visible, kind, variant := h.Prompts.Visible()
	c.JSON(http.StatusOK, gin.H{
		"visible": visible,
		"kind":    kind,
		"variant": variant,
	})
}

func (h *Handlers) handlePromptDismissPOST(c *gin.Context) {
	if err := h.Prompts.Dismiss(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dismiss_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
