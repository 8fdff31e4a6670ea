// Package handler is the thin HTTP layer over the auth core. It decodes
// requests, delegates to the coordinator and resolver, and shapes responses;
// business rules live below it.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"placelist/internal/audit"
	"placelist/internal/auth/models"
	"placelist/internal/auth/redirect"
	"placelist/internal/auth/resolver"
	"placelist/internal/auth/service"
	"placelist/pkg/outcome"
	"placelist/pkg/requestcontext"
)

// Coordinator is the credential action surface the handler depends on.
type Coordinator interface {
	SignUp(ctx context.Context, email, password string) models.ActionResult[service.Notice]
	RequestPasswordReset(ctx context.Context, email string) models.ActionResult[service.Notice]
	CompletePasswordReset(ctx context.Context, newPassword string, verification models.VerificationRequest) models.ActionResult[service.Notice]
	ChangePassword(ctx context.Context, currentPassword, newPassword string) models.ActionResult[service.Notice]
}

// Handler serves the auth endpoints.
type Handler struct {
	coordinator Coordinator
	resolver    *resolver.Resolver
	validator   redirect.Validator
	auditor     *audit.Publisher
	logger      *slog.Logger
}

func New(
	coordinator Coordinator,
	res *resolver.Resolver,
	validator redirect.Validator,
	auditor *audit.Publisher,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		coordinator: coordinator,
		resolver:    res,
		validator:   validator,
		auditor:     auditor,
		logger:      logger,
	}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/confirm", h.handleConfirm)
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/recover", h.handleRecover)
	r.Post("/auth/reset", h.handleReset)
	r.Post("/auth/password", h.handleChangePassword)
	r.Post("/auth/logout", h.handleLogout)
}

// handleConfirm is the email-link callback. It is a GET because it is
// reached by clicking a link, not by an in-app action. The verification
// request is built by fixed priority (token hash, then code, then session)
// and the caller is redirected either to the validated next target or to the
// error page with a coarse code; internal messages never reach the URL.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	tokenHash := q.Get("token_hash")
	typ := q.Get("type")
	code := q.Get("code")

	if tokenHash == "" && code == "" {
		h.redirectError(w, r, "missing_token")
		return
	}

	req := models.FromCallback(tokenHash, typ, code)
	if _, bare := req.(models.ExistingSession); bare {
		// A token hash with an unknown type falls through the priority
		// chain; treat it as absent rather than guessing a purpose.
		h.redirectError(w, r, "missing_token")
		return
	}

	res, err := h.resolver.Resolve(ctx, req)
	if err != nil {
		h.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionAuthFailed,
			Outcome: string(outcome.CodeOf(err)),
		})
		switch outcome.CodeOf(err) {
		case outcome.CodeExpired:
			h.redirectError(w, r, "expired_token")
		case outcome.CodeServer:
			h.redirectError(w, r, "server_error")
		default:
			h.redirectError(w, r, "invalid_token")
		}
		return
	}

	h.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionAuthSucceeded,
		Subject: res.Subject,
		Method:  string(res.Method),
	})
	http.Redirect(w, r, h.validator.Validate(q.Get("next")), http.StatusSeeOther)
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/auth/error?code="+url.QueryEscape(code), http.StatusSeeOther)
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, r)
		return
	}
	h.writeResult(w, r, h.coordinator.SignUp(r.Context(), req.Email, req.Password))
}

type recoverRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, r)
		return
	}
	h.writeResult(w, r, h.coordinator.RequestPasswordReset(r.Context(), req.Email))
}

type resetRequest struct {
	NewPassword string `json:"newPassword"`
	TokenHash   string `json:"tokenHash"`
	Type        string `json:"type"`
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, r)
		return
	}
	// Recovery token when the link carried one, otherwise the session the
	// verified link already established.
	verification := models.FromCallback(req.TokenHash, req.Type, "")
	h.writeResult(w, r, h.coordinator.CompletePasswordReset(r.Context(), req.NewPassword, verification))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, r)
		return
	}
	h.writeResult(w, r, h.coordinator.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword))
}

// handleLogout drops the caller's session cookies and sends them to the
// login page. Server-side session expiry is the provider's concern.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sw := requestcontext.Writer(r.Context()); sw != nil {
		sw.ClearSession()
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// writeResult renders the ActionResult envelope. The status is always 200:
// the envelope carries the outcome, and a uniform status keeps the
// enumeration-protected endpoints byte-identical at every layer.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, result models.ActionResult[service.Notice]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write action result",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}

func (h *Handler) writeBadBody(w http.ResponseWriter, r *http.Request) {
	h.logger.WarnContext(r.Context(), "invalid request body",
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	h.writeResult(w, r, models.Fail[service.Notice]("Invalid request body."))
}
