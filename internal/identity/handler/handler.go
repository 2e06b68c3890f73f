package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"coalesce/internal/identity"
	"coalesce/internal/platform/middleware"
	dErrors "coalesce/pkg/domain-errors"
	"coalesce/pkg/platform/httputil"
	"coalesce/pkg/requestcontext"
)

// Service defines the interface for identity resolution.
type Service interface {
	Identify(ctx context.Context, sub identity.Submission) (*identity.IdentityView, error)
}

// Handler wires the identify endpoint to the resolution service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	identityRouter := chi.NewRouter()
	identityRouter.Use(middleware.Recovery(h.logger))
	identityRouter.Use(middleware.RequestID)
	identityRouter.Use(middleware.RequestTime)
	identityRouter.Use(middleware.Logger(h.logger))
	identityRouter.Use(middleware.Timeout(30 * time.Second))
	identityRouter.Use(middleware.ContentTypeJSON)
	identityRouter.Post("/identify", h.HandleIdentify)

	r.Mount("/", identityRouter)
}

// HandleIdentify handles POST /identify requests.
func (h *Handler) HandleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, err := httputil.Decode[IdentifyRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid identify request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Identify(ctx, req.Submission())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "invalid submission",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "identity resolution failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromView(view))
}
