package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/pkg/handlers"
	"github.com/JaimeStill/rapport/pkg/middleware"
	"github.com/JaimeStill/rapport/pkg/routes"
)

// Handler provides HTTP endpoints for duplicate review.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// maxRequestBody bounds merge and preview request bodies.
const maxRequestBody = 4 << 10

// MergeRequest names the surviving person and the person folded into it.
type MergeRequest struct {
	KeepID  uuid.UUID `json:"keep_id"`
	MergeID uuid.UUID `json:"merge_id"`
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "dedupe"),
	}
}

// Routes returns the route group definition for duplicate endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:     "/workspaces/{workspace}/duplicates",
		Middleware: []middleware.Func{middleware.LimitBody(maxRequestBody)},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Scan},
			{Method: "POST", Pattern: "/merge", Handler: h.Merge},
			{Method: "POST", Pattern: "/preview", Handler: h.Preview},
		},
	}
}

// Scan returns duplicate candidates for the workspace.
// collapse=true keeps only the first candidate per pair.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := uuid.Parse(r.PathValue("workspace"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	candidates, err := h.sys.Scan(r.Context(), workspaceID)
	if err != nil {
		h.fail(w, MsgScanFailed, err)
		return
	}

	if collapse, _ := strconv.ParseBool(r.URL.Query().Get("collapse")); collapse {
		candidates = Collapse(candidates)
	}

	handlers.RespondJSON(w, http.StatusOK, candidates)
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	h.merge(w, r, h.sys.Merge)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	h.merge(w, r, h.sys.Preview)
}

type mergeFunc func(ctx context.Context, workspaceID, keepID, absorbID uuid.UUID) (*MergeResult, error)

func (h *Handler) merge(w http.ResponseWriter, r *http.Request, fn mergeFunc) {
	workspaceID, err := uuid.Parse(r.PathValue("workspace"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	if req.KeepID == uuid.Nil || req.MergeID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	result, err := fn(r.Context(), workspaceID, req.KeepID, req.MergeID)
	if err != nil {
		h.fail(w, MsgMergeFailed, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// fail logs the underlying error and responds with a user-facing message.
// Not-found and invalid-pair errors are returned as-is since they describe the request.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	status := MapHTTPStatus(err)

	switch {
	case errors.Is(err, ErrNotFound):
		handlers.RespondError(w, h.logger, status, ErrNotFound)
	case errors.Is(err, ErrInvalidPair):
		handlers.RespondError(w, h.logger, status, ErrInvalidPair)
	default:
		h.logger.Error("dedupe request failed", "error", err)
		handlers.RespondJSON(w, status, map[string]string{"error": msg})
	}
}
