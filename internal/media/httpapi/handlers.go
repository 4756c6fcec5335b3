package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/blogport/media-pipeline/internal/media/domain"
	"github.com/blogport/media-pipeline/internal/media/models"
	"github.com/blogport/media-pipeline/internal/media/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateUpload handles POST /media/uploads.
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	auth, err := h.svc.CreateUploadURL(r.Context(), service.UploadCommand{
		OwnerID: ownerID,
		Request: domain.UploadRequest{
			Filename:      req.Filename,
			MimeType:      req.MimeType,
			FileSizeBytes: req.FileSizeBytes,
			WidthPx:       req.Width,
			HeightPx:      req.Height,
		},
		AttachableType: models.AttachableType(req.AttachableType),
		AttachableID:   req.AttachableID,
		Role:           req.Role,
		Position:       req.Position,
		AltText:        req.AltText,
		Caption:        req.Caption,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUploadAuthorizationResponse(auth))
}

// VariantReadURL handles GET /media/{id}/variants/{size}/url.
func (h *Handler) VariantReadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/media/")
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[1] != "variants" || parts[3] != "url" {
		writeErrorJSON(w, http.StatusNotFound, "not found")
		return
	}

	mediaID, err := uuid.Parse(parts[0])
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid media id")
		return
	}

	grant, err := h.svc.GetVariantReadURL(r.Context(), ownerID, mediaID, models.SizeClass(parts[2]))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReadGrantResponse{URL: grant.URL, ExpiresAt: grant.ExpiresAt})
}

// ListMedia handles GET /media?attachable_type=...&attachable_id=...
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	attachableID, err := uuid.Parse(r.URL.Query().Get("attachable_id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid attachable_id")
		return
	}

	items, err := h.svc.ListMedia(r.Context(), ownerID,
		models.AttachableType(r.URL.Query().Get("attachable_type")), attachableID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]AttachedMediaResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toAttachedMediaResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeError maps service errors onto HTTP statuses. Unknown errors never
// leak their message to the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrPolicyViolation):
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, models.ErrVariantNotFound):
		writeErrorJSON(w, http.StatusNotFound, "variant not found")
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrMediaPending):
		writeErrorJSON(w, http.StatusConflict, "upload not completed")
	case errors.Is(err, models.ErrMediaProcessing):
		writeErrorJSON(w, http.StatusConflict, "media is being processed")
	case errors.Is(err, models.ErrMediaFailed):
		writeErrorJSON(w, http.StatusGone, "media processing failed")
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, http.StatusConflict, "conflict")
	default:
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
