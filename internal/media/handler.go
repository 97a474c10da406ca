// AngelaMos | 2026
// handler.go

package media

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/videoflow/internal/core"
	"github.com/carterperez-dev/videoflow/internal/middleware"
	"github.com/carterperez-dev/videoflow/internal/usage"
)

type Request struct {
	URL string `json:"url" validate:"required,max=500"`
}

type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/download", h.Download)
	r.Post("/transcribe", h.Transcribe)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return "", false
	}

	req.URL = strings.TrimSpace(req.URL)
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return "", false
	}

	return req.URL, true
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	url, ok := h.decode(w, r)
	if !ok {
		return
	}

	dl, err := h.service.Download(r.Context(), middleware.GetUserID(r.Context()), url)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		if err := dl.Close(); err != nil {
			h.service.logger.Warn("remove spool file failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", attachment(dl.Title))
	http.ServeContent(w, r, "", time.Time{}, dl.Reader())
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	url, ok := h.decode(w, r)
	if !ok {
		return
	}

	text, err := h.service.Transcribe(r.Context(), middleware.GetUserID(r.Context()), url)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, TranscriptResponse{Transcript: text})
}

func writeError(w http.ResponseWriter, err error) {
	var quotaErr *usage.QuotaError
	if errors.As(err, &quotaErr) {
		core.JSONError(w, core.QuotaExceededError(quotaErr.Message))
		return
	}
	core.JSONError(w, err)
}

// attachment builds a Content-Disposition naming the file <title>.mp4.
func attachment(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "video"
	}

	return mime.FormatMediaType("attachment", map[string]string{
		"filename": name + ".mp4",
	})
}
