package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"debitnote-cloud/internal/audit"
	"debitnote-cloud/internal/auth"
	"debitnote-cloud/internal/composer"
	noteapp "debitnote-cloud/internal/notes/application"
	notes "debitnote-cloud/internal/notes/domain"
)

const (
	dateLayout = "2006-01-02"

	defaultMaxUploadBytes = 32 << 20
)

// Handler serves the debit note API.
type Handler struct {
	notes          *noteapp.NoteService
	statements     *noteapp.StatementService
	contractors    *noteapp.ContractorService
	auditLogger    audit.Logger
	logger         *zap.Logger
	maxUploadBytes int64
	places         int32
}

// Option configures Handler.
type Option func(*Handler)

// WithAuditLogger records submissions and exports.
func WithAuditLogger(logger audit.Logger) Option {
	return func(h *Handler) {
		h.auditLogger = logger
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxUploadBytes caps the size of a note submission body.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler constructs a handler.
func NewHandler(notesSvc *noteapp.NoteService, statements *noteapp.StatementService, contractors *noteapp.ContractorService, opts ...Option) (*Handler, error) {
	if notesSvc == nil {
		return nil, errors.New("notes handler: nil note service")
	}
	if statements == nil {
		return nil, errors.New("notes handler: nil statement service")
	}
	if contractors == nil {
		return nil, errors.New("notes handler: nil contractor service")
	}
	h := &Handler{
		notes:          notesSvc,
		statements:     statements,
		contractors:    contractors,
		logger:         zap.NewNop(),
		maxUploadBytes: defaultMaxUploadBytes,
		places:         notesSvc.AmountPlaces(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes mounts the API under /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", h.handleSearch)
			r.Post("/", h.handleSubmit)
			r.Get("/export.csv", h.handleExportCSV)
		})
		r.Get("/statements/export.pdf", h.handleStatement(noteapp.FormatPDF))
		r.Get("/statements/export.xlsx", h.handleStatement(noteapp.FormatXLSX))
		r.Route("/contractors", func(r chi.Router) {
			r.Get("/", h.handleListContractors)
			r.Post("/", h.handleAddContractor)
		})
		r.Get("/categories", h.handleCategories)
	})
}

func (h *Handler) handleStatement(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		contractor := strings.TrimSpace(q.Get("contractor"))
		if contractor == "" {
			writeError(w, http.StatusBadRequest, "contractor is required", nil)
			return
		}
		from, err := parseDate(q.Get("from"))
		if err != nil || from.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid from (use YYYY-MM-DD)", err)
			return
		}
		to, err := parseDate(q.Get("to"))
		if err != nil || to.IsZero() {
			writeError(w, http.StatusBadRequest, "invalid to (use YYYY-MM-DD)", err)
			return
		}

		export, err := h.statements.Export(r.Context(), format, contractor, from, to)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
		w.Header().Set("X-Statement-Total", h.amount(export.Total))
		w.Header().Set("X-Statement-Items", strconv.Itoa(export.Items))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(export.Data)
		h.logAudit(r, "statement", contractor, "statement.export", map[string]any{
			"format": format,
			"from":   from.Format(dateLayout),
			"to":     to.Format(dateLayout),
			"items":  export.Items,
			"total":  h.amount(export.Total),
		})
	}
}

func (h *Handler) handleListContractors(w http.ResponseWriter, r *http.Request) {
	list, err := h.contractors.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	dtos := make([]contractorDTO, 0, len(list))
	for _, c := range list {
		dtos = append(dtos, toContractorDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleAddContractor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", err)
		return
	}
	contractor, err := h.contractors.Add(r.Context(), req.Name)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractorDTO(*contractor))
	h.logAudit(r, "contractor", contractor.ID, "contractor.add", map[string]any{"name": contractor.Name})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notes.Categories())
}

func (h *Handler) logAudit(r *http.Request, resourceType, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())
	payload, _ := json.Marshal(meta)
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        identity.Subject,
		Role:         identity.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		h.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, composer.ErrValidation),
		errors.Is(err, composer.ErrInvalidRange),
		errors.Is(err, notes.ErrEmptyContractor),
		errors.Is(err, notes.ErrEmptySite),
		errors.Is(err, notes.ErrEmptyName),
		errors.Is(err, notes.ErrInvalidDate),
		errors.Is(err, notes.ErrNegativeAmount),
		errors.Is(err, notes.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, notes.ErrUnknownContractor):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, notes.ErrDuplicateContractor):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}
