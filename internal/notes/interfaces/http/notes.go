package http

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	noteapp "debitnote-cloud/internal/notes/application"
	notes "debitnote-cloud/internal/notes/domain"
)

type noteDTO struct {
	ID            string   `json:"id"`
	Contractor    string   `json:"contractor"`
	Date          string   `json:"date"`
	Site          string   `json:"site"`
	Category      string   `json:"category"`
	Amount        string   `json:"amount"`
	Reason        string   `json:"reason"`
	Submitter     string   `json:"submitter,omitempty"`
	ImageLinks    []string `json:"image_links"`
	SignatureLink string   `json:"signature_link,omitempty"`
	PDFLink       string   `json:"pdf_link"`
	CreatedAt     string   `json:"created_at"`
}

type skippedDTO struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type submitResponse struct {
	Note    noteDTO      `json:"note"`
	Pages   int          `json:"pages"`
	Skipped []skippedDTO `json:"skipped_assets"`
}

type contractorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) toNoteDTO(n notes.DebitNote) noteDTO {
	links := n.ImageLinks
	if links == nil {
		links = []string{}
	}
	return noteDTO{
		ID:            n.ID,
		Contractor:    n.Contractor,
		Date:          n.Date.Format(dateLayout),
		Site:          n.Site,
		Category:      string(n.Category),
		Amount:        h.amount(n.Amount),
		Reason:        n.Reason,
		Submitter:     n.Submitter,
		ImageLinks:    links,
		SignatureLink: n.SignatureLink,
		PDFLink:       n.PDFLink,
		CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// amount renders d with the configured currency places.
func (h *Handler) amount(d decimal.Decimal) string {
	return d.StringFixed(h.places)
}

func toContractorDTO(c notes.Contractor) contractorDTO {
	return contractorDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339)}
}

// handleSubmit accepts a multipart form with the note fields, any number of
// "images" files and an optional "signature" file.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	form := r.MultipartForm
	date, err := parseDate(formValue(form, "date"))
	if err != nil || date.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid date (use YYYY-MM-DD)", err)
		return
	}
	amount, err := decimal.NewFromString(formValue(form, "amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	req := noteapp.SubmitRequest{
		Contractor: formValue(form, "contractor"),
		Date:       date,
		Site:       formValue(form, "site"),
		Category:   formValue(form, "category"),
		Amount:     amount,
		Reason:     formValue(form, "reason"),
	}
	for _, fh := range form.File["images"] {
		att, err := readAttachment(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable image upload", err)
			return
		}
		req.Images = append(req.Images, att)
	}
	if files := form.File["signature"]; len(files) > 0 {
		att, err := readAttachment(files[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable signature upload", err)
			return
		}
		req.Signature = &att
	}

	result, err := h.notes.Submit(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	resp := submitResponse{Note: h.toNoteDTO(result.Note), Pages: result.Pages, Skipped: []skippedDTO{}}
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDTO{Kind: s.Kind, Index: s.Index, Name: s.Name, Reason: s.Reason})
	}
	writeJSON(w, http.StatusCreated, resp)
	h.logAudit(r, "debit_note", result.Note.ID, "note.submit", map[string]any{
		"contractor": result.Note.Contractor,
		"amount":     h.amount(result.Note.Amount),
		"images":     len(result.Note.ImageLinks),
		"skipped":    len(result.Skipped),
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	list, err := h.notes.Search(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	dtos := make([]noteDTO, 0, len(list))
	for _, n := range list {
		dtos = append(dtos, h.toNoteDTO(n))
	}
	writeJSON(w, http.StatusOK, dtos)
}

var csvHeader = []string{"ID", "Date", "Contractor", "Site", "Category", "Amount", "Reason", "Submitter", "PDF Link", "Image Links"}

// handleExportCSV writes the filtered notes as CSV for the dashboard download.
func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	list, err := h.notes.Search(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="debit_notes.csv"`)
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, n := range list {
		_ = cw.Write([]string{
			n.ID,
			n.Date.Format(dateLayout),
			n.Contractor,
			n.Site,
			string(n.Category),
			h.amount(n.Amount),
			n.Reason,
			n.Submitter,
			n.PDFLink,
			strings.Join(n.ImageLinks, " "),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("csv export write failed", zap.Error(err))
	}
}

func (h *Handler) parseFilter(r *http.Request) (notes.NoteFilter, error) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"))
	if err != nil {
		return notes.NoteFilter{}, fmt.Errorf("invalid from (use YYYY-MM-DD)")
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return notes.NoteFilter{}, fmt.Errorf("invalid to (use YYYY-MM-DD)")
	}
	filter := notes.NoteFilter{
		Contractor: strings.TrimSpace(q.Get("contractor")),
		From:       from,
		To:         to,
		Query:      strings.TrimSpace(q.Get("q")),
	}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, err := notes.ParseCategory(raw, h.notes.Categories())
		if err != nil {
			return notes.NoteFilter{}, err
		}
		filter.Category = category
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return notes.NoteFilter{}, fmt.Errorf("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readAttachment(fh *multipart.FileHeader) (noteapp.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return noteapp.Attachment{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return noteapp.Attachment{}, err
	}
	return noteapp.Attachment{Name: fh.Filename, MimeType: fh.Header.Get("Content-Type"), Data: data}, nil
}
