package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"debitnote-cloud/internal/blobstore"
	"debitnote-cloud/internal/composer"
	notes "debitnote-cloud/internal/notes/domain"
	"debitnote-cloud/internal/observability/metrics"
)

// Export formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// StatementExport is a rendered statement file.
type StatementExport struct {
	FileName    string
	ContentType string
	Data        []byte
	Items       int
	Total       decimal.Decimal
}

// StatementService builds contractor statements from stored notes.
type StatementService struct {
	notes    notes.NoteRepository
	composer *composer.Composer
}

// NewStatementService constructs the service.
func NewStatementService(repo notes.NoteRepository, c *composer.Composer) (*StatementService, error) {
	if repo == nil {
		return nil, errors.New("statement service: nil repository")
	}
	if c == nil {
		return nil, errors.New("statement service: nil composer")
	}
	return &StatementService{notes: repo, composer: c}, nil
}

// Build collects the contractor's notes in [from, to] ordered by date.
func (s *StatementService) Build(ctx context.Context, contractor string, from, to time.Time) (composer.StatementRequest, error) {
	req := composer.StatementRequest{Contractor: contractor, Start: from, End: to}
	if err := req.Validate(); err != nil {
		return req, err
	}
	list, err := s.notes.Query(ctx, notes.NoteFilter{Contractor: contractor, From: from, To: to})
	if err != nil {
		return req, fmt.Errorf("statement service: query: %w", err)
	}
	notes.SortNotes(list)
	req.Items = make([]composer.LineItem, 0, len(list))
	for _, n := range list {
		req.Items = append(req.Items, composer.LineItem{
			Date:     n.Date,
			Category: string(n.Category),
			Reason:   n.Reason,
			Amount:   n.Amount,
		})
	}
	return req, nil
}

// Export renders the statement in format.
func (s *StatementService) Export(ctx context.Context, format, contractor string, from, to time.Time) (export *StatementExport, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveStatementExport(format, metrics.Result(err), time.Since(started))
	}()

	req, err := s.Build(ctx, contractor, from, to)
	if err != nil {
		return nil, err
	}
	name := StatementFileName(contractor, from, to, format)
	switch format {
	case FormatPDF:
		composeStarted := time.Now()
		doc, err := s.composer.ComposeStatement(req)
		metrics.ObserveCompose(string(composer.KindStatement), metrics.Result(err), time.Since(composeStarted))
		if err != nil {
			return nil, err
		}
		return &StatementExport{FileName: name, ContentType: pdfMimeType, Data: doc.Data, Items: len(req.Items), Total: doc.Total}, nil
	case FormatXLSX:
		data, total, err := s.composer.StatementXLSX(req)
		if err != nil {
			return nil, err
		}
		return &StatementExport{
			FileName:    name,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
			Items:       len(req.Items),
			Total:       total,
		}, nil
	default:
		return nil, fmt.Errorf("statement service: unsupported format %q", format)
	}
}

// StatementFileName names an exported statement.
func StatementFileName(contractor string, from, to time.Time, format string) string {
	name := blobstore.SanitizeName(contractor)
	if name == "" {
		name = "contractor"
	}
	return fmt.Sprintf("statement_%s_%s_%s.%s", name, from.Format("20060102"), to.Format("20060102"), format)
}
