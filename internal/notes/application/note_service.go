package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"debitnote-cloud/internal/auth"
	"debitnote-cloud/internal/blobstore"
	"debitnote-cloud/internal/composer"
	notes "debitnote-cloud/internal/notes/domain"
	"debitnote-cloud/internal/observability/metrics"
)

const pdfMimeType = "application/pdf"

// Attachment is an uploaded file.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

// SubmitRequest carries the form fields of a new debit note. The submitter
// is taken from the request identity.
type SubmitRequest struct {
	Contractor string
	Date       time.Time
	Site       string
	Category   string
	Amount     decimal.Decimal
	Reason     string
	Images     []Attachment
	Signature  *Attachment
}

// SubmitResult describes a stored note.
type SubmitResult struct {
	Note    notes.DebitNote
	Pages   int
	Skipped []composer.AssetSkipped
}

// NoteNotifier announces stored notes.
type NoteNotifier interface {
	NoteRaised(ctx context.Context, note notes.DebitNote)
}

// NoteService raises and searches debit notes.
type NoteService struct {
	notes       notes.NoteRepository
	contractors notes.ContractorRepository
	blobs       blobstore.Store
	composer    *composer.Composer
	notifier    NoteNotifier
	categories  []notes.Category
	clock       Clock
	logger      *zap.Logger
}

// NoteOption configures NoteService.
type NoteOption func(*NoteService)

// WithNotifier announces every stored note.
func WithNotifier(notifier NoteNotifier) NoteOption {
	return func(s *NoteService) {
		s.notifier = notifier
	}
}

// WithContractorCheck rejects notes for contractors missing from repo.
func WithContractorCheck(repo notes.ContractorRepository) NoteOption {
	return func(s *NoteService) {
		s.contractors = repo
	}
}

// WithCategories restricts the accepted categories.
func WithCategories(categories []notes.Category) NoteOption {
	return func(s *NoteService) {
		if len(categories) > 0 {
			s.categories = categories
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) NoteOption {
	return func(s *NoteService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) NoteOption {
	return func(s *NoteService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewNoteService constructs the service.
func NewNoteService(repo notes.NoteRepository, blobs blobstore.Store, c *composer.Composer, opts ...NoteOption) (*NoteService, error) {
	if repo == nil {
		return nil, errors.New("note service: nil repository")
	}
	if blobs == nil {
		return nil, errors.New("note service: nil blob store")
	}
	if c == nil {
		return nil, errors.New("note service: nil composer")
	}
	s := &NoteService{
		notes:      repo,
		blobs:      blobs,
		composer:   c,
		categories: notes.DefaultCategories,
		clock:      SystemClock{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Categories returns the accepted categories.
func (s *NoteService) Categories() []notes.Category {
	return append([]notes.Category(nil), s.categories...)
}

// AmountPlaces is the number of decimal places amounts are kept with.
func (s *NoteService) AmountPlaces() int32 {
	return s.composer.Places()
}

// Submit composes the receipt, uploads it with its evidence and stores the
// note. Nothing is stored when composition or an upload fails.
func (s *NoteService) Submit(ctx context.Context, req SubmitRequest) (result *SubmitResult, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveNoteSubmit(metrics.Result(err), time.Since(started))
	}()

	category, err := notes.ParseCategory(req.Category, s.categories)
	if err != nil {
		return nil, err
	}
	contractor, err := s.resolveContractor(ctx, req.Contractor)
	if err != nil {
		return nil, err
	}
	identity, _ := auth.IdentityFromContext(ctx)

	record := composer.ReceiptRecord{
		Contractor: contractor,
		Date:       req.Date,
		Site:       strings.TrimSpace(req.Site),
		Category:   string(category),
		Amount:     req.Amount,
		Reason:     req.Reason,
		Submitter:  identity.DisplayName(),
	}
	for _, img := range req.Images {
		record.Images = append(record.Images, composer.ImageRef{Name: img.Name, Data: img.Data})
	}
	if req.Signature != nil {
		record.Signature = &composer.ImageRef{Name: req.Signature.Name, Data: req.Signature.Data}
	}

	composeStarted := time.Now()
	doc, err := s.composer.ComposeReceipt(record)
	metrics.ObserveCompose(string(composer.KindReceipt), metrics.Result(err), time.Since(composeStarted))
	if err != nil {
		return nil, err
	}
	metrics.AddSkippedAssets(string(composer.KindReceipt), len(doc.Skipped))

	now := s.clock.Now().UTC()
	note := notes.DebitNote{
		ID:         newID(),
		Contractor: contractor,
		Date:       notes.Day(req.Date),
		Site:       record.Site,
		Category:   category,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Submitter:  record.Submitter,
		CreatedAt:  now,
	}

	skippedImages, skippedSignature := skippedSet(doc.Skipped)
	for i, img := range req.Images {
		if skippedImages[i] {
			continue
		}
		link, err := s.upload(ctx, img.Data, uploadName(img.Name, fmt.Sprintf("image_%d", i+1)), img.MimeType)
		if err != nil {
			return nil, fmt.Errorf("note service: upload image %d: %w", i, err)
		}
		note.ImageLinks = append(note.ImageLinks, link)
	}
	if req.Signature != nil && !skippedSignature {
		link, err := s.upload(ctx, req.Signature.Data, uploadName(req.Signature.Name, "signature"), req.Signature.MimeType)
		if err != nil {
			return nil, fmt.Errorf("note service: upload signature: %w", err)
		}
		note.SignatureLink = link
	}
	pdfLink, err := s.upload(ctx, doc.Data, ReceiptFileName(now), pdfMimeType)
	if err != nil {
		return nil, fmt.Errorf("note service: upload pdf: %w", err)
	}
	note.PDFLink = pdfLink

	if err := s.notes.Insert(ctx, &note); err != nil {
		return nil, fmt.Errorf("note service: insert: %w", err)
	}
	s.logger.Info("debit note raised",
		zap.String("note_id", note.ID),
		zap.String("contractor", note.Contractor),
		zap.String("amount", note.Amount.String()),
		zap.Int("pages", doc.Pages),
		zap.Int("skipped_assets", len(doc.Skipped)),
	)
	if s.notifier != nil {
		s.notifier.NoteRaised(ctx, note)
	}
	return &SubmitResult{Note: note, Pages: doc.Pages, Skipped: doc.Skipped}, nil
}

// Search lists stored notes.
func (s *NoteService) Search(ctx context.Context, filter notes.NoteFilter) ([]notes.DebitNote, error) {
	return s.notes.Query(ctx, filter)
}

// ReceiptFileName names the PDF of a note raised at t.
func ReceiptFileName(t time.Time) string {
	return "debit_note_" + t.Format("20060102_150405") + ".pdf"
}

func (s *NoteService) resolveContractor(ctx context.Context, name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", notes.ErrEmptyContractor
	}
	if s.contractors == nil {
		return name, nil
	}
	list, err := s.contractors.List(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range list {
		if notes.SameName(c.Name, name) {
			return c.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", notes.ErrUnknownContractor, name)
}

func (s *NoteService) upload(ctx context.Context, data []byte, name, mimeType string) (string, error) {
	link, err := s.blobs.Upload(ctx, data, name, mimeType)
	metrics.IncBlobUpload(metrics.Result(err))
	return link, err
}

func uploadName(name, fallback string) string {
	if blobstore.SanitizeName(name) == "" {
		return fallback
	}
	return name
}

func skippedSet(skipped []composer.AssetSkipped) (map[int]bool, bool) {
	images := make(map[int]bool)
	signature := false
	for _, s := range skipped {
		switch s.Kind {
		case "image":
			images[s.Index] = true
		case "signature":
			signature = true
		}
	}
	return images, signature
}
