package notify

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	notes "debitnote-cloud/internal/notes/domain"
	"debitnote-cloud/internal/observability/metrics"
)

// Notifier announces newly raised debit notes. Delivery problems are logged
// and never reach the caller.
type Notifier struct {
	channel      Channel
	template     *Template
	formatAmount func(decimal.Decimal) string
	timeout      time.Duration
	logger       *zap.Logger
}

// Option configures the notifier.
type Option func(*Notifier)

// WithAmountFormatter sets how amounts are written in messages.
func WithAmountFormatter(format func(decimal.Decimal) string) Option {
	return func(n *Notifier) {
		if format != nil {
			n.formatAmount = format
		}
	}
}

// WithTimeout bounds a single delivery.
func WithTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.timeout = timeout
		}
	}
}

// WithLogger sets the logger for delivery failures.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier constructs a notifier.
func NewNotifier(channel Channel, template *Template, opts ...Option) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("note notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		channel:  channel,
		template: template,
		formatAmount: func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		timeout: 5 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NoteRaised sends one message for note.
func (n *Notifier) NoteRaised(ctx context.Context, note notes.DebitNote) {
	if n == nil || n.channel == nil {
		return
	}
	content, err := n.template.Render(TemplateData{
		NoteID:     note.ID,
		Contractor: note.Contractor,
		Date:       note.Date.Format("2006-01-02"),
		Site:       note.Site,
		Category:   string(note.Category),
		Amount:     n.formatAmount(note.Amount),
		Reason:     note.Reason,
		Submitter:  note.Submitter,
		PDFLink:    note.PDFLink,
		ImageCount: len(note.ImageLinks),
	})
	if err != nil {
		n.logger.Warn("note notification not rendered", zap.String("note_id", note.ID), zap.Error(err))
		metrics.IncNotify(metrics.ResultError)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.channel.Send(sendCtx, content); err != nil {
		n.logger.Warn("note notification failed", zap.String("note_id", note.ID), zap.Error(err))
		metrics.IncNotify(metrics.ResultError)
		return
	}
	metrics.IncNotify(metrics.ResultSuccess)
}
