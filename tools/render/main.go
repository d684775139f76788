package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"debitnote-cloud/internal/composer"
)

const dateLayout = "2006-01-02"

type config struct {
	in       string
	out      string
	xlsxOut  string
	company  string
	logo     string
	currency string
	places   int
	verbose  bool
}

// input describes one document. Image paths are relative to the input file.
type input struct {
	Kind      string          `json:"kind"`
	Receipt   *receiptInput   `json:"receipt"`
	Statement *statementInput `json:"statement"`
}

type receiptInput struct {
	Contractor string          `json:"contractor"`
	Date       string          `json:"date"`
	Site       string          `json:"site"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	Submitter  string          `json:"submitter"`
	Images     []string        `json:"images"`
	Signature  string          `json:"signature"`
}

type statementInput struct {
	Contractor string      `json:"contractor"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Items      []itemInput `json:"items"`
}

type itemInput struct {
	Date     string          `json:"date"`
	Category string          `json:"category"`
	Reason   string          `json:"reason"`
	Amount   decimal.Decimal `json:"amount"`
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.StringVar(&cfg.in, "in", "", "JSON document description")
	fs.StringVar(&cfg.out, "out", "", "output PDF path (default: input name with .pdf)")
	fs.StringVar(&cfg.xlsxOut, "xlsx", "", "also write a statement workbook to this path")
	fs.StringVar(&cfg.company, "company", getenvDefault("COMPANY_NAME", ""), "company name in the page header")
	fs.StringVar(&cfg.logo, "logo", getenvDefault("COMPANY_LOGO", ""), "logo image path")
	fs.StringVar(&cfg.currency, "currency", getenvDefault("CURRENCY", "INR"), "currency code")
	fs.IntVar(&cfg.places, "places", 2, "currency decimal places")
	fs.BoolVar(&cfg.verbose, "v", false, "log composer warnings")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.in == "" {
		return cfg, errors.New("missing --in")
	}
	if cfg.out == "" {
		cfg.out = strings.TrimSuffix(cfg.in, filepath.Ext(cfg.in)) + ".pdf"
	}
	if cfg.places < 0 {
		return cfg, errors.New("--places must not be negative")
	}
	return cfg, nil
}

func run(cfg config, stdout io.Writer) error {
	raw, err := os.ReadFile(cfg.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var in input
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	c, err := newComposer(cfg)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(cfg.in)

	var doc *composer.Document
	switch in.Kind {
	case "receipt":
		if in.Receipt == nil {
			return errors.New("receipt kind without receipt body")
		}
		record, err := in.Receipt.record(baseDir)
		if err != nil {
			return err
		}
		doc, err = c.ComposeReceipt(record)
		if err != nil {
			return err
		}
	case "statement":
		if in.Statement == nil {
			return errors.New("statement kind without statement body")
		}
		req, err := in.Statement.request()
		if err != nil {
			return err
		}
		doc, err = c.ComposeStatement(req)
		if err != nil {
			return err
		}
		if cfg.xlsxOut != "" {
			data, _, err := c.StatementXLSX(req)
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfg.xlsxOut, data, 0o644); err != nil {
				return fmt.Errorf("write xlsx: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown kind %q (want receipt or statement)", in.Kind)
	}

	if err := os.WriteFile(cfg.out, doc.Data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintf(stdout, "wrote %s (%d pages)\n", cfg.out, doc.Pages)
	if doc.Kind == composer.KindStatement {
		fmt.Fprintf(stdout, "total %s\n", c.FormatAmount(doc.Total))
	}
	for _, s := range doc.Skipped {
		fmt.Fprintf(stdout, "skipped %s #%d %s: %s\n", s.Kind, s.Index, s.Name, s.Reason)
	}
	return nil
}

func newComposer(cfg config) (*composer.Composer, error) {
	opts := []composer.Option{composer.WithCurrency(cfg.currency, int32(cfg.places))}
	if cfg.company != "" {
		opts = append(opts, composer.WithCompanyName(cfg.company))
	}
	if cfg.logo != "" {
		logo, err := os.ReadFile(cfg.logo)
		if err != nil {
			return nil, fmt.Errorf("read logo: %w", err)
		}
		opts = append(opts, composer.WithLogo(logo))
	}
	if cfg.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, composer.WithLogger(logger))
	}
	return composer.New(opts...)
}

func (r receiptInput) record(baseDir string) (composer.ReceiptRecord, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return composer.ReceiptRecord{}, err
	}
	record := composer.ReceiptRecord{
		Contractor: r.Contractor,
		Date:       date,
		Site:       r.Site,
		Category:   r.Category,
		Amount:     r.Amount,
		Reason:     r.Reason,
		Submitter:  r.Submitter,
	}
	for _, p := range r.Images {
		record.Images = append(record.Images, loadImage(baseDir, p))
	}
	if r.Signature != "" {
		sig := loadImage(baseDir, r.Signature)
		record.Signature = &sig
	}
	return record, nil
}

func (s statementInput) request() (composer.StatementRequest, error) {
	from, err := parseDate("from", s.From)
	if err != nil {
		return composer.StatementRequest{}, err
	}
	to, err := parseDate("to", s.To)
	if err != nil {
		return composer.StatementRequest{}, err
	}
	req := composer.StatementRequest{Contractor: s.Contractor, Start: from, End: to}
	for i, item := range s.Items {
		date, err := parseDate(fmt.Sprintf("items[%d].date", i), item.Date)
		if err != nil {
			return composer.StatementRequest{}, err
		}
		req.Items = append(req.Items, composer.LineItem{
			Date:     date,
			Category: item.Category,
			Reason:   item.Reason,
			Amount:   item.Amount,
		})
	}
	return req, nil
}

// loadImage leaves Data empty on read errors so the composer reports the
// image as skipped.
func loadImage(baseDir, path string) composer.ImageRef {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, _ := os.ReadFile(path)
	return composer.ImageRef{Name: filepath.Base(path), Data: data}
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: use YYYY-MM-DD: %w", field, err)
	}
	return t, nil
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
