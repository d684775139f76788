package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"debitnote-cloud/internal/audit"
	"debitnote-cloud/internal/auth"
	"debitnote-cloud/internal/blobstore"
	"debitnote-cloud/internal/composer"
	"debitnote-cloud/internal/config"
	noteapp "debitnote-cloud/internal/notes/application"
	notes "debitnote-cloud/internal/notes/domain"
	"debitnote-cloud/internal/notes/infrastructure/memory"
	notespostgres "debitnote-cloud/internal/notes/infrastructure/postgres"
	"debitnote-cloud/internal/notes/infrastructure/workbook"
	noteshttp "debitnote-cloud/internal/notes/interfaces/http"
	"debitnote-cloud/internal/notes/notify"
	"debitnote-cloud/internal/observability/metrics"
)

const filesPrefix = "/files/"

type stores struct {
	notes       notes.NoteRepository
	contractors notes.ContractorRepository
	audit       audit.Logger
	db          *sql.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal("record store error", zap.Error(err))
	}
	if st.db != nil {
		defer st.db.Close()
	}
	metrics.Init(st.db, logger)

	blobs, err := openBlobStore(ctx, cfg.Blob)
	if err != nil {
		logger.Fatal("blob store error", zap.Error(err))
	}

	composerOpts := []composer.Option{
		composer.WithCompanyName(cfg.Document.CompanyName),
		composer.WithCurrency(cfg.Document.Currency, cfg.Document.CurrencyPlaces),
		composer.WithReasonBudget(cfg.Document.ReasonBudget),
		composer.WithLogger(logger.Named("composer")),
	}
	if cfg.Document.LogoPath != "" {
		logo, err := os.ReadFile(cfg.Document.LogoPath)
		if err != nil {
			logger.Fatal("logo read error", zap.String("path", cfg.Document.LogoPath), zap.Error(err))
		}
		composerOpts = append(composerOpts, composer.WithLogo(logo))
	}
	docComposer, err := composer.New(composerOpts...)
	if err != nil {
		logger.Fatal("composer error", zap.Error(err))
	}

	noteOpts := []noteapp.NoteOption{
		noteapp.WithContractorCheck(st.contractors),
		noteapp.WithLogger(logger.Named("notes")),
	}
	if categories := parseCategories(cfg.Document.Categories); len(categories) > 0 {
		noteOpts = append(noteOpts, noteapp.WithCategories(categories))
	}
	if cfg.Notify.WebhookURL != "" {
		notifier, err := buildNotifier(cfg.Notify, docComposer, logger)
		if err != nil {
			logger.Fatal("notifier error", zap.Error(err))
		}
		noteOpts = append(noteOpts, noteapp.WithNotifier(notifier))
	}
	noteService, err := noteapp.NewNoteService(st.notes, blobs, docComposer, noteOpts...)
	if err != nil {
		logger.Fatal("note service error", zap.Error(err))
	}
	statementService, err := noteapp.NewStatementService(st.notes, docComposer)
	if err != nil {
		logger.Fatal("statement service error", zap.Error(err))
	}
	contractorService, err := noteapp.NewContractorService(st.contractors, noteapp.SystemClock{})
	if err != nil {
		logger.Fatal("contractor service error", zap.Error(err))
	}
	handler, err := noteshttp.NewHandler(noteService, statementService, contractorService,
		noteshttp.WithAuditLogger(st.audit),
		noteshttp.WithLogger(logger.Named("http")),
	)
	if err != nil {
		logger.Fatal("notes handler error", zap.Error(err))
	}

	authMiddleware := auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics"},
		[]string{filesPrefix},
	))
	authMiddleware.Logger = logger.Named("auth")
	if cfg.Auth.Disabled {
		authMiddleware.Anonymous = &auth.Identity{Subject: "anonymous", Name: cfg.Auth.AnonymousName}
		logger.Warn("authentication disabled", zap.String("anonymous_name", cfg.Auth.AnonymousName))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(noteshttp.AccessLog(logger.Named("access")))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Statement-Total", "X-Statement-Items"},
			AllowCredentials: true,
		}))
	}
	r.Use(authMiddleware.Wrap)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if local, ok := blobs.(*blobstore.Local); ok {
		r.Handle(filesPrefix+"*", http.StripPrefix(filesPrefix, http.FileServer(http.Dir(local.Root()))))
	}
	handler.Routes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown error", zap.Error(err))
		}
	}()

	logger.Info("http server listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.Store.Backend),
		zap.String("blob", cfg.Blob.Backend),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server error", zap.Error(err))
	}
	logger.Info("http server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = atomic
	return zcfg.Build()
}

func openStores(cfg config.Config, logger *zap.Logger) (stores, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := sql.Open("pgx", cfg.Store.DatabaseURL)
		if err != nil {
			return stores{}, fmt.Errorf("db open: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return stores{}, fmt.Errorf("db ping: %w", err)
		}
		return stores{
			notes:       notespostgres.NewNoteRepository(db),
			contractors: notespostgres.NewContractorRepository(db),
			audit:       audit.NewRepository(db),
			db:          db,
		}, nil
	case config.StoreWorkbook:
		if dir := filepath.Dir(cfg.Store.WorkbookPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return stores{}, fmt.Errorf("workbook dir: %w", err)
			}
		}
		wb, err := workbook.Open(cfg.Store.WorkbookPath)
		if err != nil {
			return stores{}, err
		}
		return stores{
			notes:       workbook.NewNoteRepository(wb),
			contractors: workbook.NewContractorRepository(wb),
			audit:       audit.NewZapLogger(logger),
		}, nil
	default:
		return stores{
			notes:       memory.NewNoteRepository(),
			contractors: memory.NewContractorRepository(),
			audit:       audit.NewZapLogger(logger),
		}, nil
	}
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig) (blobstore.Store, error) {
	if cfg.Backend == config.BlobDrive {
		creds, err := os.ReadFile(cfg.DriveCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("drive credentials: %w", err)
		}
		drive, err := blobstore.NewDrive(ctx, creds, cfg.DriveFolderID)
		if err != nil {
			return nil, err
		}
		return drive, nil
	}
	local, err := blobstore.NewLocal(cfg.LocalRoot, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func buildNotifier(cfg config.NotifyConfig, c *composer.Composer, logger *zap.Logger) (*notify.Notifier, error) {
	channel, err := notify.NewWebhookChannel(cfg.WebhookURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	tpl, err := notify.NewTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	return notify.NewNotifier(channel, tpl,
		notify.WithAmountFormatter(c.FormatAmount),
		notify.WithTimeout(cfg.Timeout),
		notify.WithLogger(logger.Named("notify")),
	)
}

func parseCategories(values []string) []notes.Category {
	var out []notes.Category
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, notes.Category(v))
	}
	return out
}
