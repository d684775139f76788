package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"debitnote-cloud/internal/audit"
	"debitnote-cloud/internal/auth"
	"debitnote-cloud/internal/blobstore"
	"debitnote-cloud/internal/composer"
	noteapp "debitnote-cloud/internal/notes/application"
	"debitnote-cloud/internal/notes/infrastructure/memory"
)

type auditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *auditRecorder) Log(ctx context.Context, entry audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type testServer struct {
	router http.Handler
	audit  *auditRecorder
}

func newTestServer(t *testing.T, opts ...composer.Option) *testServer {
	t.Helper()
	repo := memory.NewNoteRepository()
	contractorRepo := memory.NewContractorRepository()
	blobs, err := blobstore.NewLocal(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)
	c, err := composer.New(opts...)
	require.NoError(t, err)

	notesSvc, err := noteapp.NewNoteService(repo, blobs, c, noteapp.WithContractorCheck(contractorRepo))
	require.NoError(t, err)
	statements, err := noteapp.NewStatementService(repo, c)
	require.NoError(t, err)
	contractors, err := noteapp.NewContractorService(contractorRepo, nil)
	require.NoError(t, err)
	_, err = contractors.Add(context.Background(), "Shree Builders")
	require.NoError(t, err)

	recorder := &auditRecorder{}
	h, err := NewHandler(notesSvc, statements, contractors, WithAuditLogger(recorder))
	require.NoError(t, err)
	r := chi.NewRouter()
	h.Routes(r)
	return &testServer{router: r, audit: recorder}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{Subject: "u-7", Name: "Site Engineer", Role: "engineer"}))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: 90, B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func noteForm(t *testing.T, fields map[string]string, images int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i := 0; i < images; i++ {
		part, err := mw.CreateFormFile("images", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(pngBytes(t))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"contractor": "Shree Builders",
		"date":       "2024-02-10",
		"site":       "Tower B",
		"category":   "safety",
		"amount":     "250.50",
		"reason":     "No harness on scaffold",
	}
}

func TestSubmitNote(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, noteForm(t, validFields(), 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Note.ID)
	assert.Equal(t, "250.50", resp.Note.Amount)
	assert.Equal(t, "2024-02-10", resp.Note.Date)
	assert.Equal(t, "Site Engineer", resp.Note.Submitter)
	assert.Len(t, resp.Note.ImageLinks, 2)
	assert.True(t, strings.HasSuffix(resp.Note.PDFLink, ".pdf"))
	assert.Empty(t, resp.Skipped)
	assert.Equal(t, []string{"note.submit"}, s.audit.actions())
	assert.Equal(t, "u-7", s.audit.entries[0].Actor)
}

func TestSubmitNote_Errors(t *testing.T) {
	cases := map[string]struct {
		field, value string
		want         int
	}{
		"bad date":           {"date", "10/02/2024", http.StatusBadRequest},
		"bad amount":         {"amount", "lots", http.StatusBadRequest},
		"unknown category":   {"category", "weather", http.StatusBadRequest},
		"missing site":       {"site", "", http.StatusBadRequest},
		"unknown contractor": {"contractor", "Nobody Ltd", http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t)
			fields := validFields()
			fields[tc.field] = tc.value

			rec := s.do(t, noteForm(t, fields, 0))
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Empty(t, s.audit.actions())
		})
	}
}

func TestSubmitNote_RejectsNonMultipart(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndExportCSV(t *testing.T) {
	s := newTestServer(t)
	first := validFields()
	second := validFields()
	second["date"] = "2024-03-05"
	second["reason"] = "Material shortfall, rebar"
	second["category"] = "material"
	require.Equal(t, http.StatusCreated, s.do(t, noteForm(t, first, 0)).Code)
	require.Equal(t, http.StatusCreated, s.do(t, noteForm(t, second, 0)).Code)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/notes?contractor=shree+builders&from=2024-03-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []noteDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "material", list[0].Category)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/notes/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "2024-02-10", rows[1][1])
	assert.Equal(t, "Material shortfall, rebar", rows[2][6])

	for _, bad := range []string{"from=yesterday", "category=weather", "limit=-1"} {
		rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/notes?"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestStatementExport(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, noteForm(t, validFields(), 0)).Code)
	other := validFields()
	other["date"] = "2024-02-21"
	other["amount"] = "49.50"
	require.Equal(t, http.StatusCreated, s.do(t, noteForm(t, other, 0)).Code)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/statements/export.pdf?contractor=Shree+Builders&from=2024-02-01&to=2024-02-29", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "300.00", rec.Header().Get("X-Statement-Total"))
	assert.Equal(t, "2", rec.Header().Get("X-Statement-Items"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement_Shree_Builders_20240201_20240229.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/statements/export.xlsx?contractor=Shree+Builders&from=2024-02-01&to=2024-02-29", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "300.00", rec.Header().Get("X-Statement-Total"))

	assert.Contains(t, s.audit.actions(), "statement.export")
}

func TestAmountsKeepCurrencyPlaces(t *testing.T) {
	s := newTestServer(t, composer.WithCurrency("KWD", 3))
	first := validFields()
	first["amount"] = "1.235"
	second := validFields()
	second["date"] = "2024-02-21"
	second["amount"] = "2.001"

	rec := s.do(t, noteForm(t, first, 0))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1.235", resp.Note.Amount)
	require.Equal(t, http.StatusCreated, s.do(t, noteForm(t, second, 0)).Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/notes/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1.235", rows[1][5])
	assert.Equal(t, "2.001", rows[2][5])

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/statements/export.xlsx?contractor=Shree+Builders&from=2024-02-01&to=2024-02-29", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "3.236", rec.Header().Get("X-Statement-Total"))
}

func TestStatementExport_BadRequests(t *testing.T) {
	s := newTestServer(t)
	for _, query := range []string{
		"from=2024-02-01&to=2024-02-29",
		"contractor=X&to=2024-02-29",
		"contractor=X&from=2024-02-01&to=soon",
		"contractor=X&from=2024-03-01&to=2024-02-01",
	} {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/statements/export.pdf?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestContractors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/contractors", strings.NewReader(`{"name":"Apex Electricals"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/contractors", strings.NewReader(`{"name":"apex electricals"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/contractors", strings.NewReader(`{"name":" "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/contractors", strings.NewReader(`nope`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/contractors", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []contractorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Apex Electricals", list[1].Name)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"quality", "safety", "delay", "material", "other"}, list)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(AccessLog(zap.New(core)))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/items/{id}", fields["route"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}

func TestNewHandler_NilServices(t *testing.T) {
	_, err := NewHandler(nil, nil, nil)
	assert.Error(t, err)
}
