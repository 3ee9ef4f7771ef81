package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valdix-dev/rosterd/internal/config"
	"github.com/valdix-dev/rosterd/internal/roster"
)

// stubService implements RosterService with overridable behavior per test.
type stubService struct {
	importFn func(ctx context.Context, path string) (int, error)
	listFn   func(ctx context.Context) ([]roster.Record, error)
	findFn   func(ctx context.Context, id, complement string) ([]roster.Record, error)
	searchFn func(ctx context.Context, q roster.NameQuery) ([]roster.Record, error)
	pingErr  error
}

func (s *stubService) ImportFile(ctx context.Context, path string) (int, error) {
	if s.importFn != nil {
		return s.importFn(ctx, path)
	}
	return 0, errors.New("not configured")
}

func (s *stubService) List(ctx context.Context) ([]roster.Record, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubService) FindByIdentity(ctx context.Context, id, complement string) ([]roster.Record, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id, complement)
	}
	return nil, nil
}

func (s *stubService) SearchByName(ctx context.Context, q roster.NameQuery) ([]roster.Record, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, q)
	}
	return nil, nil
}

func (s *stubService) Ping(ctx context.Context) error {
	return s.pingErr
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Import: config.ImportConfig{
			MaxUploadSize: 1 << 20,
			TempDir:       t.TempDir(),
			Timeout:       time.Minute,
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, svc RosterService) *Server {
	t.Helper()
	return NewServer(svc, testConfig(t))
}

// multipartBody builds a multipart form with one file field named "file".
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleImport_NoFile(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != "IMP001" {
		t.Errorf("code = %q, want %q", resp.Code, "IMP001")
	}
}

func TestHandleImport_Success(t *testing.T) {
	var gotPath string
	svc := &stubService{
		importFn: func(ctx context.Context, path string) (int, error) {
			gotPath = path
			// The importer owns the staged file and removes it.
			os.Remove(path)
			return 3, nil
		},
	}
	srv := newTestServer(t, svc)

	body, contentType := multipartBody(t, "roster.xlsx", []byte("workbook bytes"))
	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp ImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("count = %d, want 3", resp.Count)
	}
	if resp.BatchID == "" {
		t.Error("batch_id should not be empty")
	}
	if !strings.Contains(filepath.Base(gotPath), resp.BatchID) {
		t.Errorf("staged file %q should carry batch ID %q", gotPath, resp.BatchID)
	}
}

func TestHandleImport_EmptyBatch(t *testing.T) {
	svc := &stubService{
		importFn: func(ctx context.Context, path string) (int, error) {
			os.Remove(path)
			return 0, roster.ErrEmptyBatch
		},
	}
	srv := newTestServer(t, svc)

	body, contentType := multipartBody(t, "empty.xlsx", []byte("header only"))
	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleImport_BatchFailure(t *testing.T) {
	svc := &stubService{
		importFn: func(ctx context.Context, path string) (int, error) {
			os.Remove(path)
			return 0, &roster.ImportError{Row: 4, Cause: errors.New("duplicate key value violates unique constraint")}
		},
	}
	srv := newTestServer(t, svc)

	body, contentType := multipartBody(t, "dupes.xlsx", []byte("workbook bytes"))
	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != "DB001" {
		t.Errorf("code = %q, want %q", resp.Code, "DB001")
	}
}

func TestHandleListRecords(t *testing.T) {
	svc := &stubService{
		listFn: func(ctx context.Context) ([]roster.Record, error) {
			return []roster.Record{
				{IdentityNumber: "100", PaternalSurname: "ALVAREZ"},
				{IdentityNumber: "200", PaternalSurname: "BRAVO"},
			}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var records []roster.Record
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
}

func TestHandleListRecords_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want %q", body, "[]")
	}
}

func TestHandleIdentityLookup_MissingID(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/records/by-identity", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != "QRY002" {
		t.Errorf("code = %q, want %q", resp.Code, "QRY002")
	}
}

func TestHandleIdentityLookup_NoMatches(t *testing.T) {
	svc := &stubService{
		findFn: func(ctx context.Context, id, complement string) ([]roster.Record, error) {
			return nil, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/records/by-identity?id=999", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleIdentityLookup_PassesComplement(t *testing.T) {
	var gotID, gotComplement string
	svc := &stubService{
		findFn: func(ctx context.Context, id, complement string) ([]roster.Record, error) {
			gotID, gotComplement = id, complement
			return []roster.Record{{IdentityNumber: id}}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/records/by-identity?id=12345&complement=null", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotID != "12345" || gotComplement != "null" {
		t.Errorf("service called with (%q, %q), want (%q, %q)", gotID, gotComplement, "12345", "null")
	}
}

func TestHandleNameSearch_NoCriteria(t *testing.T) {
	svc := &stubService{
		searchFn: func(ctx context.Context, q roster.NameQuery) ([]roster.Record, error) {
			return nil, roster.ErrMissingCriteria
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/records/by-name", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != "QRY001" {
		t.Errorf("code = %q, want %q", resp.Code, "QRY001")
	}
}

func TestHandleNameSearch_ForwardsQuery(t *testing.T) {
	var got roster.NameQuery
	svc := &stubService{
		searchFn: func(ctx context.Context, q roster.NameQuery) ([]roster.Record, error) {
			got = q
			return []roster.Record{{PaternalSurname: "GARCIA"}}, nil
		},
	}
	srv := newTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/records/by-name?paternal=gar&unit=third", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	want := roster.NameQuery{Paternal: "gar", Unit: "third"}
	if got != want {
		t.Errorf("query = %+v, want %+v", got, want)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("database down", func(t *testing.T) {
		srv := newTestServer(t, &stubService{pingErr: errors.New("connection refused")})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", got, "DENY")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if !rl.allow("10.0.0.1") {
		t.Error("second request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("different IP should have its own bucket")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, ImportPerMinute: 1}
	srv := NewServer(&stubService{}, cfg)

	first := httptest.NewRecorder()
	srv.Router().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want %d", first.Code, http.StatusOK)
	}

	second := httptest.NewRecorder()
	srv.Router().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
	if got := second.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want %q", got, "60")
	}
}
