package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdf-collab/backend/go/internal/file_service/service"
	"pdf-collab/backend/go/internal/file_service/store"
	"pdf-collab/backend/go/internal/models"

	"github.com/gin-gonic/gin"
)

type fakeFileService struct {
	uploadCalls  int
	uploadOwner  *string
	uploadFolder string
	uploadResult []service.UploadResult
	deleteErr    error
	deletedPaths []string
	listFiles    []models.File
	listFolder   string
	signedErr    error
}

func (f *fakeFileService) UploadBatch(ctx context.Context, owner *string, folder string, files []service.UploadFile) []service.UploadResult {
	f.uploadCalls++
	f.uploadOwner = owner
	f.uploadFolder = folder
	if f.uploadResult != nil {
		return f.uploadResult
	}
	results := make([]service.UploadResult, len(files))
	for i, file := range files {
		results[i] = service.UploadResult{Filename: file.Filename, Path: folder + "/anon_1_" + file.Filename}
	}
	return results
}

func (f *fakeFileService) Delete(ctx context.Context, path string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedPaths = append(f.deletedPaths, path)
	return nil
}

func (f *fakeFileService) List(ctx context.Context, folder string, owner *string) ([]models.File, error) {
	f.listFolder = folder
	return f.listFiles, nil
}

func (f *fakeFileService) SignedURL(ctx context.Context, path string) (string, time.Duration, error) {
	if f.signedErr != nil {
		return "", 0, f.signedErr
	}
	return "https://store.example/" + path + "?sig=abc", time.Hour, nil
}

type fakeAuth struct {
	verifyToken string
	verifyErr   error
}

func (f *fakeAuth) RequestMagicLink(email string) (string, error) { return "tok", nil }

func (f *fakeAuth) VerifyMagicLink(token string) (string, error) {
	f.verifyToken = token
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return "jwt-token", nil
}

func newTestRouter(svc *fakeFileService, auth AuthProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, auth, nil, nil)
	return SetupRouter(h, "test-secret")
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLegacyUploadSuccess(t *testing.T) {
	svc := &fakeFileService{}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/upload", gin.H{
		"fileName":    "a.pdf",
		"fileContent": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.uploadFolder != "current" {
		t.Errorf("missing folder should default to current, got %q", svc.uploadFolder)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["path"] == "" {
		t.Errorf("response should carry the storage path")
	}
}

func TestLegacyUploadRejectionReported(t *testing.T) {
	svc := &fakeFileService{uploadResult: []service.UploadResult{
		{Filename: "notes.txt", Error: "内容不是 PDF"},
	}}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/upload", gin.H{
		"fileName":    "notes.txt",
		"fileContent": base64.StdEncoding.EncodeToString([]byte("plain text")),
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Errorf("rejection must carry an error message")
	}
}

func TestLegacyUploadBadBase64(t *testing.T) {
	svc := &fakeFileService{}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/upload", gin.H{
		"fileName":    "a.pdf",
		"fileContent": "not base64!!!",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if svc.uploadCalls != 0 {
		t.Errorf("malformed payload must not reach the service")
	}
}

func TestLegacyUploadMethodNotAllowed(t *testing.T) {
	r := newTestRouter(&fakeFileService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestLegacyDeleteMissingPath(t *testing.T) {
	svc := &fakeFileService{}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/delete", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(svc.deletedPaths) != 0 {
		t.Errorf("missing path must not reach the service")
	}
}

func TestLegacyDeleteEchoesPath(t *testing.T) {
	svc := &fakeFileService{}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/delete", gin.H{"path": "current/anon_1_a.pdf"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["path"] != "current/anon_1_a.pdf" {
		t.Errorf("success response must echo the path, got %q", resp["path"])
	}
}

func TestLegacyDeleteFailureIs400(t *testing.T) {
	svc := &fakeFileService{deleteErr: errors.New("removal failed")}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/delete", gin.H{"path": "current/anon_1_a.pdf"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListFilesDefaultsFolder(t *testing.T) {
	svc := &fakeFileService{listFiles: []models.File{{Filename: "a.pdf", Path: "current/anon_1_a.pdf"}}}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.listFolder != "current" {
		t.Errorf("folder should default to current, got %q", svc.listFolder)
	}
	var resp struct {
		Files []models.File `json:"files"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Files) != 1 || resp.Files[0].Filename != "a.pdf" {
		t.Errorf("unexpected file list: %+v", resp.Files)
	}
}

func TestListFilesEmptyIsArray(t *testing.T) {
	r := newTestRouter(&fakeFileService{}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/files?folder=archive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"files":[]`) {
		t.Errorf("empty folder must serialize as [], got %s", w.Body.String())
	}
}

func TestUploadFilesMultipart(t *testing.T) {
	svc := &fakeFileService{}
	r := newTestRouter(svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("folder", "archive")
	part, _ := mw.CreateFormFile("files", "a.pdf")
	part.Write([]byte("%PDF-1.4"))
	part, _ = mw.CreateFormFile("files", "b.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.uploadFolder != "archive" {
		t.Errorf("folder field not honored, got %q", svc.uploadFolder)
	}
	var resp struct {
		Results []service.UploadResult `json:"results"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 2 {
		t.Errorf("expected per-file results, got %+v", resp.Results)
	}
}

func TestUploadFilesPartialFailureIs207(t *testing.T) {
	svc := &fakeFileService{uploadResult: []service.UploadResult{
		{Filename: "a.pdf", Path: "current/anon_1_a.pdf"},
		{Filename: "b.pdf", Error: "插入元数据失败"},
	}}
	r := newTestRouter(svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("files", "a.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", w.Code)
	}
}

func TestDeleteFileNotFound(t *testing.T) {
	svc := &fakeFileService{deleteErr: store.ErrNotFound}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodDelete, "/api/v1/files", gin.H{"path": "current/anon_1_gone.pdf"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateSignedURL(t *testing.T) {
	r := newTestRouter(&fakeFileService{}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/files/signed-url", gin.H{"path": "current/anon_1_a.pdf"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		URL       string `json:"url"`
		ExpiresIn int64  `json:"expires_in"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.URL == "" || resp.ExpiresIn != 3600 {
		t.Errorf("unexpected signed url response: %+v", resp)
	}
}

func TestMalformedBearerRejected(t *testing.T) {
	r := newTestRouter(&fakeFileService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("Authorization", "Bearer")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAnonymousRequestAllowed(t *testing.T) {
	svc := &fakeFileService{}
	r := newTestRouter(svc, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous listing must succeed, status = %d", w.Code)
	}
}

func TestVerifyMagicLinkQueryToken(t *testing.T) {
	auth := &fakeAuth{}
	r := newTestRouter(&fakeFileService{}, auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify?token=abc123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if auth.verifyToken != "abc123" {
		t.Errorf("query token not passed through, got %q", auth.verifyToken)
	}
}

func TestHealthzReportsDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeFileService{}, nil, nil, nil)
	h.HealthChecks = map[string]func(ctx context.Context) error{
		"mysql": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}
	r := SetupRouter(h, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when a dependency is down", w.Code)
	}
	var resp struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Dependencies["mysql"] != "ok" {
		t.Errorf("healthy dependency should report ok, got %q", resp.Dependencies["mysql"])
	}
}

func TestHealthzNoChecks(t *testing.T) {
	r := newTestRouter(&fakeFileService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuthDisabledReturns503(t *testing.T) {
	r := newTestRouter(&fakeFileService{}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/magic-link", gin.H{"email": "alice@example.com"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
