package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akavelink/akavelink"
	linkhttp "github.com/akavelink/akavelink/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of http.Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateBucket(ctx context.Context, name string) (*akavelink.Bucket, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*akavelink.Bucket), args.Error(1)
}

func (m *MockService) ViewBucket(ctx context.Context, name string) (*akavelink.Bucket, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*akavelink.Bucket), args.Error(1)
}

func (m *MockService) ListBuckets(ctx context.Context) ([]akavelink.Bucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]akavelink.Bucket), args.Error(1)
}

func (m *MockService) DeleteBucket(ctx context.Context, name string) (*akavelink.DeleteAck, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*akavelink.DeleteAck), args.Error(1)
}

func (m *MockService) ListFiles(ctx context.Context, bucket string) ([]akavelink.FileMeta, error) {
	args := m.Called(ctx, bucket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]akavelink.FileMeta), args.Error(1)
}

func (m *MockService) FileInfo(ctx context.Context, bucket, file string) (*akavelink.FileMeta, error) {
	args := m.Called(ctx, bucket, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*akavelink.FileMeta), args.Error(1)
}

func (m *MockService) DeleteFile(ctx context.Context, bucket, file string) (*akavelink.DeleteAck, error) {
	args := m.Called(ctx, bucket, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*akavelink.DeleteAck), args.Error(1)
}

func (m *MockService) Upload(ctx context.Context, bucket, fileName string, content io.Reader) (*akavelink.UploadResult, error) {
	args := m.Called(ctx, bucket, fileName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*akavelink.UploadResult), args.Error(1)
}

func (m *MockService) Download(ctx context.Context, bucket, file string) (string, func(), error) {
	args := m.Called(ctx, bucket, file)
	cleanup, _ := args.Get(1).(func())
	return args.String(0), cleanup, args.Error(2)
}

func newHandler(service linkhttp.Service) *linkhttp.Handler {
	return linkhttp.NewHandler(&linkhttp.HandlerConfig{}, akavelink.DefaultRegistry(), service)
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, true, body["success"])
	return body
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, false, body["success"])
	return body["error"].(map[string]any)
}

func TestHandler_CreateBucket(t *testing.T) {
	service := new(MockService)
	service.On("CreateBucket", mock.Anything, "mybucket").
		Return(&akavelink.Bucket{Name: "mybucket", Owner: "0xabc"}, nil)

	req := httptest.NewRequest("POST", "/buckets", strings.NewReader(`{"name":"mybucket"}`))
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeSuccess(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "mybucket", data["name"])
	service.AssertExpectations(t)
}

func TestHandler_CreateBucket_InvalidName(t *testing.T) {
	service := new(MockService)

	req := httptest.NewRequest("POST", "/buckets", strings.NewReader(`{"name":"bad name"}`))
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeError(t, rec)
	assert.Equal(t, akavelink.CodeValidationError, errBody["code"])
	service.AssertNotCalled(t, "CreateBucket")
}

func TestHandler_DeleteBucket_NonemptyMapsTo400(t *testing.T) {
	reg := akavelink.DefaultRegistry()
	service := new(MockService)
	service.On("DeleteBucket", mock.Anything, "mybucket").
		Return(nil, reg.NewError(akavelink.CodeBucketNonempty, nil))

	req := httptest.NewRequest("DELETE", "/buckets/mybucket", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeError(t, rec)
	assert.Equal(t, akavelink.CodeBucketNonempty, errBody["code"])
	assert.Equal(t, "Bucket is not empty", errBody["message"])
}

func TestHandler_ViewBucket_NotFound(t *testing.T) {
	reg := akavelink.DefaultRegistry()
	service := new(MockService)
	service.On("ViewBucket", mock.Anything, "missing").
		Return(nil, reg.NewError(akavelink.CodeBucketNonexists, nil))

	req := httptest.NewRequest("GET", "/buckets/missing", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListBuckets(t *testing.T) {
	service := new(MockService)
	service.On("ListBuckets", mock.Anything).
		Return([]akavelink.Bucket{{Name: "alpha"}, {Name: "beta"}}, nil)

	req := httptest.NewRequest("GET", "/buckets", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeSuccess(t, rec)
	data := body["data"].([]any)
	assert.Len(t, data, 2)
}

func TestHandler_ListFiles(t *testing.T) {
	service := new(MockService)
	service.On("ListFiles", mock.Anything, "mybucket").
		Return([]akavelink.FileMeta{{Name: "a.txt", Size: "12"}}, nil)

	req := httptest.NewRequest("GET", "/buckets/mybucket/files", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_FileInfo(t *testing.T) {
	service := new(MockService)
	service.On("FileInfo", mock.Anything, "mybucket", "a.txt").
		Return(&akavelink.FileMeta{Name: "a.txt", Hash: "0xcafe"}, nil)

	req := httptest.NewRequest("GET", "/buckets/mybucket/files/a.txt", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeSuccess(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "0xcafe", data["hash"])
}

func TestHandler_InvalidBucketNameRejectedByMiddleware(t *testing.T) {
	service := new(MockService)

	req := httptest.NewRequest("GET", "/buckets/bad=name/files", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeError(t, rec)
	assert.Equal(t, akavelink.CodeValidationError, errBody["code"])
	service.AssertNotCalled(t, "ListFiles")
}

func TestHandler_Upload(t *testing.T) {
	service := new(MockService)
	service.On("Upload", mock.Anything, "mybucket", "a.txt", mock.Anything).
		Return(&akavelink.UploadResult{
			FileMeta:        akavelink.FileMeta{Name: "a.txt"},
			TransactionHash: "0xhash",
		}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "a.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/buckets/mybucket/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeSuccess(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, "0xhash", data["transaction_hash"])
	service.AssertExpectations(t)
}

func TestHandler_Upload_MissingFileField(t *testing.T) {
	service := new(MockService)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/buckets/mybucket/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Upload")
}

func TestHandler_Download(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	cleaned := false
	service := new(MockService)
	service.On("Download", mock.Anything, "mybucket", "a.txt").
		Return(path, func() { cleaned = true }, nil)

	req := httptest.NewRequest("GET", "/buckets/mybucket/files/a.txt/download", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payload", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "a.txt")
	assert.True(t, cleaned)
}

func TestHandler_Download_Error(t *testing.T) {
	reg := akavelink.DefaultRegistry()
	service := new(MockService)
	service.On("Download", mock.Anything, "mybucket", "missing.txt").
		Return("", nil, reg.NewError(akavelink.CodeFileNonexists, nil))

	req := httptest.NewRequest("GET", "/buckets/mybucket/files/missing.txt/download", nil)
	rec := httptest.NewRecorder()
	newHandler(service).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	newHandler(new(MockService)).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
