package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/domain"
)

type mockCoordinator struct {
	initErr    error
	confirmErr error
	gotVideoID int
	gotConfirm domain.UploadConfirmRequest
}

func (m *mockCoordinator) InitUpload(ctx context.Context, req domain.UploadInitRequest) (*domain.UploadInitResponse, error) {
	if m.initErr != nil {
		return nil, m.initErr
	}
	return &domain.UploadInitResponse{VideoID: 7, UploadID: "u7", PartURLs: []string{"https://s/1"}, PartSize: domain.MinPartSize}, nil
}

func (m *mockCoordinator) ConfirmUpload(ctx context.Context, videoID int, req domain.UploadConfirmRequest) (*domain.UploadConfirmResponse, error) {
	m.gotVideoID = videoID
	m.gotConfirm = req
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return &domain.UploadConfirmResponse{VideoID: videoID, Status: domain.VideoStatusCompleted}, nil
}

func (m *mockCoordinator) GetVideo(ctx context.Context, videoID int) (*domain.Video, error) {
	if videoID != 7 {
		return nil, apperr.ErrNotFound
	}
	return &domain.Video{ID: 7, Status: domain.VideoStatusPendingUpload}, nil
}

func serve(t *testing.T, m *mockCoordinator, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	NewRouter(&V2Handler{Uploads: m}).ServeHTTP(w, r)
	return w
}

func TestUploadInit(t *testing.T) {
	w := serve(t, &mockCoordinator{}, http.MethodPost, "/v2/api/dev/videos/upload/init", `{"filename":"a.mp4","contentType":"video/mp4","sizeBytes":10}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.UploadInitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.VideoID)
	assert.Equal(t, "u7", resp.UploadID)
	assert.Equal(t, []string{"https://s/1"}, resp.PartURLs)
	assert.Contains(t, w.Body.String(), `"partUrls"`)
	assert.Contains(t, w.Body.String(), `"partSize":5242880`)
}

func TestUploadInitErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		initErr  error
		wantCode int
	}{
		{"malformed body", `{"filename":`, nil, http.StatusBadRequest},
		{"invalid request", `{}`, fmt.Errorf("%w: invalid content type", apperr.ErrInvalidRequest), http.StatusBadRequest},
		{"storage down", `{}`, fmt.Errorf("%w: connection refused", apperr.ErrStorage), http.StatusBadGateway},
		{"unexpected", `{}`, fmt.Errorf("redis: connection pool timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, &mockCoordinator{initErr: tt.initErr}, http.MethodPost, "/v2/api/dev/videos/upload/init", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUploadConfirm(t *testing.T) {
	m := &mockCoordinator{}
	w := serve(t, m, http.MethodPost, "/v2/api/dev/videos/7/upload/confirm", `{"uploadId":"u7","parts":[{"partNumber":1,"etag":"abc"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"videoId":7,"status":"completed"}`, w.Body.String())
	assert.Equal(t, 7, m.gotVideoID)
	assert.Equal(t, []domain.UploadPart{{PartNumber: 1, ETag: "abc"}}, m.gotConfirm.Parts)
}

func TestUploadConfirmErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		confirmErr error
		wantCode   int
	}{
		{"missing upload id", "/v2/api/dev/videos/7/upload/confirm", `{"parts":[]}`, nil, http.StatusBadRequest},
		{"unknown video", "/v2/api/dev/videos/8/upload/confirm", `{"uploadId":"u"}`, apperr.ErrNotFound, http.StatusNotFound},
		{"already confirmed", "/v2/api/dev/videos/7/upload/confirm", `{"uploadId":"u7"}`, apperr.ErrInvalidState, http.StatusConflict},
		{"upload mismatch", "/v2/api/dev/videos/7/upload/confirm", `{"uploadId":"x"}`, apperr.ErrUploadMismatch, http.StatusBadRequest},
		{"non numeric id", "/v2/api/dev/videos/abc/upload/confirm", `{"uploadId":"u7"}`, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, &mockCoordinator{confirmErr: tt.confirmErr}, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestGetVideoAndHealth(t *testing.T) {
	w := serve(t, &mockCoordinator{}, http.MethodGet, "/v2/api/dev/videos/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending_upload"`)

	w = serve(t, &mockCoordinator{}, http.MethodGet, "/v2/api/dev/videos/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, &mockCoordinator{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
