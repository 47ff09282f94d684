package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/domain"
	"github.com/jonno85/video-multipart-uploader/internal/service"
)

const maxRequestSize = 1 << 20

type appHandler func(http.ResponseWriter, *http.Request) error

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		httpErr := toHTTPError(err)
		if httpErr.Code >= http.StatusInternalServerError {
			slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		} else {
			slog.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
		}
		_ = replyJSON(w, map[string]string{"error": httpErr.Message}, httpErr.Code)
	}
}

// toHTTPError maps service errors onto response codes.
func toHTTPError(err error) *apperr.HTTPError {
	var httpErr *apperr.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, apperr.ErrNotFound):
		return &apperr.HTTPError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, apperr.ErrInvalidRequest), errors.Is(err, apperr.ErrUploadMismatch):
		return &apperr.HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, apperr.ErrInvalidState):
		return &apperr.HTTPError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, apperr.ErrStorage):
		return &apperr.HTTPError{Code: http.StatusBadGateway, Message: err.Error()}
	default:
		return &apperr.HTTPError{Code: http.StatusInternalServerError, Message: fmt.Sprintf("internal server error: %v", err)}
	}
}

type V2Handler struct {
	Uploads service.UploadCoordinator
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	_ = replyJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// POST /v2/api/dev/videos/upload/init
func (h *V2Handler) UploadInit(w http.ResponseWriter, r *http.Request) error {
	var req domain.UploadInitRequest
	if err := parseJSON(w, r, &req); err != nil {
		return &apperr.HTTPError{Code: http.StatusBadRequest, Message: fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	resp, err := h.Uploads.InitUpload(r.Context(), req)
	if err != nil {
		return err
	}
	return replyJSON(w, resp, http.StatusOK)
}

// POST /v2/api/dev/videos/{id}/upload/confirm
func (h *V2Handler) UploadConfirm(w http.ResponseWriter, r *http.Request) error {
	videoID, err := videoIDFromPath(r)
	if err != nil {
		return err
	}
	var req domain.UploadConfirmRequest
	if err := parseJSON(w, r, &req); err != nil {
		return &apperr.HTTPError{Code: http.StatusBadRequest, Message: fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	if req.UploadID == "" {
		return &apperr.HTTPError{Code: http.StatusBadRequest, Message: "uploadId is required"}
	}
	resp, err := h.Uploads.ConfirmUpload(r.Context(), videoID, req)
	if err != nil {
		return err
	}
	return replyJSON(w, resp, http.StatusOK)
}

// GET /v2/api/dev/videos/{id}
func (h *V2Handler) GetVideo(w http.ResponseWriter, r *http.Request) error {
	videoID, err := videoIDFromPath(r)
	if err != nil {
		return err
	}
	video, err := h.Uploads.GetVideo(r.Context(), videoID)
	if err != nil {
		return err
	}
	return replyJSON(w, video, http.StatusOK)
}

func videoIDFromPath(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, &apperr.HTTPError{Code: http.StatusBadRequest, Message: "video ID must be a positive integer"}
	}
	return id, nil
}

// Parse incoming request body as JSON object.
func parseJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	return json.NewDecoder(r.Body).Decode(data)
}

// Respond the output with JSON format to the client.
func replyJSON(w http.ResponseWriter, data any, code int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
