package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/domain"
)

const (
	initPath    = "/v2/api/dev/videos/upload/init"
	confirmPath = "/v2/api/dev/videos/%d/upload/confirm"

	maxErrorBody = 4 << 10
)

// APIClient talks to the upload coordination backend.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *APIClient) postJSON(ctx context.Context, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func readBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return string(body)
}

// Initiate asks the backend for a new upload session with one presigned target per part.
func (c *APIClient) Initiate(ctx context.Context, fileName, contentType string, sizeBytes int64) (*domain.UploadSession, error) {
	url := c.baseURL + initPath
	resp, err := c.postJSON(ctx, url, domain.UploadInitRequest{
		Filename:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	})
	if err != nil {
		return nil, &apperr.ConnectivityError{Op: "init upload", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.ServerRejectionError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	var initResp domain.UploadInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, &apperr.ServerRejectionError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("invalid init response: %v", err)}
	}
	return domain.NewUploadSession(initResp), nil
}

// Confirm submits the acknowledged parts, which must already be sorted by part number.
func (c *APIClient) Confirm(ctx context.Context, videoID int, uploadID string, parts []domain.UploadPart) (*domain.UploadConfirmResponse, error) {
	url := c.baseURL + fmt.Sprintf(confirmPath, videoID)
	resp, err := c.postJSON(ctx, url, domain.UploadConfirmRequest{
		UploadID: uploadID,
		Parts:    parts,
	})
	if err != nil {
		return nil, &apperr.ConnectivityError{Op: "confirm upload", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.ConfirmationError{StatusCode: resp.StatusCode, Body: readBody(resp)}
	}

	var confirmResp domain.UploadConfirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&confirmResp); err != nil {
		return nil, &apperr.ConfirmationError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("invalid confirm response: %v", err)}
	}
	return &confirmResp, nil
}
