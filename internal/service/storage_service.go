package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	apperrors "pdf-extract-viewer/pkg/errors"
)

// SupabaseStorage implements domain.BlobStore against the Supabase storage
// HTTP API.
type SupabaseStorage struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

func NewStorageService(baseURL, apiKey, bucket string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		client:  http.DefaultClient,
	}
}

// Upload stores the payload at path and returns the fetchable public URL.
// The user token is forwarded so bucket policies apply; the anon key
// identifies the project.
func (s *SupabaseStorage) Upload(
	ctx context.Context,
	path string,
	data []byte,
	contentType string,
	token string,
) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/storage/v1/object/"+s.bucket+"/"+path,
		bytes.NewReader(data),
	)
	if err != nil {
		return "", apperrors.NewStorageError("failed to build storage request", err)
	}

	authToken := token
	if authToken == "" {
		authToken = s.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperrors.NewStorageError("storage upload failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.NewStorageError(
			fmt.Sprintf("storage upload failed with status %d", resp.StatusCode),
			fmt.Errorf("%s", string(body)),
		)
	}

	return s.publicURL(path), nil
}

// Fetch retrieves a previously uploaded object. Used by the retry path,
// which re-dispatches extraction from the stored raw bytes.
func (s *SupabaseStorage) Fetch(ctx context.Context, path, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		s.baseURL+"/storage/v1/object/"+s.bucket+"/"+path,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to build storage request", err)
	}

	authToken := token
	if authToken == "" {
		authToken = s.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewStorageError("storage fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("storage fetch failed with status %d", resp.StatusCode), nil)
	}

	return io.ReadAll(resp.Body)
}

func (s *SupabaseStorage) publicURL(path string) string {
	return s.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + path
}
