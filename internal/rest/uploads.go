package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	UploadAvatars = "avatars"
	UploadImages  = "images"
	UploadVideos  = "videos"
	UploadFiles   = "files"
)

var allowedExtensions = map[string][]string{
	UploadAvatars: {".png", ".jpg", ".jpeg", ".gif", ".webp"},
	UploadImages:  {".png", ".jpg", ".jpeg", ".gif", ".webp"},
	UploadVideos:  {".mp4", ".webm", ".mov"},
	UploadFiles:   nil, // anything goes
}

// UploadResponse is the backend's answer to a successful upload: the
// public URL the file is served from.
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Upload sends a file as multipart form data to /upload/{uploadType}. The
// extension is checked client-side before any bytes leave the machine, so
// an obviously wrong file fails fast instead of round-tripping.
func (c *Client) Upload(ctx context.Context, uploadType string, filename string, r io.Reader) (UploadResponse, error) {
	extensions, ok := allowedExtensions[uploadType]
	if !ok {
		return UploadResponse{}, fmt.Errorf("unknown upload type %q", uploadType)
	}

	if extensions != nil {
		ext := strings.ToLower(filepath.Ext(filename))
		allowed := false
		for _, e := range extensions {
			if ext == e {
				allowed = true
				break
			}
		}
		if !allowed {
			return UploadResponse{}, fmt.Errorf("file type %q not allowed for %s uploads", ext, uploadType)
		}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return UploadResponse{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload/"+uploadType, &buf)
	if err != nil {
		return UploadResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var uploaded UploadResponse
	err = c.send(req, &uploaded)
	return uploaded, err
}
