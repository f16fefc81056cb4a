package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/diagnosis/visitor-pass/pkg/logger"
	"github.com/google/uuid"
)

// multipart fields beyond the file itself
const formOverhead = 1 << 20

var photoExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// PhotoStore saves uploaded visitor photos under Dir and serves them from /uploads.
type PhotoStore struct {
	Dir     string
	MaxSize int64
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseForm reads a multipart body capped at MaxSize plus field overhead.
func (s PhotoStore) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxSize+formOverhead)
	if err := r.ParseMultipartForm(s.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrFileTooLarge
		}
		return domain.ErrFileUpload.WithMessage("Invalid multipart form")
	}
	return nil
}

// save stores the optional file in field and returns its public path, or "" when absent.
func (s PhotoStore) save(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", domain.ErrFileUpload
	}
	defer file.Close()

	if header.Size > s.MaxSize {
		return "", domain.ErrFileTooLarge
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", domain.ErrFileUpload
	}
	ext, ok := photoExt[http.DetectContentType(head[:n])]
	if !ok {
		return "", domain.ErrInvalidFileType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", domain.ErrFileUpload
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		logger.ErrorContext(r.Context(), "create upload dir", "dir", s.Dir, "error", err)
		return "", domain.ErrFileUpload
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		logger.ErrorContext(r.Context(), "create upload file", "error", err)
		return "", domain.ErrFileUpload
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(dst.Name())
		return "", domain.ErrFileUpload
	}
	return "/uploads/" + name, nil
}

// discard removes a photo saved for a request that failed afterwards.
func (s PhotoStore) discard(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.Dir, filepath.Base(path)))
}
