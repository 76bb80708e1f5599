package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxFileSize    = 20 * 1024 * 1024 // 20 MB
	UploadsBaseDir = "./uploads"
)

type rule struct {
	mimes map[string]bool
	exts  map[string]bool // empty means any extension
}

var rules = map[Purpose]rule{
	PurposeSpecification: {
		mimes: map[string]bool{"application/pdf": true},
		exts:  map[string]bool{".pdf": true},
	},
	PurposeOCRSource: {
		mimes: map[string]bool{
			"image/jpeg":      true,
			"image/png":       true,
			"image/gif":       true,
			"image/webp":      true,
			"image/bmp":       true,
			"application/pdf": true,
		},
	},
}

// File is an incoming upload. See SaveMultipart for form files.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Service stores files on local disk and records them in the uploads table.
type Service struct {
	repo    uploadStore
	baseDir string
	now     func() time.Time
}

func NewService(repo uploadStore, baseDir string) *Service {
	if baseDir == "" {
		baseDir = UploadsBaseDir
	}
	return &Service{repo: repo, baseDir: baseDir, now: time.Now}
}

// Check validates name and sniffed MIME type against the purpose's allow-list
// without storing anything. head is the first bytes of the file.
func Check(purpose Purpose, name string, head []byte) (string, error) {
	r, ok := rules[purpose]
	if !ok {
		return "", ErrUnknownPurpose
	}
	if len(r.exts) > 0 && !r.exts[strings.ToLower(filepath.Ext(name))] {
		return "", ErrInvalidExt
	}
	mimeType := strings.Split(http.DetectContentType(head), ";")[0]
	if !r.mimes[mimeType] {
		return "", ErrInvalidMimeType
	}
	return mimeType, nil
}

// Save validates f for purpose, writes it under uploads/YYYY/MM/DD/ and records it.
func (s *Service) Save(ctx context.Context, userID int64, purpose Purpose, f File) (*Upload, error) {
	if f.Size == 0 {
		return nil, ErrEmptyFile
	}
	if f.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	// Detect MIME type from first 512 bytes
	head := make([]byte, 512)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	mimeType, err := Check(purpose, f.Name, head)
	if err != nil {
		return nil, err
	}

	now := s.now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == "" {
		ext = mimeToExt(mimeType)
	}
	filename := fmt.Sprintf("%s_%s%s", id, sanitizeName(f.Name), ext)

	absPath := filepath.Join(absDir, filename)
	dst, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), io.LimitReader(f.Reader, MaxFileSize)))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	u := &Upload{
		ID:           id,
		UserID:       userID,
		Purpose:      purpose,
		OriginalName: f.Name,
		FilePath:     filepath.ToSlash(filepath.Join(relDir, filename)),
		MimeType:     mimeType,
		Size:         written,
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		_ = os.Remove(absPath) // rollback file on DB error
		return nil, fmt.Errorf("failed to save upload record: %w", err)
	}
	return u, nil
}

// Open returns the stored file. The caller closes it.
func (s *Service) Open(ctx context.Context, id string) (*Upload, io.ReadCloser, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, filepath.FromSlash(u.FilePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrUploadNotFound
		}
		return nil, nil, err
	}
	return u, f, nil
}

// Delete removes the physical file and the DB record.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(u.FilePath))) // may already be gone
	return s.repo.Remove(ctx, id)
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" {
		return "file"
	}
	return name
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
