package upload

import (
	"context"
	"fmt"
	"mime/multipart"
)

// SaveMultipart is Save for a file taken from a multipart form.
func (s *Service) SaveMultipart(ctx context.Context, userID int64, purpose Purpose, fh *multipart.FileHeader) (*Upload, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()
	return s.Save(ctx, userID, purpose, File{Name: fh.Filename, Size: fh.Size, Reader: src})
}
