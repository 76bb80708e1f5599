package upload

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devisportal/internal/database/dbtest"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func newTestService(t *testing.T) *Service {
	db := dbtest.Open(t, &Upload{})
	return NewService(NewRepository(db), t.TempDir())
}

func TestSave_SpecificationPDF(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Save(ctx, 7, PurposeSpecification, File{Name: "cahier des charges.pdf", Size: int64(len(pdfBytes)), Reader: bytes.NewReader(pdfBytes)})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", u.MimeType)
	assert.Equal(t, int64(len(pdfBytes)), u.Size)
	assert.Contains(t, u.FilePath, "cahier_des_charges.pdf")

	got, rc, err := svc.Open(ctx, u.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, body)
	assert.Equal(t, u.ID, got.ID)
}

func TestSave_SpecificationRejectsWrongExtensionOrContent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, 7, PurposeSpecification, File{Name: "spec.docx", Size: int64(len(pdfBytes)), Reader: bytes.NewReader(pdfBytes)})
	assert.ErrorIs(t, err, ErrInvalidExt)

	text := []byte("just some text pretending to be a pdf")
	_, err = svc.Save(ctx, 7, PurposeSpecification, File{Name: "spec.pdf", Size: int64(len(text)), Reader: bytes.NewReader(text)})
	assert.ErrorIs(t, err, ErrInvalidMimeType)

	_, err = svc.Save(ctx, 7, PurposeSpecification, File{Name: "spec.pdf", Size: 0, Reader: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSave_OCRSourceAcceptsImages(t *testing.T) {
	svc := newTestService(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	u, err := svc.Save(context.Background(), 1, PurposeOCRSource, File{Name: "scan", Size: int64(len(png)), Reader: bytes.NewReader(png)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.MimeType)
	assert.Contains(t, u.FilePath, ".png")
}

func TestDelete_RemovesRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Save(ctx, 7, PurposeSpecification, File{Name: "a.pdf", Size: int64(len(pdfBytes)), Reader: bytes.NewReader(pdfBytes)})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, u.ID))

	_, _, err = svc.Open(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}
