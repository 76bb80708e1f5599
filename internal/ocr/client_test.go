package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		b, _ := io.ReadAll(f)
		assert.Equal(t, "scan.png", hdr.Filename)
		assert.Equal(t, "image-bytes", string(b))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"F2024-001 120 TND"}`))
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL).Recognize(context.Background(), "scan.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "F2024-001 120 TND", text)
}

func TestRecognize_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Recognize(context.Background(), "scan.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
