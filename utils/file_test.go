package utils

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageExtension(t *testing.T) {
	cases := []struct {
		contentType, filename, want string
	}{
		{"image/png", "a.png", ".png"},
		{"image/jpeg", "photo.jpeg", ".jpeg"},
		{"image/jpeg", "photo.JPG", ".jpg"},
		{"IMAGE/WEBP; charset=binary", "x", ".webp"},
	}
	for _, tc := range cases {
		got, err := ImageExtension(tc.contentType, tc.filename)
		require.NoError(t, err, tc.contentType)
		assert.Equal(t, tc.want, got)
	}

	for _, ct := range []string{"application/pdf", "image/svg+xml"} {
		_, err := ImageExtension(ct, "doc")
		assert.ErrorIs(t, err, ErrUnsupportedMedia, ct)
	}
}

func TestSniffImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ct, ext, err := SniffImage(png, "avatar.gif")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext, "extension follows the bytes, not the name")

	ct, ext, err = SniffImage([]byte("GIF89a\x01\x00\x01\x00"), "x")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", ct)
	assert.Equal(t, ".gif", ext)

	for _, body := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`,
		`<?xml version="1.0"?><svg></svg>`,
		"<html><body>hi</body></html>",
		"fake image bytes",
	} {
		_, _, err := SniffImage([]byte(body), "avatar.png")
		assert.ErrorIs(t, err, ErrUnsupportedMedia, body)
	}
}

// multipartFile builds a parsed multipart file header holding body.
func multipartFile(t *testing.T, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="f.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func TestReadUpload(t *testing.T) {
	fh := multipartFile(t, "image/png", []byte("pngbytes"))
	data, err := ReadUpload(fh, 1024)
	require.NoError(t, err)
	assert.Equal(t, "pngbytes", string(data))

	big := multipartFile(t, "image/png", []byte(strings.Repeat("x", 2048)))
	_, err = ReadUpload(big, 1024)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
