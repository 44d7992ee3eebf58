package files

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadUsesExtension(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"cv.PDF":    domain.MimePDF,
		"cv.doc":    domain.MimeDOC,
		"cv.docx":   domain.MimeDOCX,
		"notes.txt": domain.MimeTXT,
		"photo.png": "image/png",
	}
	for name, want := range cases {
		file, err := Load(writeFile(t, dir, name, "x"))
		require.NoError(t, err)
		assert.Equal(t, want, file.MIMEType, name)
		assert.Equal(t, name, file.Name)
	}
}

func TestLoadSniffsUnknownExtension(t *testing.T) {
	dir := t.TempDir()

	pdf, err := Load(writeFile(t, dir, "resume", "%PDF-1.7\n..."))
	require.NoError(t, err)
	assert.Equal(t, domain.MimePDF, pdf.MIMEType)

	text, err := Load(writeFile(t, dir, "resume.md", "# Ada Lovelace"))
	require.NoError(t, err)
	assert.True(t, domain.AllowedUploadType(text.MIMEType), text.MIMEType)
}

func TestLoadOpensLazily(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cv.txt", "hello")
	file, err := Load(path)
	require.NoError(t, err)

	rc, err := file.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)

	_, err = Load(dir)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))

	_, err = LoadAll([]string{writeFile(t, dir, "a.pdf", "x"), filepath.Join(dir, "nope.pdf")})
	require.Error(t, err)
}
