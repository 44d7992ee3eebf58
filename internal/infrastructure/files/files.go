package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

const sniffLen = 512

var extensionTypes = map[string]string{
	".pdf":  domain.MimePDF,
	".doc":  domain.MimeDOC,
	".docx": domain.MimeDOCX,
	".txt":  domain.MimeTXT,
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Load describes a local file as an upload candidate. The type comes from the
// extension and falls back to content sniffing; content is read only on Open.
func Load(path string) (domain.UploadFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.UploadFile{}, domain.Invalid("load file", path+" is a directory")
	}

	mimeType, err := detectType(path)
	if err != nil {
		return domain.UploadFile{}, err
	}
	return domain.UploadFile{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// LoadAll stops at the first file that cannot be described.
func LoadAll(paths []string) ([]domain.UploadFile, error) {
	out := make([]domain.UploadFile, 0, len(paths))
	for _, path := range paths {
		file, err := Load(path)
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}

func detectType(path string) (string, error) {
	if mimeType, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mimeType, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}
