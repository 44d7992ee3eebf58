package domain

import (
	"io"
	"strings"
	"time"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeTXT  = "text/plain"
)

var allowedUploadTypes = map[string]bool{
	MimePDF:  true,
	MimeDOC:  true,
	MimeDOCX: true,
	MimeTXT:  true,
}

// AllowedUploadType reports whether mimeType is accepted for resume upload.
// Parameters such as "; charset=utf-8" are ignored.
func AllowedUploadType(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	return allowedUploadTypes[strings.ToLower(strings.TrimSpace(base))]
}

// UploadFile is a staged resume file. Open is called once per submission.
type UploadFile struct {
	Name     string
	MIMEType string
	Open     func() (io.ReadCloser, error)
}

type ExtractedResume struct {
	Name     string `json:"name,omitempty"`
	Filename string `json:"filename,omitempty"`
	Email    string `json:"email,omitempty"`
}

type UploadResult struct {
	Extracted []ExtractedResume
	Headline  string
	Redirect  string
}

// UploadEvent is published after a successful submission.
type UploadEvent struct {
	Job        string    `json:"job"`
	Files      []string  `json:"files"`
	Extracted  int       `json:"extracted"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ResumeSummary struct {
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	LinkedIn string   `json:"linkedin,omitempty"`
	GitHub   string   `json:"github,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

type ResumeRecord struct {
	ID       int           `json:"id"`
	Filename string        `json:"filename"`
	Summary  ResumeSummary `json:"summary"`
	Status   string        `json:"status"`
	FileURL  string        `json:"file_url"`
}

// IdentityKey joins email|phone|linkedin|github|name. Missing fields are empty.
func (r ResumeRecord) IdentityKey() string {
	s := r.Summary
	return s.Email + "|" + s.Phone + "|" + s.LinkedIn + "|" + s.GitHub + "|" + s.Name
}

func (r ResumeRecord) DisplayName() string {
	if r.Summary.Name != "" {
		return r.Summary.Name
	}
	return r.Filename
}

func (r ResumeRecord) DisplayStatus() string {
	if r.Status == "" {
		return "Pending"
	}
	return r.Status
}
