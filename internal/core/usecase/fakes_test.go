package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

type jobsAPIFake struct {
	mu         sync.Mutex
	jobs       []domain.Job
	skills     map[string][]string
	skillsErr  error
	saveErr    error
	skillCalls []string
	saved      []savedSkills
	saveHook   func()
}

type savedSkills struct {
	job    string
	skills []string
}

func (f *jobsAPIFake) ListJobs(context.Context) ([]domain.Job, error) {
	return f.jobs, nil
}

func (f *jobsAPIFake) JobSkills(_ context.Context, job string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skillCalls = append(f.skillCalls, job)
	if f.skillsErr != nil {
		return nil, f.skillsErr
	}
	return append([]string{}, f.skills[job]...), nil
}

func (f *jobsAPIFake) SaveJobSkills(_ context.Context, job string, skills []string) error {
	if f.saveHook != nil {
		f.saveHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, savedSkills{job: job, skills: append([]string{}, skills...)})
	return nil
}

func (f *jobsAPIFake) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type resumesAPIFake struct {
	records   []domain.ResumeRecord
	listErr   error
	extracted []domain.ExtractedResume
	uploadErr error
	uploads   []uploadCall
	deleted   [][]int
	deleteErr error
}

type uploadCall struct {
	job   string
	files []string
}

func (f *resumesAPIFake) ListResumes(context.Context) ([]domain.ResumeRecord, error) {
	return f.records, f.listErr
}

func (f *resumesAPIFake) UploadResumes(_ context.Context, job string, files []domain.UploadFile) ([]domain.ExtractedResume, error) {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	f.uploads = append(f.uploads, uploadCall{job: job, files: names})
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.extracted, nil
}

func (f *resumesAPIFake) BulkDeleteResumes(_ context.Context, ids []int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, ids)
	return nil
}

type sessionFake struct {
	snapshot *domain.SessionSnapshot
	saves    int
	clears   int
	saveErr  error
	loadErr  error
}

func (f *sessionFake) Save(_ context.Context, snapshot domain.SessionSnapshot) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	s := snapshot
	f.snapshot = &s
	return nil
}

func (f *sessionFake) Load(context.Context) (*domain.SessionSnapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.snapshot, nil
}

func (f *sessionFake) Clear(context.Context) error {
	f.clears++
	f.snapshot = nil
	return nil
}

type eventsFake struct {
	events []domain.UploadEvent
	err    error
}

func (f *eventsFake) PublishResumesUploaded(_ context.Context, event domain.UploadEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type recorderFake struct {
	mu      sync.Mutex
	syncs   []string
	uploads []error
}

func (f *recorderFake) RecordSkillSync(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, outcome)
}

func (f *recorderFake) RecordUpload(_ int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, err)
}

type authAPIFake struct {
	logins    []string
	registers []string
	logouts   int
	loginErr  error
	regErr    error
	logoutErr error
}

func (f *authAPIFake) Login(_ context.Context, username, _ string) error {
	f.logins = append(f.logins, username)
	return f.loginErr
}

func (f *authAPIFake) Register(_ context.Context, username, _, _ string) error {
	f.registers = append(f.registers, username)
	return f.regErr
}

func (f *authAPIFake) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

type credsFake struct {
	creds domain.Credentials
}

func (f credsFake) Credentials() domain.Credentials {
	return f.creds
}

type reportsAPIFake struct {
	reports []domain.Report
	err     error
}

func (f *reportsAPIFake) ListReports(context.Context) ([]domain.Report, error) {
	out := make([]domain.Report, len(f.reports))
	copy(out, f.reports)
	return out, f.err
}

type exporterFake struct {
	path    string
	reports []domain.Report
	err     error
}

func (f *exporterFake) Export(_ context.Context, path string, reports []domain.Report) error {
	f.path = path
	f.reports = reports
	return f.err
}

var errServerDown = errors.New("server down")

func stagedFile(name, mimeType string) domain.UploadFile {
	return domain.UploadFile{
		Name:     name,
		MIMEType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(name)), nil
		},
	}
}
