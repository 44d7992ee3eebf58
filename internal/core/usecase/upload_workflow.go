package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/ports"
)

const (
	MsgUploadFailedFallback = "Please try again."
	MsgInvalidFilesDropped  = "Some files were not valid."

	msgSelectJob          = "Please select a job."
	msgSelectBeforeSkill  = "Please select a job before editing skills."
	msgSelectBeforeSave   = "Please select a job before confirming."
	msgFileTypes          = "Only PDF, DOC, DOCX, and TXT files are allowed!"
	msgNoFiles            = "Please select at least one file before uploading!"
	msgSelectBeforeUpload = "Please select a job before uploading!"
	msgConfirmBeforeSend  = "Please confirm the job before uploading!"
	msgContinue           = "Please confirm a job with at least one skill first."

	defaultHeadline = "Resume"
)

var errSelectionChanged = errors.New("job selection changed while confirming")

// ErrSkillsNotSynced marks a confirmation that was saved while the skill edits
// made during it could not be pushed. The job stays confirmed.
var ErrSkillsNotSynced = errors.New("job confirmed, skills not synced")

// WorkflowRecorder receives workflow observations. A nil recorder is allowed.
type WorkflowRecorder interface {
	RecordSkillSync(outcome string)
	RecordUpload(files int, duration time.Duration, err error)
}

type WorkflowView struct {
	State       domain.WorkflowState
	Job         string
	Skills      []string
	SingleFile  string
	MultiFiles  []string
	StagedCount int
}

// UploadWorkflow drives NoJob -> JobSelected -> JobConfirmed together with the
// skill set and the staged files. Local state changes synchronously; the
// server push of a skill edit is returned as a SkillSync for the caller to run.
type UploadWorkflow struct {
	jobs     ports.JobsAPI
	resumes  ports.ResumesAPI
	session  ports.SessionStore
	events   ports.EventPublisher
	recorder WorkflowRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	selection domain.JobSelection
	skills    domain.SkillSet
	single    *domain.UploadFile
	multi     []domain.UploadFile
	epoch     uint64
	syncSeq   uint64
	// doneSeq is the newest sync pushed successfully. Guarded by syncMu.
	doneSeq uint64

	confirmMu sync.Mutex
	submitMu  sync.Mutex
	syncMu    sync.Mutex
}

type WorkflowOption func(*UploadWorkflow)

func WithEventPublisher(events ports.EventPublisher) WorkflowOption {
	return func(w *UploadWorkflow) { w.events = events }
}

func WithWorkflowRecorder(recorder WorkflowRecorder) WorkflowOption {
	return func(w *UploadWorkflow) { w.recorder = recorder }
}

func WithWorkflowLogger(logger *zap.Logger) WorkflowOption {
	return func(w *UploadWorkflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithClock(now func() time.Time) WorkflowOption {
	return func(w *UploadWorkflow) {
		if now != nil {
			w.now = now
		}
	}
}

func NewUploadWorkflow(
	jobs ports.JobsAPI,
	resumes ports.ResumesAPI,
	session ports.SessionStore,
	opts ...WorkflowOption,
) *UploadWorkflow {
	w := &UploadWorkflow{
		jobs:    jobs,
		resumes: resumes,
		session: session,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start resets the workflow from the session snapshot and lists the offered jobs.
// A restored job is confirmed; its skills are fetched only when none were saved.
func (w *UploadWorkflow) Start(ctx context.Context) ([]domain.Job, error) {
	snapshot, err := w.session.Load(ctx)
	if err != nil {
		w.logger.Warn("session_restore_failed", zap.Error(err))
		snapshot = nil
	}

	w.mu.Lock()
	w.epoch++
	w.selection = domain.JobSelection{}
	w.skills = nil
	w.single = nil
	w.multi = nil
	epoch := w.epoch
	needSkills := false
	if snapshot != nil && snapshot.SelectedJobTitle != "" {
		w.selection = domain.JobSelection{Title: snapshot.SelectedJobTitle, Confirmed: true}
		if snapshot.Skills != nil {
			w.skills = domain.NewSkillSet(snapshot.Skills)
		} else {
			w.skills = domain.SkillSet{}
			needSkills = true
		}
	}
	title := w.selection.Title
	w.mu.Unlock()

	if needSkills {
		if err := w.fetchSkills(ctx, title, epoch); err != nil {
			w.logger.Warn("skill_fetch_failed", zap.String("job", title), zap.Error(err))
		} else {
			w.mu.Lock()
			if w.epoch == epoch {
				w.persistLocked(ctx)
			}
			w.mu.Unlock()
		}
	}

	jobs, err := w.jobs.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// SelectJob moves to JobSelected and replaces the skills with the server suggestions.
func (w *UploadWorkflow) SelectJob(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Invalid("select job", msgSelectJob)
	}

	w.mu.Lock()
	w.epoch++
	epoch := w.epoch
	w.selection = domain.JobSelection{Title: title}
	w.skills = domain.SkillSet{}
	w.mu.Unlock()

	return w.fetchSkills(ctx, title, epoch)
}

func (w *UploadWorkflow) fetchSkills(ctx context.Context, title string, epoch uint64) error {
	skills, err := w.jobs.JobSkills(ctx, title)
	if err != nil {
		return fmt.Errorf("fetch skills for %q: %w", title, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return nil
	}
	w.skills = domain.NewSkillSet(skills)
	return nil
}

// Confirm saves {job, skills} on the server and moves to JobConfirmed.
// On failure nothing changes.
func (w *UploadWorkflow) Confirm(ctx context.Context) error {
	if !w.confirmMu.TryLock() {
		return domain.WrapError(domain.ErrActionInProgress, "confirm job", errors.New("confirmation already running"))
	}
	defer w.confirmMu.Unlock()

	w.mu.Lock()
	title := w.selection.Title
	sent := w.skills.Clone()
	epoch := w.epoch
	w.mu.Unlock()

	if title == "" {
		return domain.Invalid("confirm job", msgSelectBeforeSave)
	}
	if err := w.jobs.SaveJobSkills(ctx, title, sent); err != nil {
		return fmt.Errorf("confirm job: %w", err)
	}

	w.mu.Lock()
	if w.epoch != epoch {
		w.mu.Unlock()
		return fmt.Errorf("confirm job: %w", errSelectionChanged)
	}
	w.selection.Confirmed = true
	w.persistLocked(ctx)
	var followUp *SkillSync
	if !slices.Equal(sent, []string(w.skills)) {
		followUp = w.newSyncLocked()
	}
	w.mu.Unlock()

	if followUp != nil {
		if err := followUp.Run(ctx); err != nil {
			return fmt.Errorf("confirm job: %w: %w", ErrSkillsNotSynced, err)
		}
	}
	return nil
}

// AddSkill appends skill locally. The returned SkillSync is nil unless the job
// is confirmed and the set changed.
func (w *UploadWorkflow) AddSkill(ctx context.Context, skill string) (*SkillSync, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selection.Title == "" {
		return nil, domain.Invalid("add skill", msgSelectBeforeSkill)
	}
	next, ok := w.skills.With(skill)
	if !ok {
		return nil, nil
	}
	w.skills = next
	return w.afterEditLocked(ctx), nil
}

func (w *UploadWorkflow) RemoveSkill(ctx context.Context, skill string) (*SkillSync, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, removed := w.skills.Without(skill)
	if !removed {
		return nil, nil
	}
	w.skills = next
	return w.afterEditLocked(ctx), nil
}

func (w *UploadWorkflow) afterEditLocked(ctx context.Context) *SkillSync {
	if !w.selection.Confirmed {
		return nil
	}
	w.persistLocked(ctx)
	return w.newSyncLocked()
}

func (w *UploadWorkflow) newSyncLocked() *SkillSync {
	w.syncSeq++
	return &SkillSync{
		workflow: w,
		job:      w.selection.Title,
		skills:   w.skills.Clone(),
		seq:      w.syncSeq,
		epoch:    w.epoch,
	}
}

// ChangeJob returns to NoJob and drops the session snapshot. Staged files stay.
func (w *UploadWorkflow) ChangeJob(ctx context.Context) error {
	w.mu.Lock()
	w.epoch++
	w.selection = domain.JobSelection{}
	w.skills = nil
	w.mu.Unlock()

	if err := w.session.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// StageSingle accepts one allowed file; a rejected file also clears the previous one.
func (w *UploadWorkflow) StageSingle(file domain.UploadFile) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !domain.AllowedUploadType(file.MIMEType) {
		w.single = nil
		return domain.Invalid("stage file", msgFileTypes)
	}
	w.single = &file
	return nil
}

// StageMulti replaces the multi-file selection with the allowed files and
// reports how many were dropped.
func (w *UploadWorkflow) StageMulti(files []domain.UploadFile) int {
	valid := make([]domain.UploadFile, 0, len(files))
	for _, file := range files {
		if domain.AllowedUploadType(file.MIMEType) {
			valid = append(valid, file)
		}
	}

	w.mu.Lock()
	w.multi = valid
	w.mu.Unlock()

	return len(files) - len(valid)
}

func (w *UploadWorkflow) ClearStaged() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.single = nil
	w.multi = nil
}

// Submit uploads every staged file for the confirmed job in one request.
// Staged files are cleared on success and kept on failure.
func (w *UploadWorkflow) Submit(ctx context.Context) (*domain.UploadResult, error) {
	if !w.submitMu.TryLock() {
		return nil, domain.WrapError(domain.ErrActionInProgress, "submit resumes", errors.New("upload already running"))
	}
	defer w.submitMu.Unlock()

	w.mu.Lock()
	files := w.stagedLocked()
	selection := w.selection
	w.mu.Unlock()

	switch {
	case len(files) == 0:
		return nil, domain.Invalid("submit resumes", msgNoFiles)
	case selection.Title == "":
		return nil, domain.Invalid("submit resumes", msgSelectBeforeUpload)
	case !selection.Confirmed:
		return nil, domain.Invalid("submit resumes", msgConfirmBeforeSend)
	}

	start := w.now()
	extracted, err := w.resumes.UploadResumes(ctx, selection.Title, files)
	if w.recorder != nil {
		w.recorder.RecordUpload(len(files), w.now().Sub(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("submit resumes: %w", err)
	}

	w.mu.Lock()
	w.single = nil
	w.multi = nil
	w.mu.Unlock()

	w.publishUploaded(ctx, selection.Title, files, extracted)

	return &domain.UploadResult{
		Extracted: extracted,
		Headline:  headline(extracted),
		Redirect:  domain.RouteResumes,
	}, nil
}

func (w *UploadWorkflow) stagedLocked() []domain.UploadFile {
	files := make([]domain.UploadFile, 0, len(w.multi)+1)
	if w.single != nil {
		files = append(files, *w.single)
	}
	return append(files, w.multi...)
}

func (w *UploadWorkflow) publishUploaded(ctx context.Context, job string, files []domain.UploadFile, extracted []domain.ExtractedResume) {
	if w.events == nil {
		return
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	event := domain.UploadEvent{
		Job:        job,
		Files:      names,
		Extracted:  len(extracted),
		UploadedAt: w.now().UTC(),
	}
	if err := w.events.PublishResumesUploaded(ctx, event); err != nil {
		w.logger.Warn("upload_event_publish_failed", zap.String("job", job), zap.Error(err))
	}
}

func headline(extracted []domain.ExtractedResume) string {
	if len(extracted) == 0 {
		return defaultHeadline
	}
	switch {
	case extracted[0].Name != "":
		return extracted[0].Name
	case extracted[0].Filename != "":
		return extracted[0].Filename
	default:
		return defaultHeadline
	}
}

// Continue leaves the workflow for the resume list.
func (w *UploadWorkflow) Continue() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.selection.Confirmed || len(w.skills) == 0 {
		return "", domain.Invalid("continue", msgContinue)
	}
	return domain.RouteResumes, nil
}

func (w *UploadWorkflow) View() WorkflowView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := WorkflowView{
		State:  w.selection.State(),
		Job:    w.selection.Title,
		Skills: w.skills.Clone(),
	}
	if w.single != nil {
		view.SingleFile = w.single.Name
	}
	for _, file := range w.multi {
		view.MultiFiles = append(view.MultiFiles, file.Name)
	}
	view.StagedCount = len(w.stagedLocked())
	return view
}

// persistLocked writes the snapshot of a confirmed job. Failures are logged only.
func (w *UploadWorkflow) persistLocked(ctx context.Context) {
	if !w.selection.Confirmed {
		return
	}
	snapshot := domain.SessionSnapshot{
		SelectedJobTitle: w.selection.Title,
		Skills:           w.skills.Clone(),
	}
	if err := w.session.Save(ctx, snapshot); err != nil {
		w.logger.Warn("session_save_failed", zap.String("job", w.selection.Title), zap.Error(err))
	}
}

// SkillSync pushes one version of the skill set. Syncs run one at a time;
// a sync older than the last successful push, or from before a job change,
// is skipped.
type SkillSync struct {
	workflow *UploadWorkflow
	job      string
	skills   []string
	seq      uint64
	epoch    uint64
}

func (s *SkillSync) Job() string {
	return s.job
}

func (s *SkillSync) Skills() []string {
	out := make([]string, len(s.skills))
	copy(out, s.skills)
	return out
}

// Run never touches local state; a failed push is logged and returned.
func (s *SkillSync) Run(ctx context.Context) error {
	w := s.workflow
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	if w.syncStale(s) {
		w.recordSync("stale")
		return nil
	}
	if err := w.jobs.SaveJobSkills(ctx, s.job, s.skills); err != nil {
		w.recordSync("failure")
		w.logger.Warn("skill_sync_failed",
			zap.String("job", s.job),
			zap.Strings("skills", s.skills),
			zap.Error(err),
		)
		return fmt.Errorf("sync skills: %w", err)
	}
	w.doneSeq = s.seq
	w.recordSync("success")
	return nil
}

// syncStale must be called with syncMu held.
func (w *UploadWorkflow) syncStale(s *SkillSync) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return s.epoch != w.epoch || s.seq <= w.doneSeq
}

func (w *UploadWorkflow) recordSync(outcome string) {
	if w.recorder != nil {
		w.recorder.RecordSkillSync(outcome)
	}
}
