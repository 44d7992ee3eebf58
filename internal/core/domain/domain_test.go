package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillSetWithRejectsBlankAndDuplicate(t *testing.T) {
	set := NewSkillSet([]string{"Go"})

	same, ok := set.With("  ")
	assert.False(t, ok)
	assert.Equal(t, SkillSet{"Go"}, same)

	same, ok = set.With(" Go ")
	assert.False(t, ok)
	assert.Equal(t, SkillSet{"Go"}, same)

	next, ok := set.With(" Python ")
	require.True(t, ok)
	assert.Equal(t, SkillSet{"Go", "Python"}, next)
	assert.Equal(t, SkillSet{"Go"}, set, "receiver must not be mutated")
}

func TestSkillSetIsCaseSensitive(t *testing.T) {
	set := NewSkillSet([]string{"go", "Go", "go"})
	assert.Equal(t, SkillSet{"go", "Go"}, set)

	next, removed := set.Without("GO")
	assert.False(t, removed)
	assert.Equal(t, SkillSet{"go", "Go"}, next)

	next, removed = set.Without("go")
	assert.True(t, removed)
	assert.Equal(t, SkillSet{"Go"}, next)
}

func TestJobSelectionState(t *testing.T) {
	assert.Equal(t, StateNoJob, JobSelection{}.State())
	assert.Equal(t, StateJobSelected, JobSelection{Title: "Recruiter"}.State())
	assert.Equal(t, StateJobConfirmed, JobSelection{Title: "Recruiter", Confirmed: true}.State())
}

func TestGroupJobsKeepsOfferedTitlesOnly(t *testing.T) {
	groups := GroupJobs([]Job{
		{Title: "Recruiter"},
		{Title: "Software Engineer"},
		{Title: "Chef"},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, JobCategory{Name: "Engineering", Titles: []string{"Software Engineer"}}, groups[0])
	assert.Equal(t, JobCategory{Name: "HR & Marketing", Titles: []string{"Recruiter"}}, groups[1])
	assert.Equal(t, JobCategory{Name: OtherJobCategory, Titles: []string{"Chef"}}, groups[2])
}

func TestAllowedUploadType(t *testing.T) {
	assert.True(t, AllowedUploadType(MimePDF))
	assert.True(t, AllowedUploadType("text/plain; charset=utf-8"))
	assert.True(t, AllowedUploadType(MimeDOCX))
	assert.False(t, AllowedUploadType("image/png"))
	assert.False(t, AllowedUploadType(""))
}

func TestResumeIdentityKeyFieldOrder(t *testing.T) {
	record := ResumeRecord{Summary: ResumeSummary{
		Name:     "Ada",
		Email:    "ada@example.com",
		Phone:    "123",
		LinkedIn: "in/ada",
		GitHub:   "gh/ada",
	}}
	assert.Equal(t, "ada@example.com|123|in/ada|gh/ada|Ada", record.IdentityKey())
	assert.Equal(t, "||||", ResumeRecord{}.IdentityKey())
}

func TestResumeDisplayFallbacks(t *testing.T) {
	record := ResumeRecord{Filename: "cv.pdf"}
	assert.Equal(t, "cv.pdf", record.DisplayName())
	assert.Equal(t, "Pending", record.DisplayStatus())
}

func TestReportMatchRatioAndTime(t *testing.T) {
	report := Report{
		Date: "2025-03-01 10:30",
		Analysis: ReportAnalysis{
			SkillsMatched: []string{"go", "sql", "k8s"},
			SkillsMissing: []string{"rust"},
		},
	}
	assert.InDelta(t, 0.75, report.MatchRatio(), 1e-9)
	assert.Equal(t, 2025, report.Time().Year())
	assert.Zero(t, Report{}.MatchRatio())
	assert.True(t, Report{Date: "yesterday"}.Time().IsZero())
}

func TestAuthRedirectErrorUnwrapsBothKinds(t *testing.T) {
	cause := WrapError(ErrUnauthorized, "list resumes", errors.New("401"))
	err := WrapError(ErrAuthFailed, "pipeline", &AuthRedirectError{RedirectTo: RouteLogin, Cause: cause})

	redirect, ok := AsAuthRedirect(err)
	require.True(t, ok)
	assert.Equal(t, RouteLogin, redirect.RedirectTo)
	assert.True(t, IsKind(err, ErrAuthFailed))
	assert.True(t, IsKind(err, ErrUnauthorized))
}

type detailErr struct{ detail string }

func (e detailErr) Error() string        { return "detail error" }
func (e detailErr) ServerDetail() string { return e.detail }

func TestUserMessagePrefersServerDetail(t *testing.T) {
	assert.Equal(t, "Unsupported file", UserMessage(WrapError(ErrServer, "upload", detailErr{"Unsupported file"}), "Please try again."))
	assert.Equal(t, "Please try again.", UserMessage(WrapError(ErrServer, "upload", detailErr{" "}), "Please try again."))
	assert.Equal(t, "Please try again.", UserMessage(errors.New("boom"), "Please try again."))
}
