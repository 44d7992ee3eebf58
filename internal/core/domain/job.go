package domain

import "strings"

type WorkflowState string

const (
	StateNoJob        WorkflowState = "no_job"
	StateJobSelected  WorkflowState = "job_selected"
	StateJobConfirmed WorkflowState = "job_confirmed"
)

type Job struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

type JobSelection struct {
	Title     string
	Confirmed bool
}

func (s JobSelection) State() WorkflowState {
	switch {
	case s.Title == "":
		return StateNoJob
	case s.Confirmed:
		return StateJobConfirmed
	default:
		return StateJobSelected
	}
}

// SkillSet is a duplicate-free list of skills. Membership is case-sensitive.
type SkillSet []string

func NewSkillSet(skills []string) SkillSet {
	out := make(SkillSet, 0, len(skills))
	for _, skill := range skills {
		if out.Contains(skill) {
			continue
		}
		out = append(out, skill)
	}
	return out
}

func (s SkillSet) Contains(skill string) bool {
	for _, existing := range s {
		if existing == skill {
			return true
		}
	}
	return false
}

// With returns a copy with skill appended; ok is false for blank or duplicate input.
func (s SkillSet) With(skill string) (SkillSet, bool) {
	skill = strings.TrimSpace(skill)
	if skill == "" || s.Contains(skill) {
		return s, false
	}
	out := make(SkillSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, skill), true
}

// Without returns a copy with the exact match removed.
func (s SkillSet) Without(skill string) (SkillSet, bool) {
	out := make(SkillSet, 0, len(s))
	removed := false
	for _, existing := range s {
		if existing == skill {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	return out, removed
}

func (s SkillSet) Clone() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// SessionSnapshot survives reloads within one browser-like session.
// A nil Skills means the skills were never persisted.
type SessionSnapshot struct {
	SelectedJobTitle string   `json:"selectedJobTitle"`
	Skills           []string `json:"skills"`
}

type JobCategory struct {
	Name   string
	Titles []string
}

var jobCategories = []JobCategory{
	{Name: "Engineering", Titles: []string{"Software Engineer", "DevOps Engineer", "Data Analyst", "UI/UX Designer", "Project Manager", "Product Manager", "Operations Manager"}},
	{Name: "HR & Marketing", Titles: []string{"HR Specialist", "Recruiter", "Marketing Manager", "Content Writer", "Social Media Manager"}},
	{Name: "Finance & Legal", Titles: []string{"Accountant", "Financial Analyst", "Compliance Officer", "Legal Advisor"}},
	{Name: "Support & Admin", Titles: []string{"Customer Support", "Sales Executive", "Technical Support", "Administrative Assistant"}},
}

const OtherJobCategory = "Other"

// GroupJobs groups the titles offered by the server into the known categories.
// Titles outside every category are listed under OtherJobCategory.
func GroupJobs(jobs []Job) []JobCategory {
	offered := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		offered[job.Title] = true
	}

	known := make(map[string]bool)
	out := make([]JobCategory, 0, len(jobCategories)+1)
	for _, category := range jobCategories {
		group := JobCategory{Name: category.Name}
		for _, title := range category.Titles {
			known[title] = true
			if offered[title] {
				group.Titles = append(group.Titles, title)
			}
		}
		if len(group.Titles) > 0 {
			out = append(out, group)
		}
	}

	other := JobCategory{Name: OtherJobCategory}
	for _, job := range jobs {
		if job.Title != "" && !known[job.Title] {
			other.Titles = append(other.Titles, job.Title)
		}
	}
	if len(other.Titles) > 0 {
		out = append(out, other)
	}
	return out
}
