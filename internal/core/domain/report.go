package domain

import "time"

const ReportDateLayout = "2006-01-02 15:04"

type ReportAnalysis struct {
	SkillsMatched   []string `json:"required_skills_matched"`
	SkillsMissing   []string `json:"required_skills_missing"`
	ExperienceYears float64  `json:"experience_years"`
	Education       string   `json:"education"`
	EducationScore  float64  `json:"education_score"`
	Certifications  int      `json:"certifications"`
	Projects        int      `json:"projects"`
}

type Report struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	FileURL  string         `json:"file_url"`
	Date     string         `json:"date"`
	Score    float64        `json:"score"`
	Status   string         `json:"status"`
	Analysis ReportAnalysis `json:"analysis"`
}

// Time parses Date; an unparsable date yields the zero time.
func (r Report) Time() time.Time {
	t, err := time.Parse(ReportDateLayout, r.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// MatchRatio is matched / (matched + missing), 0 when nothing is required.
func (r Report) MatchRatio() float64 {
	matched := len(r.Analysis.SkillsMatched)
	total := matched + len(r.Analysis.SkillsMissing)
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}
