package models

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	WorkTypeRemote       = "Remote"
	WorkTypeOnsiteHybrid = "Onsite/Hybrid"

	// RemoteThreshold is the smallest remote_ratio classified as Remote.
	RemoteThreshold = 50

	SkillSeparator = ", "

	DateLayout = "2006-01-02"
)

// JobPosting is one row of the normalized table.
type JobPosting struct {
	ID                  string    `json:"id"`
	Line                int       `json:"line"`
	JobTitle            string    `json:"job_title"`
	CompanyName         string    `json:"company_name"`
	CompanyLocation     string    `json:"company_location"`
	EmployeeResidence   string    `json:"employee_residence"`
	ExperienceLevel     string    `json:"experience_level"`
	RemoteRatio         float64   `json:"remote_ratio"`
	SalaryUSD           float64   `json:"salary_usd"`
	RequiredSkills      string    `json:"required_skills"`
	Industry            string    `json:"industry"`
	EducationRequired   string    `json:"education_required"`
	BenefitsScore       float64   `json:"benefits_score"`
	PostingDate         time.Time `json:"posting_date"`
	ApplicationDeadline time.Time `json:"application_deadline"`
}

// WorkType derives the work arrangement from RemoteRatio on every call.
func (p JobPosting) WorkType() string {
	if p.RemoteRatio >= RemoteThreshold {
		return WorkTypeRemote
	}
	return WorkTypeOnsiteHybrid
}

func (p JobPosting) ExperienceLevelFull() string {
	return ExperienceLabel(p.ExperienceLevel)
}

// Skills splits RequiredSkills on ", ". Empty tokens are skipped.
func (p JobPosting) Skills() []string {
	parts := strings.Split(p.RequiredSkills, SkillSeparator)
	skills := parts[:0]
	for _, s := range parts {
		if s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// MarshalJSON adds the derived columns to the encoded posting.
func (p JobPosting) MarshalJSON() ([]byte, error) {
	type posting JobPosting
	return json.Marshal(struct {
		posting
		WorkType            string `json:"work_type"`
		ExperienceLevelFull string `json:"experience_level_full"`
	}{posting(p), p.WorkType(), p.ExperienceLevelFull()})
}
