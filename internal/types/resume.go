// Package types provides type definitions for structured data used throughout the resume-optimizer service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Resume is a stored resume. Base resumes are reusable templates; tailored
// resumes are derived from a base resume for one job and carry its JobID.
type Resume struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	JobID        *uuid.UUID    `json:"job_id,omitempty"`
	Name         string        `json:"name"`
	TargetRole   string        `json:"target_role"`
	IsBaseResume bool          `json:"is_base_resume"`
	Content      ResumeContent `json:"content"`
	Version      int           `json:"version"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ResumeContent is the structured body of a resume. It is the unit the
// rewrite model reads and produces.
type ResumeContent struct {
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Email          string           `json:"email"`
	PhoneNumber    string           `json:"phone_number,omitempty"`
	Location       string           `json:"location,omitempty"`
	Website        string           `json:"website,omitempty"`
	LinkedInURL    string           `json:"linkedin_url,omitempty"`
	GitHubURL      string           `json:"github_url,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Skills         []SkillGroup     `json:"skills"`
	Projects       []Project        `json:"projects"`
	Certifications []Certification  `json:"certifications,omitempty"`
}

// WorkExperience is a single position held by the candidate
type WorkExperience struct {
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	Location     string   `json:"location,omitempty"`
	Date         string   `json:"date"`
	Description  []string `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
}

// Education is a single education entry
type Education struct {
	School       string   `json:"school"`
	Degree       string   `json:"degree"`
	Field        string   `json:"field,omitempty"`
	Location     string   `json:"location,omitempty"`
	Date         string   `json:"date"`
	GPA          string   `json:"gpa,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// SkillGroup is a named category of skills
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Project is a side or portfolio project
type Project struct {
	Name         string   `json:"name"`
	Description  []string `json:"description"`
	Date         string   `json:"date,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
	GitHubURL    string   `json:"github_url,omitempty"`
}

// Certification is a professional certification
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// FullName returns the candidate's display name
func (c *ResumeContent) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// CreateResumeRequest is the body of POST /api/v1/resumes
type CreateResumeRequest struct {
	Name         string        `json:"name" validate:"required,min=1,max=200"`
	TargetRole   string        `json:"target_role" validate:"max=200"`
	IsBaseResume bool          `json:"is_base_resume"`
	JobID        *uuid.UUID    `json:"job_id,omitempty"`
	Content      ResumeContent `json:"content"`
}

// UpdateResumeRequest is the body of PUT /api/v1/resumes/{id}.
// Version must match the stored version; stale writes are rejected.
type UpdateResumeRequest struct {
	Name       string        `json:"name" validate:"required,min=1,max=200"`
	TargetRole string        `json:"target_role" validate:"max=200"`
	Content    ResumeContent `json:"content"`
	Version    int           `json:"version" validate:"min=1"`
}
