package types

import (
	"time"

	"github.com/google/uuid"
)

// Job is a job description the user is targeting
type Job struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	CompanyName    string    `json:"company_name"`
	PositionTitle  string    `json:"position_title"`
	Description    string    `json:"description"`
	Location       string    `json:"location,omitempty"`
	WorkLocation   string    `json:"work_location,omitempty"`   // remote, in_person, hybrid
	EmploymentType string    `json:"employment_type,omitempty"` // full_time, part_time, co_op, internship, contract
	SalaryRange    string    `json:"salary_range,omitempty"`
	URL            string    `json:"url,omitempty"`
	Keywords       []string  `json:"keywords"`
	Requirements   []string  `json:"requirements"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateJobRequest is the body of POST /api/v1/jobs
type CreateJobRequest struct {
	CompanyName    string   `json:"company_name" validate:"required,max=200"`
	PositionTitle  string   `json:"position_title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"required"`
	Location       string   `json:"location,omitempty" validate:"max=200"`
	WorkLocation   string   `json:"work_location,omitempty" validate:"omitempty,oneof=remote in_person hybrid"`
	EmploymentType string   `json:"employment_type,omitempty" validate:"omitempty,oneof=full_time part_time co_op internship contract"`
	SalaryRange    string   `json:"salary_range,omitempty" validate:"max=100"`
	URL            string   `json:"url,omitempty" validate:"omitempty,url"`
	Keywords       []string `json:"keywords,omitempty"`
	Requirements   []string `json:"requirements,omitempty"`
}

// UpdateJobRequest is the body of PUT /api/v1/jobs/{id}
type UpdateJobRequest = CreateJobRequest

// ImportJobRequest is the body of POST /api/v1/jobs/import
type ImportJobRequest struct {
	URL    string         `json:"url" validate:"required,url"`
	Config *ModelSettings `json:"config,omitempty"`
}

// Apply copies the request fields onto a job
func (r *CreateJobRequest) Apply(job *Job) {
	job.CompanyName = r.CompanyName
	job.PositionTitle = r.PositionTitle
	job.Description = r.Description
	job.Location = r.Location
	job.WorkLocation = r.WorkLocation
	job.EmploymentType = r.EmploymentType
	job.SalaryRange = r.SalaryRange
	job.URL = r.URL
	job.Keywords = r.Keywords
	job.Requirements = r.Requirements
}

// JobDescription is the part of a job a model sees. Identifiers, ownership
// and timestamps are left out.
type JobDescription struct {
	CompanyName    string   `json:"company_name"`
	PositionTitle  string   `json:"position_title"`
	Description    string   `json:"description"`
	Location       string   `json:"location,omitempty"`
	WorkLocation   string   `json:"work_location,omitempty"`
	EmploymentType string   `json:"employment_type,omitempty"`
	SalaryRange    string   `json:"salary_range,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Requirements   []string `json:"requirements,omitempty"`
}

// Describe returns the model-facing view of the job
func (j *Job) Describe() JobDescription {
	return JobDescription{
		CompanyName:    j.CompanyName,
		PositionTitle:  j.PositionTitle,
		Description:    j.Description,
		Location:       j.Location,
		WorkLocation:   j.WorkLocation,
		EmploymentType: j.EmploymentType,
		SalaryRange:    j.SalaryRange,
		Keywords:       j.Keywords,
		Requirements:   j.Requirements,
	}
}
