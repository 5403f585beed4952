package types

// SubScore is a single scored dimension with the model's justification
type SubScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// KeywordMatch is the keyword-coverage dimension of job alignment
type KeywordMatch struct {
	SubScore
	MissingKeywords []string `json:"missingKeywords,omitempty"`
}

// RequirementsMatch is the requirements-coverage dimension of job alignment
type RequirementsMatch struct {
	SubScore
	GapAnalysis []string `json:"gapAnalysis,omitempty"`
}

// Completeness groups the completeness sub-scores
type Completeness struct {
	ContactInformation SubScore `json:"contactInformation"`
	DetailLevel        SubScore `json:"detailLevel"`
}

// ImpactScore groups the impact sub-scores
type ImpactScore struct {
	ActiveVoice            SubScore `json:"activeVoice"`
	QuantifiedAchievements SubScore `json:"quantifiedAchievements"`
}

// RoleMatch groups the role-fit sub-scores
type RoleMatch struct {
	SkillsRelevance     SubScore `json:"skillsRelevance"`
	ExperienceAlignment SubScore `json:"experienceAlignment"`
	EducationFit        SubScore `json:"educationFit"`
}

// JobAlignment groups the job-specific sub-scores. Only present when the
// resume was scored against a job.
type JobAlignment struct {
	KeywordMatch      KeywordMatch      `json:"keywordMatch"`
	RequirementsMatch RequirementsMatch `json:"requirementsMatch"`
	CompanyFit        SubScore          `json:"companyFit"`
}

// ScoreResult is the multi-dimensional evaluation of a resume.
// OverallScore is an independent model judgment, not derived from the sub-scores.
type ScoreResult struct {
	OverallScore            SubScore      `json:"overallScore"`
	Completeness            Completeness  `json:"completeness"`
	ImpactScore             ImpactScore   `json:"impactScore"`
	RoleMatch               RoleMatch     `json:"roleMatch"`
	JobAlignment            *JobAlignment `json:"jobAlignment,omitempty"`
	OverallImprovements     []string      `json:"overallImprovements"`
	JobSpecificImprovements []string      `json:"jobSpecificImprovements"`
}

// clampScore bounds a score to [0,100]
func clampScore(s *SubScore) {
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 100 {
		s.Score = 100
	}
}

// Clamp bounds every score in the result to [0,100] in place
func (r *ScoreResult) Clamp() {
	for _, s := range []*SubScore{
		&r.OverallScore,
		&r.Completeness.ContactInformation,
		&r.Completeness.DetailLevel,
		&r.ImpactScore.ActiveVoice,
		&r.ImpactScore.QuantifiedAchievements,
		&r.RoleMatch.SkillsRelevance,
		&r.RoleMatch.ExperienceAlignment,
		&r.RoleMatch.EducationFit,
	} {
		clampScore(s)
	}
	if r.JobAlignment != nil {
		clampScore(&r.JobAlignment.KeywordMatch.SubScore)
		clampScore(&r.JobAlignment.RequirementsMatch.SubScore)
		clampScore(&r.JobAlignment.CompanyFit)
	}
}
