package optimize

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/types"
)

type fakeStore struct {
	mu      sync.Mutex
	resumes map[uuid.UUID]*types.Resume
	jobs    map[uuid.UUID]*types.Job
	updates int

	// afterCreate runs once the tailored resume exists
	afterCreate func(r *types.Resume)
	updateErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resumes: make(map[uuid.UUID]*types.Resume),
		jobs:    make(map[uuid.UUID]*types.Job),
	}
}

func (s *fakeStore) addBase(userID uuid.UUID) *types.Resume {
	r := &types.Resume{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         "Base",
		IsBaseResume: true,
		Version:      1,
		Content:      types.ResumeContent{FirstName: "Ada", LastName: "Lovelace", Summary: "Engineer"},
	}
	s.resumes[r.ID] = r
	return r
}

func (s *fakeStore) addJob(userID uuid.UUID) *types.Job {
	j := &types.Job{ID: uuid.New(), UserID: userID, CompanyName: "Acme", PositionTitle: "SRE", Description: "Run things"}
	s.jobs[j.ID] = j
	return j
}

func (s *fakeStore) GetBaseResume(_ context.Context, userID, id uuid.UUID) (*types.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resumes[id]
	if !ok || r.UserID != userID || !r.IsBaseResume {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) GetJob(_ context.Context, userID, id uuid.UUID) (*types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (s *fakeStore) CreateResume(_ context.Context, r *types.Resume) (*types.Resume, error) {
	s.mu.Lock()
	cp := *r
	cp.ID = uuid.New()
	cp.Version = 1
	s.resumes[cp.ID] = &cp
	out := cp
	hook := s.afterCreate
	s.mu.Unlock()

	// out is fixed before the hook runs, so a concurrent writer simulated by
	// the hook leaves the caller holding a stale version.
	if hook != nil {
		seen := out
		hook(&seen)
	}
	return &out, nil
}

func (s *fakeStore) UpdateResumeContent(_ context.Context, userID, id uuid.UUID, content *types.ResumeContent, expectedVersion int) (*types.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	r, ok := s.resumes[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	if r.Version != expectedVersion {
		return nil, types.ErrVersionConflict
	}
	r.Content = *content
	r.Version++
	s.updates++
	cp := *r
	return &cp, nil
}

// bumpVersion simulates a concurrent writer
func (s *fakeStore) bumpVersion(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[id].Version++
}

type fakeScorer struct {
	mu     sync.Mutex
	scores []int
	errs   []error
	calls  int
	sub    int

	// onScore runs before each scoring call with its zero-based index
	onScore func(call int)
}

func (f *fakeScorer) Score(ctx context.Context, _ *types.Resume, _ *types.Job, _ llm.ModelConfig) (*types.ScoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if f.onScore != nil {
		f.onScore(i)
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if len(f.scores) == 0 {
		return nil, errors.New("no scores configured")
	}
	// Error slots consume no score
	idx := i - countErrs(f.errs, i)
	if idx >= len(f.scores) {
		idx = len(f.scores) - 1
	}
	sub := f.sub
	if sub == 0 {
		sub = 70
	}
	return scoreWith(f.scores[idx], sub), nil
}

func countErrs(errs []error, upTo int) int {
	n := 0
	for i := 0; i < upTo && i < len(errs); i++ {
		if errs[i] != nil {
			n++
		}
	}
	return n
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRewriter struct {
	mu           sync.Mutex
	tailorCalls  int
	rewriteCalls int
	prompts      []string
	tailorErr    error
	rewriteErr   error
	changes      []string
}

func (f *fakeRewriter) Tailor(_ context.Context, base *types.Resume, _ *types.Job, _ llm.ModelConfig) (*types.RewriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tailorCalls++
	if f.tailorErr != nil {
		return nil, f.tailorErr
	}
	content := base.Content
	content.Summary = "Tailored " + content.Summary
	return &types.RewriteResult{Content: content, Changes: []string{"Tailored summary"}}, nil
}

func (f *fakeRewriter) Rewrite(_ context.Context, instructions string, _ llm.ModelConfig) (*types.RewriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rewriteCalls++
	f.prompts = append(f.prompts, instructions)
	if f.rewriteErr != nil {
		return nil, f.rewriteErr
	}
	changes := f.changes
	if changes == nil {
		changes = []string{"Rewrite " + string(rune('0'+f.rewriteCalls))}
	}
	return &types.RewriteResult{
		Content: types.ResumeContent{FirstName: "Ada", Summary: "Rewritten"},
		Changes: changes,
	}, nil
}

type fakeRecorder struct {
	mu         sync.Mutex
	started    *types.OptimizationRun
	iterations []types.OptimizationIterationRecord
	outcome    *types.RunOutcome
	startErr   error
	recordErr  error
}

func (f *fakeRecorder) StartOptimizationRun(_ context.Context, run *types.OptimizationRun) (*types.OptimizationRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	cp := *run
	cp.ID = uuid.New()
	f.started = &cp
	return &cp, nil
}

func (f *fakeRecorder) RecordIteration(_ context.Context, _ uuid.UUID, rec *types.OptimizationIterationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.iterations = append(f.iterations, *rec)
	return nil
}

func (f *fakeRecorder) FinishOptimizationRun(_ context.Context, _ uuid.UUID, outcome *types.RunOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcome = outcome
	return nil
}

type runObservation struct {
	outcome    string
	iterations int
	finalScore int
}

type fakeMetrics struct {
	mu    sync.Mutex
	runs  []runObservation
	calls map[string]int
	fails map[string]int
}

func (m *fakeMetrics) ObserveRun(outcome string, iterations, finalScore int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, runObservation{outcome, iterations, finalScore})
}

func (m *fakeMetrics) ObserveCall(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
		m.fails = map[string]int{}
	}
	m.calls[operation]++
	if err != nil {
		m.fails[operation]++
	}
}

// scoreWith builds a score whose sub-scores all equal sub
func scoreWith(overall, sub int) *types.ScoreResult {
	s := types.SubScore{Score: sub, Reason: "reason"}
	return &types.ScoreResult{
		OverallScore: types.SubScore{Score: overall, Reason: "overall"},
		Completeness: types.Completeness{ContactInformation: s, DetailLevel: s},
		ImpactScore:  types.ImpactScore{ActiveVoice: s, QuantifiedAchievements: s},
		RoleMatch:    types.RoleMatch{SkillsRelevance: s, ExperienceAlignment: s, EducationFit: s},
		JobAlignment: &types.JobAlignment{
			KeywordMatch:      types.KeywordMatch{SubScore: s},
			RequirementsMatch: types.RequirementsMatch{SubScore: s},
			CompanyFit:        s,
		},
	}
}
