package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/fetch"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// memStore is an in-memory Store with the same miss semantics as db.DB
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*db.User
	resumes map[uuid.UUID]*types.Resume
	jobs    map[uuid.UUID]*types.Job
	runs    map[uuid.UUID]*types.OptimizationRun
	pingErr error
	// failPassword makes UpdatePassword fail to exercise registration cleanup
	failPassword bool
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[uuid.UUID]*db.User{},
		resumes: map[uuid.UUID]*types.Resume{},
		jobs:    map[uuid.UUID]*types.Job{},
		runs:    map[uuid.UUID]*types.OptimizationRun{},
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateUser(_ context.Context, name, email, phone string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	u := &db.User{ID: uuid.New(), Name: name, Email: email, Phone: phone, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPassword {
		return errors.New("connection reset")
	}
	u, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = hash
	u.PasswordSet = true
	return nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memStore) CreateResume(_ context.Context, r *types.Resume) (*types.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	c.ID = uuid.New()
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.resumes[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) GetResume(_ context.Context, userID, id uuid.UUID) (*types.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resumes[id]; ok && r.UserID == userID {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) ListResumes(_ context.Context, userID uuid.UUID, filter db.ResumeFilter) ([]types.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Resume{}
	for _, r := range m.resumes {
		if r.UserID != userID {
			continue
		}
		if filter.Base != nil && r.IsBaseResume != *filter.Base {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateResume(_ context.Context, r *types.Resume) (*types.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.resumes[r.ID]
	if !ok || stored.UserID != r.UserID {
		return nil, nil
	}
	if stored.Version != r.Version {
		return nil, types.ErrVersionConflict
	}
	stored.Name = r.Name
	stored.TargetRole = r.TargetRole
	stored.Content = r.Content
	stored.Version++
	stored.UpdatedAt = time.Now()
	c := *stored
	return &c, nil
}

func (m *memStore) DeleteResume(_ context.Context, userID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resumes[id]; ok && r.UserID == userID {
		delete(m.resumes, id)
		return true, nil
	}
	return false, nil
}

func (m *memStore) CreateJob(_ context.Context, j *types.Job) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *j
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.jobs[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) GetJob(_ context.Context, userID, id uuid.UUID) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok && j.UserID == userID {
		c := *j
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) ListJobs(_ context.Context, userID uuid.UUID) ([]types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Job{}
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *memStore) UpdateJob(_ context.Context, j *types.Job) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.jobs[j.ID]
	if !ok || stored.UserID != j.UserID {
		return nil, nil
	}
	c := *j
	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = time.Now()
	m.jobs[j.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) DeleteJob(_ context.Context, userID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok && j.UserID == userID {
		delete(m.jobs, id)
		return true, nil
	}
	return false, nil
}

func (m *memStore) GetOptimizationRun(_ context.Context, userID, runID uuid.UUID) (*types.OptimizationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok && r.UserID == userID {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) ListOptimizationRuns(_ context.Context, userID uuid.UUID, limit int) ([]types.OptimizationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.OptimizationRun{}
	for _, r := range m.runs {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeOptimizer replays events and returns a canned outcome
type fakeOptimizer struct {
	events []optimize.Event
	result *types.OptimizationResult
	err    error

	gotUser uuid.UUID
	gotReq  *types.OptimizationRequest
}

func (f *fakeOptimizer) RunWithProgress(_ context.Context, userID uuid.UUID, req *types.OptimizationRequest, progress optimize.ProgressFunc) (*types.OptimizationResult, error) {
	f.gotUser = userID
	f.gotReq = req
	if progress != nil {
		for _, e := range f.events {
			progress(e)
		}
	}
	return f.result, f.err
}

// fakeScorer returns a fixed score and records the model config it saw
type fakeScorer struct {
	result *types.ScoreResult
	err    error
	gotMC  llm.ModelConfig
}

func (f *fakeScorer) Score(_ context.Context, _ *types.Resume, _ *types.Job, mc llm.ModelConfig) (*types.ScoreResult, error) {
	f.gotMC = mc
	return f.result, f.err
}

// fakePostings serves one posting or fails
type fakePostings struct {
	posting *fetch.Posting
	err     error
}

func (f *fakePostings) Posting(_ context.Context, url string) (*fetch.Posting, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.posting
	p.URL = url
	return &p, nil
}

// stubClient answers every call with the same text
type stubClient struct {
	response string
	closed   bool
}

func (c *stubClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return c.response, nil
}

func (c *stubClient) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	return c.response, nil
}

func (c *stubClient) GetModel(llm.ModelTier) string { return "stub" }

func (c *stubClient) Close() error {
	c.closed = true
	return nil
}
