// Package jobs runs pipeline requests in the background and keeps their
// status in memory for the HTTP API.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
)

var ErrNotFound = errors.New("job not found")

// Runner executes one request. *orchestrator.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (*orchestrator.RunResult, error)
}

// Forgetter drops a run's recorded events. *orchestrator.Hub satisfies it.
type Forgetter interface {
	Forget(runID string)
}

// Store holds jobs in memory. Nothing survives a restart.
type Store struct {
	runner Runner
	events Forgetter
	now    func() time.Time

	mu   sync.RWMutex
	jobs map[string]*models.Job
	wg   sync.WaitGroup
}

func NewStore(runner Runner, events Forgetter) *Store {
	return &Store{runner: runner, events: events, now: time.Now, jobs: map[string]*models.Job{}}
}

// Submit records a queued job and starts it on its own goroutine. The job ID
// doubles as the run ID, so the run's events are keyed by it.
func (s *Store) Submit(ctx context.Context, req orchestrator.RunRequest) models.Job {
	now := s.now()
	job := &models.Job{
		ID:         uuid.NewString(),
		Query:      req.Input,
		MaxRetries: req.MaxRetries,
		Status:     models.StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	req.ID = job.ID

	s.mu.Lock()
	s.jobs[job.ID] = job
	snap := *job
	s.mu.Unlock()

	// Detach from the request's cancellation but keep its logger.
	runCtx := logging.NewContext(context.WithoutCancel(ctx), logging.FromContext(ctx))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(runCtx, req)
	}()
	return snap
}

func (s *Store) run(ctx context.Context, req orchestrator.RunRequest) {
	log := logging.FromContext(ctx).With("job_id", req.ID)
	if !s.update(req.ID, func(j *models.Job) { j.Status = models.StatusRunning }) {
		return
	}
	res, err := s.runner.Run(ctx, req)
	ok := s.update(req.ID, func(j *models.Job) {
		done := s.now()
		j.CompletedAt = &done
		if err != nil {
			j.Status = models.StatusFailed
			j.Error = err.Error()
			return
		}
		j.Status = models.StatusCompleted
		j.Result = res.Output
	})
	if !ok {
		// Events published after Delete would otherwise stay in the hub.
		if s.events != nil {
			s.events.Forget(req.ID)
		}
		log.Info("job deleted before completion")
		return
	}
	if err != nil {
		log.Error("job failed", "err", err)
		return
	}
	log.Info("job completed")
}

// update applies fn under the lock; false means the job was deleted.
func (s *Store) update(id string, fn func(*models.Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(j)
	j.UpdatedAt = s.now()
	return true
}

// Get returns a snapshot of the job that callers may keep and modify.
func (s *Store) Get(id string) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return snapshot(j), nil
}

// List returns snapshots of all jobs, newest first.
func (s *Store) List() []models.Job {
	s.mu.RLock()
	out := make([]models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, snapshot(j))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}

// Delete removes a job. A running job keeps running; its result is dropped.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if s.events != nil {
		s.events.Forget(id)
	}
	return nil
}

// Wait blocks until every submitted job has finished.
func (s *Store) Wait() { s.wg.Wait() }

func snapshot(j *models.Job) models.Job {
	out := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.Result != nil {
		var res models.FinalOutput
		if err := deepcopy.Copy(&res, *j.Result); err == nil {
			out.Result = &res
		}
	}
	return out
}
