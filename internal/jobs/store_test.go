package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
)

type gatedRunner struct {
	release chan struct{}
	started chan string
	err     error
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{release: make(chan struct{}), started: make(chan string, 8)}
}

func (g *gatedRunner) Run(_ context.Context, req orchestrator.RunRequest) (*orchestrator.RunResult, error) {
	g.started <- req.ID
	<-g.release
	if g.err != nil {
		return nil, g.err
	}
	return &orchestrator.RunResult{
		ID:     req.ID,
		Output: &models.FinalOutput{UserRequest: req.Input, QualityScore: 0.9},
	}, nil
}

type forgetRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (f *forgetRecorder) Forget(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

func (f *forgetRecorder) forgotten() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func TestStoreLifecycle(t *testing.T) {
	runner := newGatedRunner()
	store := NewStore(runner, nil)

	job := store.Submit(context.Background(), orchestrator.RunRequest{Input: "q", MaxRetries: 1})
	if job.Status != models.StatusQueued || job.ID == "" || job.MaxRetries != 1 {
		t.Fatalf("submitted job = %+v", job)
	}
	if id := <-runner.started; id != job.ID {
		t.Errorf("run ID = %q, want job ID %q", id, job.ID)
	}
	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusRunning {
		t.Errorf("status while running = %s", got.Status)
	}

	close(runner.release)
	store.Wait()

	got, err = store.Get(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusCompleted || got.Result == nil || got.Result.UserRequest != "q" {
		t.Errorf("completed job = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	// Snapshots are detached from the stored job.
	got.Result.UserRequest = "mutated"
	again, _ := store.Get(job.ID)
	if again.Result.UserRequest != "q" {
		t.Error("Get returned shared result")
	}
}

func TestStoreFailure(t *testing.T) {
	runner := newGatedRunner()
	runner.err = errors.New("orchestrator node: 401 unauthorized")
	close(runner.release)
	store := NewStore(runner, nil)

	job := store.Submit(context.Background(), orchestrator.RunRequest{Input: "q"})
	store.Wait()

	got, err := store.Get(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusFailed || got.Error != runner.err.Error() || got.Result != nil {
		t.Errorf("failed job = %+v", got)
	}
}

func TestStoreListAndDelete(t *testing.T) {
	runner := newGatedRunner()
	close(runner.release)
	events := &forgetRecorder{}
	store := NewStore(runner, events)

	a := store.Submit(context.Background(), orchestrator.RunRequest{Input: "a"})
	b := store.Submit(context.Background(), orchestrator.RunRequest{Input: "b"})
	store.Wait()

	if n := len(store.List()); n != 2 {
		t.Fatalf("len(List()) = %d, want 2", n)
	}
	if err := store.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: err = %v", err)
	}
	if err := store.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
	list := store.List()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("List() = %+v", list)
	}
	if diff := cmp.Diff([]string{a.ID}, events.forgotten()); diff != "" {
		t.Errorf("forgotten (-want +got):\n%s", diff)
	}
}

func TestStoreDeleteWhileRunning(t *testing.T) {
	runner := newGatedRunner()
	events := &forgetRecorder{}
	store := NewStore(runner, events)
	job := store.Submit(context.Background(), orchestrator.RunRequest{Input: "q"})
	<-runner.started

	if err := store.Delete(job.ID); err != nil {
		t.Fatal(err)
	}
	close(runner.release)
	store.Wait()

	if _, err := store.Get(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted job reappeared: err = %v", err)
	}
	// Once by Delete, again when the run finishes and finds the job gone.
	if diff := cmp.Diff([]string{job.ID, job.ID}, events.forgotten()); diff != "" {
		t.Errorf("forgotten (-want +got):\n%s", diff)
	}
}
