package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordStep appends its name to a shared log when executed.
type recordStep struct {
	name string
	log  *[]string
	mu   *sync.Mutex
	err  error
}

func (s *recordStep) Name() string { return s.name }

func (s *recordStep) Do(_ context.Context, _ *Job) error {
	s.mu.Lock()
	*s.log = append(*s.log, s.name)
	s.mu.Unlock()
	return s.err
}

func newRecorder() (*[]string, *sync.Mutex) {
	log := make([]string, 0)
	return &log, &sync.Mutex{}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		log, mu := newRecorder()
		p := New()
		p.AddSteps(
			&recordStep{name: "first", log: log, mu: mu},
			&recordStep{name: "second", log: log, mu: mu},
			&recordStep{name: "third", log: log, mu: mu},
		)

		if err := p.Execute(context.Background(), NewJob("https://example.com")); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []string{"first", "second", "third"}
		if len(*log) != len(want) {
			t.Fatalf("executed steps = %v, want %v", *log, want)
		}
		for i := range want {
			if (*log)[i] != want[i] {
				t.Errorf("executed steps = %v, want %v", *log, want)
			}
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		log, mu := newRecorder()
		stepErr := errors.New("boom")
		p := New()
		p.AddSteps(
			&recordStep{name: "first", log: log, mu: mu, err: stepErr},
			&recordStep{name: "second", log: log, mu: mu},
		)

		err := p.Execute(context.Background(), NewJob("https://example.com"))
		if !errors.Is(err, stepErr) {
			t.Fatalf("Execute() error = %v, want %v", err, stepErr)
		}
		if len(*log) != 1 {
			t.Errorf("executed steps = %v, want only the failing step", *log)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		log, mu := newRecorder()
		stepErr := errors.New("boom")
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&recordStep{name: "first", log: log, mu: mu, err: stepErr},
			&recordStep{name: "second", log: log, mu: mu},
		)

		job := NewJob("https://example.com")
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() error = %v, want nil", err)
		}
		if len(*log) != 2 {
			t.Errorf("executed steps = %v, want both steps", *log)
		}
		if !errors.Is(job.Err, stepErr) {
			t.Errorf("job.Err = %v, want %v", job.Err, stepErr)
		}
	})

	t.Run("respects cancellation between steps", func(t *testing.T) {
		t.Parallel()

		log, mu := newRecorder()
		p := New()
		p.AddStep(&recordStep{name: "never", log: log, mu: mu})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := p.Execute(ctx, NewJob("https://example.com")); !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if len(*log) != 0 {
			t.Errorf("executed steps = %v, want none", *log)
		}
	})
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	log, mu := newRecorder()
	p := New()
	p.AddSteps(
		&recordStep{name: "crawl", log: log, mu: mu},
		&recordStep{name: "document", log: log, mu: mu},
	)

	if got := p.StepCount(); got != 2 {
		t.Errorf("StepCount() = %d, want 2", got)
	}
	names := p.StepNames()
	if len(names) != 2 || names[0] != "crawl" || names[1] != "document" {
		t.Errorf("StepNames() = %v, want [crawl document]", names)
	}
}
