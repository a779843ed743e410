// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"storesmith/internal/extract"
	"storesmith/internal/generator"
	"storesmith/internal/models"
)

// mockRunner is a test double for the generation pipeline.
type mockRunner struct {
	result *extract.Result
	err    error
	panics bool
	calls  int
	mu     sync.Mutex
}

func (m *mockRunner) Generate(ctx context.Context, req generator.Request) (*extract.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.panics {
		panic("boom")
	}
	return m.result, m.err
}

// recordingStore records finalization calls.
type recordingStore struct {
	mu          sync.Mutex
	completed   []uuid.UUID
	errored     []uuid.UUID
	lastHTML    string
	lastMD      models.Metadata
	lastMessage string
	markErr     error
}

func (s *recordingStore) MarkCompleted(id uuid.UUID, html string, md models.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, id)
	s.lastHTML = html
	s.lastMD = md
	return s.markErr
}

func (s *recordingStore) MarkError(id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errored = append(s.errored, id)
	s.lastMessage = message
	return s.markErr
}

func TestDispatchCompletes(t *testing.T) {
	runner := &mockRunner{result: &extract.Result{
		HTML:     "<html>done</html>",
		Metadata: models.Metadata{Explanation: "e"},
	}}
	store := &recordingStore{}
	c := New(runner, store)

	id := uuid.New()
	c.Dispatch(id, generator.Request{ProductType: "soap", DesignStyle: "minimal"})
	c.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.completed) != 1 || store.completed[0] != id {
		t.Fatalf("completed: got %v, want [%s]", store.completed, id)
	}
	if len(store.errored) != 0 {
		t.Errorf("errored: got %v, want none", store.errored)
	}
	if store.lastHTML != "<html>done</html>" {
		t.Errorf("html: got %q", store.lastHTML)
	}
	if store.lastMD.Explanation != "e" {
		t.Errorf("metadata: got %+v", store.lastMD)
	}
}

func TestDispatchRecordsFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("generation failed after 3 attempts")}
	store := &recordingStore{}
	c := New(runner, store)

	id := uuid.New()
	c.Dispatch(id, generator.Request{ProductType: "soap", DesignStyle: "minimal"})
	c.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.errored) != 1 || store.errored[0] != id {
		t.Fatalf("errored: got %v, want [%s]", store.errored, id)
	}
	if len(store.completed) != 0 {
		t.Errorf("completed: got %v, want none", store.completed)
	}
	if store.lastMessage != "generation failed after 3 attempts" {
		t.Errorf("message: got %q", store.lastMessage)
	}
}

func TestDispatchSurvivesPanic(t *testing.T) {
	runner := &mockRunner{panics: true}
	store := &recordingStore{}
	c := New(runner, store)

	id := uuid.New()
	c.Dispatch(id, generator.Request{ProductType: "soap", DesignStyle: "minimal"})
	c.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.errored) != 1 {
		t.Fatalf("errored: got %v, want one record", store.errored)
	}
	if store.lastMessage != "internal error: boom" {
		t.Errorf("message: got %q", store.lastMessage)
	}
}

func TestWaitDrainsAllJobs(t *testing.T) {
	runner := &mockRunner{result: &extract.Result{HTML: "<html></html>"}}
	store := &recordingStore{}
	c := New(runner, store)

	const n = 8
	for range n {
		c.Dispatch(uuid.New(), generator.Request{ProductType: "p", DesignStyle: "s"})
	}
	c.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.completed) != n {
		t.Errorf("completed: got %d, want %d", len(store.completed), n)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.calls != n {
		t.Errorf("runner calls: got %d, want %d", runner.calls, n)
	}
}
