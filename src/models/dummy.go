package models

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedModel replays a fixed sequence of completions and records every
// request it sees. It backs deterministic tests and offline demos.
type ScriptedModel struct {
	mu       sync.Mutex
	script   []Completion
	errs     []error
	next     int
	Requests []Request
}

func NewScriptedModel(script ...Completion) *ScriptedModel {
	return &ScriptedModel{script: script, errs: make([]error, len(script))}
}

// FailAt makes the i-th call return err instead of its scripted completion.
func (s *ScriptedModel) FailAt(i int, err error) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.errs) <= i {
		s.errs = append(s.errs, nil)
		s.script = append(s.script, Completion{})
	}
	s.errs[i] = err
	return s
}

func (s *ScriptedModel) Name() string { return "scripted" }

func (s *ScriptedModel) Chat(_ context.Context, req Request) (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if s.next >= len(s.script) {
		return Completion{}, fmt.Errorf("scripted model exhausted after %d calls", s.next)
	}
	i := s.next
	s.next++
	if s.errs[i] != nil {
		return Completion{}, s.errs[i]
	}
	return s.script[i], nil
}

// Calls reports how many times Chat was invoked.
func (s *ScriptedModel) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
