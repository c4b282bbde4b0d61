package app

import (
	"sync"

	"github.com/example/refab/internal/core/queue"
)

// stageLocks serializes release cycles per (factory, stage). Cycles for
// different stages or different factories proceed in parallel.
type stageLocks struct {
	mu    sync.Mutex
	locks map[stageKey]*sync.Mutex
}

type stageKey struct {
	factoryID string
	stage     queue.Stage
}

func newStageLocks() *stageLocks {
	return &stageLocks{locks: make(map[stageKey]*sync.Mutex)}
}

// acquire locks the (factory, stage) pair and returns its unlock func.
func (s *stageLocks) acquire(factoryID string, stage queue.Stage) func() {
	key := stageKey{factoryID: factoryID, stage: stage}

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
