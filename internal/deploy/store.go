package deploy

import (
	"context"
	"errors"
	"sync"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
)

// ErrDeploymentNotFound indicates the deployment id is unknown to the store.
var ErrDeploymentNotFound = errors.New("deploy: deployment not found")

// Store persists deployment records. The in-memory implementation is the
// default; a durable backing can be swapped in without touching the
// orchestrator.
type Store interface {
	Save(ctx context.Context, result *domain.DeploymentResult) error
	Get(ctx context.Context, id string) (*domain.DeploymentResult, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps deployment records for the lifetime of the process.
// Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	deployments map[string]*domain.DeploymentResult
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{deployments: make(map[string]*domain.DeploymentResult)}
}

// Save records result under its deployment id.
func (s *MemoryStore) Save(ctx context.Context, result *domain.DeploymentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[result.DeploymentID] = result
	return nil
}

// Get returns the record for id or ErrDeploymentNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.DeploymentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.deployments[id]
	if !ok {
		return nil, ErrDeploymentNotFound
	}
	return result, nil
}

// Delete removes the record for id or returns ErrDeploymentNotFound.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deployments[id]; !ok {
		return ErrDeploymentNotFound
	}
	delete(s.deployments, id)
	return nil
}
