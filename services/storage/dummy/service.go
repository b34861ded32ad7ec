package dummystorage

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

var ErrFileNotFound = errors.New("file not found")

// Service keeps uploaded files in memory; used in demo mode and tests.
type Service struct {
	mutex sync.RWMutex
	files map[string][]byte
}

var _ core.FileStorage = (*Service)(nil)

func NewService() *Service {
	return &Service{files: make(map[string][]byte)}
}

func (svc *Service) Upload(_ context.Context, path string, data []byte) error {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	svc.files[path] = cp
	return nil
}

func (svc *Service) Download(_ context.Context, path string) ([]byte, error) {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()

	data, ok := svc.files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
