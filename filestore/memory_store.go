package filestore

import (
	"io"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"
)

// MemoryFileStore keeps blobs in a map. Test stand-in for S3.
type MemoryFileStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{blobs: make(map[string][]byte)}
}

func (m *MemoryFileStore) Upload(key string, body io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("empty key, invalid")
	}
	data, err := ioutil.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()

	return m.GetUrlFromKey(key), nil
}

func (m *MemoryFileStore) GetUrlFromKey(key string) string {
	return "memory://" + key
}

func (m *MemoryFileStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// Get returns a stored blob, for assertions.
func (m *MemoryFileStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	return data, ok
}
