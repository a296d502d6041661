package manifeststore

import (
	"encoding/json"
	"os"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/core/domain"
)

// RemoteRef links a local environment to its hub counterpart.
type RemoteRef struct {
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	Generation int    `json:"generation"`
}

// LoadRemoteRef reads the remote link of the environment at dir, or nil if
// the environment was never pushed or pulled.
func (s *Store) LoadRemoteRef(dir string) (*RemoteRef, error) {
	data, err := os.ReadFile(domain.RemoteRefPath(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read remote link")
	}
	var ref RemoteRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, zerr.Wrap(err, "failed to parse remote link")
	}
	return &ref, nil
}

// SaveRemoteRef atomically records the remote link of the environment.
func (s *Store) SaveRemoteRef(dir string, ref RemoteRef) error {
	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode remote link")
	}
	return atomicWrite(domain.RemoteRefPath(dir), append(data, '\n'), domain.FilePerm)
}
