package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"homeseeker/go-backend/pkg/models"
)

// LeaseStateStore caches per-viewer lease projections. It is a cache of
// last-fetched chain truth: Put overwrites the whole snapshot, and nothing in
// here is ever treated as authoritative.
type LeaseStateStore struct {
	mu        sync.RWMutex
	snapshots map[string]map[string]models.LeaseSnapshot
	path      string
}

func NewLeaseStateStore() *LeaseStateStore {
	return &LeaseStateStore{snapshots: make(map[string]map[string]models.LeaseSnapshot)}
}

func NewPersistentLeaseStateStore(path string) (*LeaseStateStore, error) {
	s := &LeaseStateStore{
		snapshots: make(map[string]map[string]models.LeaseSnapshot),
		path:      path,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func snapshotKey(houseAddr string) string {
	return strings.ToLower(strings.TrimSpace(houseAddr))
}

func (s *LeaseStateStore) Get(viewer, houseAddr string) (models.LeaseSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byHouse, ok := s.snapshots[strings.ToLower(viewer)]
	if !ok {
		return models.LeaseSnapshot{}, false
	}
	snap, ok := byHouse[snapshotKey(houseAddr)]
	return snap, ok
}

func (s *LeaseStateStore) Put(viewer string, snapshot models.LeaseSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cloneLocked()
	viewer = strings.ToLower(viewer)
	byHouse, ok := next[viewer]
	if !ok {
		byHouse = make(map[string]models.LeaseSnapshot)
		next[viewer] = byHouse
	}
	byHouse[snapshotKey(snapshot.HouseAddr)] = snapshot
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.snapshots = next
	return nil
}

func (s *LeaseStateStore) List(viewer string) []models.LeaseSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byHouse := s.snapshots[strings.ToLower(viewer)]
	out := make([]models.LeaseSnapshot, 0, len(byHouse))
	for _, snap := range byHouse {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].HouseAddr < out[j].HouseAddr
	})
	return out
}

func (s *LeaseStateStore) Delete(viewer, houseAddr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cloneLocked()
	if byHouse, ok := next[strings.ToLower(viewer)]; ok {
		delete(byHouse, snapshotKey(houseAddr))
	}
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.snapshots = next
	return nil
}

func (s *LeaseStateStore) cloneLocked() map[string]map[string]models.LeaseSnapshot {
	next := make(map[string]map[string]models.LeaseSnapshot, len(s.snapshots))
	for viewer, byHouse := range s.snapshots {
		inner := make(map[string]models.LeaseSnapshot, len(byHouse))
		for k, v := range byHouse {
			inner[k] = v
		}
		next[viewer] = inner
	}
	return next
}

func (s *LeaseStateStore) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var snapshot struct {
		Snapshots map[string]map[string]models.LeaseSnapshot `json:"snapshots"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	if snapshot.Snapshots != nil {
		s.snapshots = snapshot.Snapshots
	}
	return nil
}

func (s *LeaseStateStore) persistLocked(snapshots map[string]map[string]models.LeaseSnapshot) error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	payload := struct {
		Snapshots map[string]map[string]models.LeaseSnapshot `json:"snapshots"`
	}{Snapshots: snapshots}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
