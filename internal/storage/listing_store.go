package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"homeseeker/go-backend/internal/securestore"
	"homeseeker/go-backend/pkg/models"
)

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrShareCodeTaken   = errors.New("share code already in use")
	ErrListingConflict  = errors.New("listing already posted for this address")
	errShareCodeEmptied = errors.New("share code generation produced empty code")
)

const shareCodeBytes = 8

// ListingStore keeps posted rental listings keyed by their share code. Listing
// text is daemon-local convenience data; the lease contract stays the source
// of truth for terms and tenancy.
type ListingStore struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
	path     string
	secret   string
}

func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[string]models.Listing)}
}

func NewPersistentListingStore(path string) (*ListingStore, error) {
	return NewEncryptedPersistentListingStore(path, "")
}

func NewEncryptedPersistentListingStore(path, passphrase string) (*ListingStore, error) {
	s := &ListingStore{
		listings: make(map[string]models.Listing),
		path:     path,
		secret:   strings.TrimSpace(passphrase),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewShareCode returns a short base58 code for sharing a listing out of band.
func NewShareCode() (string, error) {
	buf := make([]byte, shareCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := base58.Encode(buf)
	if code == "" {
		return "", errShareCodeEmptied
	}
	return code, nil
}

func (s *ListingStore) Add(listing models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listings {
		if strings.EqualFold(existing.HouseAddr, listing.HouseAddr) {
			return models.Listing{}, ErrListingConflict
		}
	}
	if listing.ShareCode == "" {
		code, err := NewShareCode()
		if err != nil {
			return models.Listing{}, err
		}
		listing.ShareCode = code
	} else if _, taken := s.listings[listing.ShareCode]; taken {
		return models.Listing{}, ErrShareCodeTaken
	}
	if listing.PostedAt.IsZero() {
		listing.PostedAt = time.Now().UTC()
	}
	next := s.cloneLocked()
	next[listing.ShareCode] = listing
	if err := s.persistLocked(next); err != nil {
		return models.Listing{}, err
	}
	s.listings = next
	return listing, nil
}

func (s *ListingStore) Get(shareCode string) (models.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listing, ok := s.listings[strings.TrimSpace(shareCode)]
	return listing, ok
}

func (s *ListingStore) List() []models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Listing, 0, len(s.listings))
	for _, listing := range s.listings {
		out = append(out, listing)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].PostedAt.After(out[j].PostedAt)
		}
		return out[i].ShareCode < out[j].ShareCode
	})
	return out
}

// BindToken records the registry token once the listed property is minted.
func (s *ListingStore) BindToken(shareCode string, tokenID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[strings.TrimSpace(shareCode)]
	if !ok {
		return ErrListingNotFound
	}
	listing.TokenID = tokenID
	next := s.cloneLocked()
	next[listing.ShareCode] = listing
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.listings = next
	return nil
}

func (s *ListingStore) cloneLocked() map[string]models.Listing {
	next := make(map[string]models.Listing, len(s.listings))
	for code, listing := range s.listings {
		next[code] = listing
	}
	return next
}

type listingSnapshot struct {
	Listings map[string]models.Listing `json:"listings"`
}

func (s *ListingStore) load() error {
	if s.path == "" {
		return nil
	}
	var snapshot listingSnapshot
	if s.secret != "" {
		if err := securestore.ReadEncryptedJSON(s.path, s.secret, &snapshot); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
	} else {
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
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return err
		}
	}
	if snapshot.Listings != nil {
		s.listings = snapshot.Listings
	}
	return nil
}

func (s *ListingStore) persistLocked(listings map[string]models.Listing) error {
	if s.path == "" {
		return nil
	}
	snapshot := listingSnapshot{Listings: listings}
	if s.secret != "" {
		return securestore.WriteEncryptedJSON(s.path, s.secret, snapshot)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
