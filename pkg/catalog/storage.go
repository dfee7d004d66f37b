package catalog

import (
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// DefaultStorage keeps opaque records in pebble keyed by KSUID. IDs are
// handed out in increasing order, so key order is insertion order.
type DefaultStorage struct {
	db   *pebble.DB
	mu   sync.Mutex
	last ksuid.KSUID
}

func NewDefaultStorage(path string) (*DefaultStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	s := &DefaultStorage{db: db}

	// Resume after the newest existing key
	if err := s.Scan(func(id ksuid.KSUID, _ []byte) bool {
		s.last = id
		return false
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DefaultStorage) Create(data []byte) (*ksuid.KSUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, s.last) <= 0 {
		// Same second as the previous ID and a smaller random payload
		id = s.last.Next()
	}
	if err := s.db.Set(id.Bytes(), data, pebble.Sync); err != nil {
		return nil, err
	}
	s.last = id

	return &id, nil
}

func (s *DefaultStorage) Read(id *ksuid.KSUID) ([]byte, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// data is only valid until closer.Close
	return append([]byte(nil), data...), nil
}

func (s *DefaultStorage) Update(id *ksuid.KSUID, data []byte) error {
	return s.db.Set(id.Bytes(), data, pebble.Sync)
}

func (s *DefaultStorage) Delete(id *ksuid.KSUID) error {
	return s.db.Delete(id.Bytes(), pebble.Sync)
}

// Scan calls fn for records from newest to oldest until fn returns false.
func (s *DefaultStorage) Scan(fn func(id ksuid.KSUID, data []byte) bool) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}

	for valid := iter.Last(); valid; valid = iter.Prev() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			continue
		}
		if !fn(id, append([]byte(nil), iter.Value()...)) {
			break
		}
	}

	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return err
	}
	return iter.Close()
}

func (s *DefaultStorage) Close() error {
	return s.db.Close()
}
