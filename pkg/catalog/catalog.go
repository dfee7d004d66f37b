// Package catalog records conversion outcomes in an embedded pebble database
// so past conversions can be listed and looked up by ID.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/rawbin/pkg/convert"
)

// ErrNotFound is returned for unknown or malformed entry IDs.
var ErrNotFound = errors.New("catalog entry not found")

// Entry is one recorded conversion outcome.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Input     string    `json:"input"`
	Output    string    `json:"output,omitempty"`
	Status    string    `json:"status"`
	Kind      string    `json:"kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Elapsed   float64   `json:"elapsed_seconds"`

	SampleRate      uint16    `json:"sample_rate,omitempty"`
	Firmware        string    `json:"firmware,omitempty"`
	SerialID        string    `json:"serial_id,omitempty"`
	Start           time.Time `json:"start,omitempty"`
	Stop            time.Time `json:"stop,omitempty"`
	DurationSeconds uint32    `json:"duration_seconds,omitempty"`
	Expected        uint64    `json:"expected_records,omitempty"`
	Actual          uint64    `json:"actual_records,omitempty"`
	Final           uint64    `json:"final_records,omitempty"`
	Truncated       bool      `json:"truncated,omitempty"`
	PayloadBytes    uint64    `json:"payload_bytes,omitempty"`
}

// EntryFromOutcome converts a conversion outcome into a catalog entry.
func EntryFromOutcome(o convert.Outcome) Entry {
	e := Entry{
		Input:   o.Input,
		Output:  o.Output,
		Status:  string(o.Status),
		Reason:  o.Reason,
		Elapsed: o.Elapsed.Seconds(),
	}
	if o.Err != nil {
		e.Kind = convert.KindOf(o.Err).String()
		e.Error = o.Err.Error()
	}
	if r := o.Result; r != nil && r.Header != nil {
		e.SampleRate = r.Header.SampleRate
		e.Firmware = r.Header.Firmware
		e.SerialID = r.Header.SerialID
		e.Start = r.Header.Start
		e.Stop = r.Header.Stop
		e.DurationSeconds = r.Header.DurationSeconds
		e.Expected = r.Reconcile.Expected
		e.Actual = r.Reconcile.Actual
		e.Final = r.Reconcile.Final
		e.Truncated = r.Reconcile.Corrected
		e.PayloadBytes = r.Header.PayloadSize
		if r.Warning != nil {
			e.Kind = convert.KindOf(r.Warning).String()
		}
	}
	return e
}

// Catalog stores entries as JSON documents.
type Catalog struct {
	storage *DefaultStorage
	logger  *log.Logger
	now     func() time.Time
}

// Open opens or creates the catalog in dir. A nil logger discards output.
func Open(dir string, logger *log.Logger) (*Catalog, error) {
	storage, err := NewDefaultStorage(dir)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", dir, err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Catalog{storage: storage, logger: logger, now: time.Now}, nil
}

// Put stores e under a new ID and returns it. e.ID and e.CreatedAt are set.
func (c *Catalog) Put(e *Entry) (string, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now().UTC()
	}

	// The ID is assigned by the storage; store without it and fill it in on read.
	e.ID = ""
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal catalog entry: %w", err)
	}

	id, err := c.storage.Create(data)
	if err != nil {
		return "", fmt.Errorf("failed to store catalog entry: %w", err)
	}
	e.ID = id.String()
	return e.ID, nil
}

// Get returns the entry with the given ID.
func (c *Catalog) Get(id string) (*Entry, error) {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	data, err := c.storage.Read(&kid)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	return decode(kid, data)
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (c *Catalog) List(limit int) ([]Entry, error) {
	entries := []Entry{}
	var decodeErr error

	err := c.storage.Scan(func(id ksuid.KSUID, data []byte) bool {
		e, err := decode(id, data)
		if err != nil {
			decodeErr = err
			return false
		}
		entries = append(entries, *e)
		return limit <= 0 || len(entries) < limit
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return entries, nil
}

// Delete removes the entry with the given ID.
func (c *Catalog) Delete(id string) error {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.storage.Delete(&kid)
}

// ObserveConversion records o. Storage failures are logged, never returned,
// so a broken catalog cannot fail a conversion.
func (c *Catalog) ObserveConversion(o convert.Outcome) {
	e := EntryFromOutcome(o)
	if _, err := c.Put(&e); err != nil {
		c.logger.Printf("catalog: %v", err)
	}
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.storage.Close()
}

func decode(id ksuid.KSUID, data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode catalog entry %s: %w", id, err)
	}
	e.ID = id.String()
	return &e, nil
}
