// Package repository stores fetched recipe payloads in a single JSON
// document on disk, keyed by their upstream object id.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	internaljson "github.com/ephes/kptncook/internal/json"
)

const (
	storeName = "kptncook.json"

	// dateLayout is the calendar-day format of the stored sync date.
	dateLayout = "2006-01-02"
)

// Record is one stored recipe: the day it was fetched plus the raw upstream
// payload as delivered.
type Record struct {
	Date Date            `json:"date"`
	Data json.RawMessage `json:"data"`
}

// ID returns the upstream object id of the stored payload, or "" for a
// payload without one.
func (r Record) ID() string {
	var envelope struct {
		ID struct {
			OID string `json:"$oid"`
		} `json:"_id"`
	}
	if err := json.Unmarshal(r.Data, &envelope); err != nil {
		return ""
	}
	return envelope.ID.OID
}

// Date is a calendar day serialized as "2006-01-02".
type Date struct {
	time.Time
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding date: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	*d = Date{t}
	return nil
}

// Repository persists records in <baseDir>/kptncook.json. Every whole-file
// rewrite first copies the current document to a .backup sibling.
type Repository struct {
	baseDir string
}

func New(baseDir string) *Repository {
	return &Repository{baseDir: baseDir}
}

// Path returns the location of the JSON document.
func (r *Repository) Path() string {
	return filepath.Join(r.baseDir, storeName)
}

// BackupPath returns the location of the pre-rewrite copy.
func (r *Repository) BackupPath() string {
	return r.Path() + ".backup"
}

// List returns all stored records in insertion order. A missing document is
// an empty repository, not an error.
func (r *Repository) List() ([]Record, error) {
	f, err := os.Open(r.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening recipe store: %w", err)
	}
	defer f.Close()

	var records []Record
	if err := internaljson.DecodeJSON(f, &records); err != nil {
		return nil, fmt.Errorf("decoding recipe store: %w", err)
	}
	return records, nil
}

// ListByID indexes the stored records by upstream object id.
func (r *Repository) ListByID() (map[string]Record, error) {
	records, err := r.List()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Record, len(records))
	for _, rec := range records {
		byID[rec.ID()] = rec
	}
	return byID, nil
}

// NeedsSync reports whether no stored record carries the given date.
func (r *Repository) NeedsSync(date Date) (bool, error) {
	records, err := r.List()
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.Date.Equal(date) {
			return false, nil
		}
	}
	return true, nil
}

// Add upserts one record by its payload id.
func (r *Repository) Add(rec Record) error {
	return r.AddList([]Record{rec})
}

// AddList upserts records by payload id: existing ids are replaced in
// place, new ones are appended in argument order.
func (r *Repository) AddList(recs []Record) error {
	records, err := r.List()
	if err != nil {
		return err
	}
	index := make(map[string]int, len(records))
	for i, rec := range records {
		index[rec.ID()] = i
	}
	for _, rec := range recs {
		if i, ok := index[rec.ID()]; ok {
			records[i] = rec
			continue
		}
		index[rec.ID()] = len(records)
		records = append(records, rec)
	}
	return r.write(records)
}

// DeleteByIDs removes every record whose id is listed. It returns the ids
// that were dropped and the ids no stored record carried, both in request
// order.
func (r *Repository) DeleteByIDs(ids []string) (deleted, missing []string, err error) {
	records, err := r.List()
	if err != nil {
		return nil, nil, err
	}
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.ID()] = true
	}

	drop := make(map[string]bool, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if present[id] {
			deleted = append(deleted, id)
			drop[id] = true
		} else {
			missing = append(missing, id)
		}
	}
	if len(deleted) == 0 {
		return deleted, missing, nil
	}

	kept := records[:0]
	for _, rec := range records {
		if !drop[rec.ID()] {
			kept = append(kept, rec)
		}
	}
	if err := r.write(kept); err != nil {
		return nil, nil, err
	}
	return deleted, missing, nil
}

func (r *Repository) write(records []Record) error {
	if err := r.createBackup(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding recipe store: %w", err)
	}
	if err := os.WriteFile(r.Path(), data, 0o644); err != nil {
		return fmt.Errorf("writing recipe store: %w", err)
	}
	return nil
}

// createBackup copies the current document to its .backup sibling. A
// missing document needs no backup.
func (r *Repository) createBackup() error {
	src, err := os.Open(r.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening recipe store for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(r.BackupPath())
	if err != nil {
		return fmt.Errorf("creating store backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying store backup: %w", err)
	}
	return nil
}
