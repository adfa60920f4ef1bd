package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/logging"
)

// IndexKey holds the ordered list of archived record ids.
const IndexKey = "chart_ids"

// ErrNotFound is returned when no record matches an id.
var ErrNotFound = errors.New("session record not found")

// History archives finished records in a kv.Store. Each record lives under
// its own id; IndexKey lists them oldest first.
type History struct {
	store kv.Store
}

// NewHistory returns a History over store.
func NewHistory(store kv.Store) *History {
	return &History{store: store}
}

// Add stores r and appends its id to the index. Records with an empty
// timeline are not archived.
func (h *History) Add(r *Record) error {
	if r.Timeline == nil || r.Timeline.IsEmpty() {
		logging.Debug().Str("id", r.ID).Msg("skipping empty session record")
		return nil
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid session record: %w", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := h.store.Set(r.ID, data); err != nil {
		return fmt.Errorf("failed to persist session record: %w", err)
	}

	ids, err := h.IDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == r.ID {
			return nil
		}
	}
	return h.writeIndex(append(ids, r.ID))
}

// IDs returns the archived ids oldest first. A malformed index is treated
// as empty.
func (h *History) IDs() ([]string, error) {
	raw, ok, err := h.store.Get(IndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read history index: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		logging.Warn().Err(err).Msg("ignoring malformed history index")
		return nil, nil
	}
	return ids, nil
}

// Get loads one record by exact id.
func (h *History) Get(id string) (*Record, error) {
	raw, ok, err := h.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r, err := decodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session record %s: %w", id, err)
	}
	return r, nil
}

// Find resolves an id or unique id prefix.
func (h *History) Find(prefix string) (*Record, error) {
	ids, err := h.IDs()
	if err != nil {
		return nil, err
	}
	var match string
	for _, id := range ids {
		if id == prefix {
			return h.Get(id)
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return nil, fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = id
		}
	}
	if match == "" || prefix == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return h.Get(match)
}

// List hydrates every indexed record oldest first. Records that are
// missing or malformed are skipped with a warning.
func (h *History) List() ([]*Record, error) {
	ids, err := h.IDs()
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := h.Get(id)
		if err != nil {
			if errors.Is(err, kv.ErrClosed) {
				return nil, err
			}
			logging.Warn().Err(err).Str("id", id).Msg("dropping unreadable session record")
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Delete removes a record and its index entry.
func (h *History) Delete(id string) error {
	ids, err := h.IDs()
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(ids))
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := h.writeIndex(kept); err != nil {
		return err
	}
	if err := h.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

func (h *History) writeIndex(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode history index: %w", err)
	}
	if err := h.store.Set(IndexKey, data); err != nil {
		return fmt.Errorf("failed to persist history index: %w", err)
	}
	return nil
}

func decodeRecord(raw []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
