package refscache

import (
	"encoding/json"
	"fmt"

	"github.com/colonyops/pluggit/internal/core/refs"
)

// FormatVersion identifies the on-disk cache layout. Any document whose
// top-level version differs (or is absent) is treated as empty rather than
// migrated; auto-upgrading unvalidated data is a correctness risk.
const FormatVersion = 2

// Reserved keys inside the data section. Everything else is a plugin URL.
const (
	keyAllRefs      = "all_refs"
	keyUpdateStatus = "update_status"
	keyRefItems     = "ref_items"
)

// envelope is the top-level on-disk shape: {"version": N, "data": {...}}.
type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// tagEntry is a scheme-filtered, scheme-sorted tag list with its write time.
type tagEntry struct {
	Tags      []string `json:"tags"`
	Timestamp int64    `json:"timestamp"`
}

// allRefsEntry stores the full branch/tag listing for a URL. Individual
// refs stay raw until read so a single malformed record cannot poison the
// rest of the document.
type allRefsEntry struct {
	Refs      rawRefSet `json:"refs"`
	Timestamp int64     `json:"timestamp"`
}

type rawRefSet struct {
	Branches []json.RawMessage `json:"branches"`
	Tags     []json.RawMessage `json:"tags"`
}

// updateStatusEntry is a cached "has update" verdict for one plugin.
type updateStatusEntry struct {
	HasUpdate  bool   `json:"has_update"`
	CurrentRef string `json:"current_ref"`
	Timestamp  int64  `json:"timestamp"`
}

// urlEntry holds everything cached for one plugin URL: per-scheme tag
// lists plus the all_refs listing.
type urlEntry struct {
	Schemes map[string]tagEntry
	AllRefs *allRefsEntry
}

// MarshalJSON flattens scheme entries and the all_refs entry into one
// object, the wire shape being {<scheme>: {...}, "all_refs": {...}}.
func (e urlEntry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Schemes)+1)
	for scheme, entry := range e.Schemes {
		m[scheme] = entry
	}
	if e.AllRefs != nil {
		m[keyAllRefs] = *e.AllRefs
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flattened object back into scheme entries and
// the reserved all_refs key.
func (e *urlEntry) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Schemes = make(map[string]tagEntry)
	for key, raw := range m {
		if key == keyAllRefs {
			var entry allRefsEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("decode all_refs entry: %w", err)
			}
			e.AllRefs = &entry
			continue
		}
		var entry tagEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("decode tag entry for scheme %q: %w", key, err)
		}
		e.Schemes[key] = entry
	}
	return nil
}

// document is the in-memory mirror of the data section. URL entries live
// alongside the reserved update_status and ref_items sections.
type document struct {
	URLs         map[string]*urlEntry
	UpdateStatus map[string]updateStatusEntry
	// RefItems maps plugin UUID -> commit id -> serialized ref records.
	// Records stay raw so malformed entries are skipped on read and
	// countable by cleanup instead of failing the whole document.
	RefItems map[string]map[string][]json.RawMessage
}

func newDocument() *document {
	return &document{
		URLs:         make(map[string]*urlEntry),
		UpdateStatus: make(map[string]updateStatusEntry),
		RefItems:     make(map[string]map[string][]json.RawMessage),
	}
}

// MarshalJSON writes URL entries at the top level of the data section with
// update_status and ref_items as reserved sibling keys.
func (d *document) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.URLs)+2)
	for url, entry := range d.URLs {
		m[url] = entry
	}
	if len(d.UpdateStatus) > 0 {
		m[keyUpdateStatus] = d.UpdateStatus
	}
	if len(d.RefItems) > 0 {
		m[keyRefItems] = d.RefItems
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits reserved keys back out from URL entries.
func (d *document) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = *newDocument()
	for key, raw := range m {
		switch key {
		case keyUpdateStatus:
			if err := json.Unmarshal(raw, &d.UpdateStatus); err != nil {
				return fmt.Errorf("decode update_status: %w", err)
			}
		case keyRefItems:
			if err := json.Unmarshal(raw, &d.RefItems); err != nil {
				return fmt.Errorf("decode ref_items: %w", err)
			}
		default:
			var entry urlEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("decode entry for url %q: %w", key, err)
			}
			d.URLs[key] = &entry
		}
	}
	return nil
}

func (d *document) urlEntry(url string) *urlEntry {
	entry, ok := d.URLs[url]
	if !ok {
		entry = &urlEntry{Schemes: make(map[string]tagEntry)}
		d.URLs[url] = entry
	}
	return entry
}

// decodeRefRecord deserializes one raw ref record, validating shape and
// content. The second return is false for malformed records.
func decodeRefRecord(raw json.RawMessage) (refs.Item, bool) {
	var rec refs.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return refs.Item{}, false
	}
	item, err := refs.FromRecord(rec)
	if err != nil {
		return refs.Item{}, false
	}
	return item, true
}

// legacyRefSet reports whether any stored ref is a bare string instead of
// a {name, commit} record. Legacy entries are treated as a miss, forcing
// a refresh; they are never upgraded in place.
func legacyRefSet(rs rawRefSet) bool {
	isString := func(raw json.RawMessage) bool {
		return len(raw) > 0 && raw[0] == '"'
	}
	if len(rs.Branches) > 0 && isString(rs.Branches[0]) {
		return true
	}
	if len(rs.Tags) > 0 && isString(rs.Tags[0]) {
		return true
	}
	return false
}
