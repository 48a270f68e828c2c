package refs

import "fmt"

// Record is the serialized form of an Item as stored in the refs cache.
// The ref_type field is derived from the flags on write and ignored on
// read; it exists so the cache file stays greppable by humans.
type Record struct {
	Name      string `json:"name"`
	Commit    string `json:"commit"`
	IsTag     bool   `json:"is_tag"`
	IsBranch  bool   `json:"is_branch"`
	IsCurrent bool   `json:"is_current"`
	RefType   string `json:"ref_type"`
}

// Record returns the serializable form of the item.
func (i Item) Record() Record {
	return Record{
		Name:      i.Name,
		Commit:    i.Commit,
		IsTag:     i.IsTag,
		IsBranch:  i.IsBranch,
		IsCurrent: i.IsCurrent,
		RefType:   string(i.Type()),
	}
}

// FromRecord reconstructs an Item from its serialized form. A record with
// neither name nor commit deserializes to an error, not a zero Item.
func FromRecord(r Record) (Item, error) {
	if r.Name == "" && r.Commit == "" {
		return Item{}, fmt.Errorf("ref record must have a name or a commit")
	}
	return Item{
		Name:      r.Name,
		Commit:    r.Commit,
		IsTag:     r.IsTag,
		IsBranch:  r.IsBranch,
		IsCurrent: r.IsCurrent,
	}, nil
}
