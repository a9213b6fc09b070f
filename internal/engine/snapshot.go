package engine

import (
	"encoding/gob"
	"os"
	"sort"

	"github.com/rotisserie/eris"
)

// Snapshot is the export/import unit: the full canonical record list
// plus the statistics at export time. Both indexes are rebuilt from the
// records on import, so the snapshot never carries postings.
type Snapshot struct {
	Emails []Email `json:"emails"`
	Stats  Stats   `json:"stats"`
}

// Export returns a copy of every canonical record, ordered by id, along
// with current stats. The copies are safe to hold after further index
// mutation.
func (ix *Index) Export() Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	emails := make([]Email, 0, len(ix.emails))
	for _, e := range ix.emails {
		emails = append(emails, *e)
	}
	sort.Slice(emails, func(i, j int) bool { return emails[i].ID < emails[j].ID })

	return Snapshot{Emails: emails, Stats: ix.stats()}
}

// Import clears the index and rebuilds both indexes from the given
// records. Postings come from each record's stored token set rather
// than re-tokenization, so tokens contributed by a body that was never
// stored survive the round trip. The result is posting-for-posting
// identical to a fresh Add pass over the same records.
func (ix *Index) Import(emails []Email) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.reset()
	for i := range emails {
		e := emails[i]
		if e.ID == "" {
			continue
		}
		if old, ok := ix.emails[e.ID]; ok {
			ix.removePostings(old)
		}
		ix.insert(&e)
	}
	if len(ix.emails) > 0 {
		ix.lastIndexedAt = ix.now()
	}
}

func init() {
	gob.Register(Snapshot{})
}

// SaveFile writes the current snapshot to path as gob.
func (ix *Index) SaveFile(path string) error {
	snap := ix.Export()

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create snapshot %s", path)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return eris.Wrap(err, "encode snapshot")
	}
	return nil
}

// LoadFile restores the index from a gob snapshot at path. A missing
// file leaves the index untouched and is not an error, matching a first
// run with nothing persisted yet.
func (ix *Index) LoadFile(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return eris.Wrapf(err, "open snapshot %s", path)
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return eris.Wrap(err, "decode snapshot")
	}

	ix.Import(snap.Emails)
	return nil
}
