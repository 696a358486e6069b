package datastore

import "strings"

// Record is what a top-level installation persists
type Record struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RecordStore reads and writes install records
type RecordStore interface {
	Load(path string) (*Record, error)
	Save(path string, rec *Record) error
}

// WithCommitIsh returns a copy of the record whose repository source points
// at ref. Callers make sure the source is a repository reference.
func (r *Record) WithCommitIsh(ref string) *Record {
	url := r.Source
	if i := strings.LastIndex(url, "#"); i >= 0 {
		url = url[:i]
	}
	return &Record{Source: url + "#" + ref, Target: r.Target}
}
