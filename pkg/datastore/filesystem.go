package datastore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/spf13/afero"
)

type filesystemRecordStore struct {
	fs afero.Fs
}

// New creates a RecordStore backed by fs
func New(fs afero.Fs) RecordStore {
	return &filesystemRecordStore{fs: fs}
}

// on-disk form; installTo is the legacy name of target
type recordFile struct {
	Source    string `json:"source"`
	Target    string `json:"target,omitempty"`
	InstallTo string `json:"installTo,omitempty"`
}

func (s *filesystemRecordStore) Load(path string) (*Record, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrRecordLoad, "could not find instructions file: %s", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrRecordLoad, "cannot read %s", path)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.Newf(errors.ErrRecordLoad, "%s contents are not a valid JSON object", path)
	}

	var rf recordFile
	if err := json.Unmarshal(trimmed, &rf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRecordLoad, "%s contents are not a valid JSON object", path)
	}

	rec := &Record{Source: rf.Source, Target: rf.Target}
	if rf.InstallTo != "" {
		rec.Target = rf.InstallTo
	}
	if rec.Source == "" || rec.Target == "" {
		return nil, errors.Newf(errors.ErrRecordLoad, "%s must name both source and target", path)
	}
	return rec, nil
}

func (s *filesystemRecordStore) Save(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode install record")
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot create directory for %s", path)
	}
	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrRecordWrite, "cannot write %s", path).WithDetail("path", path)
	}

	logger := logging.GetLogger("datastore")
	logger.Debug().
		Str("path", path).
		Str("source", rec.Source).
		Str("target", rec.Target).
		Msg("Wrote install record")
	return nil
}
