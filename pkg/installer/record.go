package installer

import (
	"context"

	"github.com/arthur-debert/mum/pkg/datastore"
	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/source"
)

// RecordPath returns path, or the configured record file in the working
// directory when path is empty.
func (i *Installer) RecordPath(path string) string {
	if path == "" {
		return i.deps.Config.Cache.RecordFile
	}
	return path
}

// Update re-runs the installation stored in the record at recordPath.
func (i *Installer) Update(ctx context.Context, recordPath string, opts Options) (*Result, error) {
	rec, err := i.deps.Records.Load(i.RecordPath(recordPath))
	if err != nil {
		return nil, err
	}
	i.logger.Info().Str("source", rec.Source).Str("target", rec.Target).Msg("Updating installation")
	return i.Install(ctx, rec.Source, rec.Target, opts)
}

// Debug re-runs the recorded installation against the cache as it is,
// without updating any source.
func (i *Installer) Debug(ctx context.Context, recordPath string, opts Options) (*Result, error) {
	opts.DisableUpdates = true
	return i.Update(ctx, recordPath, opts)
}

// Switch points the recorded repository source at ref. Only repository
// sources carry a commit-ish.
func (i *Installer) Switch(recordPath, ref string) (*datastore.Record, error) {
	if ref == "" {
		return nil, errors.New(errors.ErrInvalidInput, "a commit-ish is required")
	}
	path := i.RecordPath(recordPath)
	rec, err := i.deps.Records.Load(path)
	if err != nil {
		return nil, err
	}
	kind, err := source.Classify(i.deps.Fs, rec.Source)
	if err != nil {
		return nil, err
	}
	if kind != source.KindRepository {
		return nil, errors.Newf(errors.ErrInvalidInput, "cannot switch a %s source to a commit-ish: %s", kind, rec.Source).
			WithDetail("source", rec.Source)
	}

	switched := rec.WithCommitIsh(ref)
	if err := i.deps.Records.Save(path, switched); err != nil {
		return nil, err
	}
	i.logger.Info().Str("source", switched.Source).Str("record", path).Msg("Switched commit-ish")
	return switched, nil
}
