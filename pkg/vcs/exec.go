package vcs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/rs/zerolog"
)

// ExecFetcher drives the git command line
type ExecFetcher struct {
	binary string
	logger zerolog.Logger
}

// NewExecFetcher creates a fetcher running binary ("git" when empty)
func NewExecFetcher(binary string) *ExecFetcher {
	if binary == "" {
		binary = "git"
	}
	return &ExecFetcher{binary: binary, logger: logging.GetLogger("vcs.exec")}
}

// Clone runs git clone url dir
func (f *ExecFetcher) Clone(ctx context.Context, url, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrCloneFailed, "could not create clone target directory: %s", dir)
	}
	if _, err := f.run(ctx, "", "clone", url, dir); err != nil {
		return errors.Wrapf(err, errors.ErrCloneFailed, "could not clone repository: %s", url).
			WithDetail("url", url).
			WithDetail("dir", dir)
	}
	return nil
}

// Update resets, cleans, fetches, checks out ref and pulls when on a branch
func (f *ExecFetcher) Update(ctx context.Context, dir, ref string) error {
	steps := [][]string{
		{"reset", "--hard"},
		{"clean", "-fdx"},
		{"fetch", "--tags", "--force"},
	}
	for _, args := range steps {
		if _, err := f.run(ctx, dir, args...); err != nil {
			return checkoutError(err, dir, ref, "updating working copy failed")
		}
	}
	if err := f.Checkout(ctx, dir, ref); err != nil {
		return err
	}
	if !f.onBranch(ctx, dir) {
		return nil
	}
	if _, err := f.run(ctx, dir, "pull", "--ff-only"); err != nil {
		return checkoutError(err, dir, ref, "pull failed")
	}
	return nil
}

// Checkout runs git checkout ref
func (f *ExecFetcher) Checkout(ctx context.Context, dir, ref string) error {
	if _, err := f.run(ctx, dir, "checkout", ref); err != nil {
		return checkoutError(err, dir, ref, "the hash, branch, or tag provided could not be found")
	}
	return nil
}

func (f *ExecFetcher) onBranch(ctx context.Context, dir string) bool {
	_, err := f.run(ctx, dir, "symbolic-ref", "-q", "HEAD")
	return err == nil
}

// run executes git with args in dir, returning trimmed combined output.
func (f *ExecFetcher) run(ctx context.Context, dir string, args ...string) (string, error) {
	logging.LogCommand(f.logger, f.binary, args)

	cmd := exec.CommandContext(ctx, f.binary, args...)
	cmd.Dir = dir
	// never prompt for credentials
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	out := strings.TrimSpace(string(output))
	if err != nil {
		return out, fmt.Errorf("git %s failed: %s: %w", args[0], out, err)
	}
	if out != "" {
		f.logger.Trace().Str("output", out).Msg("git output")
	}
	return out, nil
}
