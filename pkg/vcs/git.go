package vcs

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/mum/pkg/errors"
	"github.com/arthur-debert/mum/pkg/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/rs/zerolog"
)

// RemoteName is the remote every clone is created with
const RemoteName = "origin"

// GitFetcher handles repository operations with go-git
type GitFetcher struct {
	auth   transport.AuthMethod
	logger zerolog.Logger
}

// NewGitFetcher creates a fetcher, picking up SSH keys or token credentials
// from the environment when present.
func NewGitFetcher() *GitFetcher {
	f := &GitFetcher{logger: logging.GetLogger("vcs.git")}
	f.setupAuth()
	return f
}

// Clone clones url into dir, which must be empty or missing.
func (f *GitFetcher) Clone(ctx context.Context, url, dir string) error {
	f.logger.Info().Str("url", url).Str("dir", dir).Msg("Cloning repository")

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrCloneFailed, "could not create clone target directory: %s", dir)
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        url,
		Auth:       f.auth,
		RemoteName: RemoteName,
		Tags:       git.AllTags,
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrCloneFailed, "could not clone repository: %s", url).
			WithDetail("url", url).
			WithDetail("dir", dir)
	}
	return nil
}

// Update discards local modifications in the working copy at dir, fetches,
// and checks out ref at its latest remote position.
func (f *GitFetcher) Update(ctx context.Context, dir, ref string) error {
	f.logger.Info().Str("dir", dir).Str("ref", ref).Msg("Updating repository")

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return checkoutError(err, dir, ref, "cannot open working copy")
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return checkoutError(err, dir, ref, "cannot open worktree")
	}
	if err := worktree.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return checkoutError(err, dir, ref, "hard reset failed")
	}
	if err := worktree.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return checkoutError(err, dir, ref, "cleaning untracked files failed")
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: RemoteName,
		Auth:       f.auth,
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return checkoutError(err, dir, ref, "fetch failed")
	}

	return f.checkout(repo, dir, ref)
}

// Checkout checks out ref, which may be a branch, a tag or a revision.
func (f *GitFetcher) Checkout(ctx context.Context, dir, ref string) error {
	f.logger.Debug().Str("dir", dir).Str("ref", ref).Msg("Checking out")

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return checkoutError(err, dir, ref, "cannot open working copy")
	}
	return f.checkout(repo, dir, ref)
}

func (f *GitFetcher) checkout(repo *git.Repository, dir, ref string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return checkoutError(err, dir, ref, "cannot open worktree")
	}

	// Branches track the remote: the local branch is created when missing and
	// moved to the remote head, which is what a pull after checkout yields on
	// a clean working copy.
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(RemoteName, ref), true)
	if err == nil {
		branch := plumbing.NewBranchReferenceName(ref)
		if err := repo.Storer.SetReference(plumbing.NewHashReference(branch, remoteRef.Hash())); err != nil {
			return checkoutError(err, dir, ref, "cannot update local branch")
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Branch: branch, Force: true}); err != nil {
			return checkoutError(err, dir, ref, "checkout failed")
		}
		if err := worktree.Reset(&git.ResetOptions{Commit: remoteRef.Hash(), Mode: git.HardReset}); err != nil {
			return checkoutError(err, dir, ref, "reset to remote branch failed")
		}
		return nil
	}

	if localRef, err := repo.Reference(plumbing.NewBranchReferenceName(ref), true); err == nil {
		if err := worktree.Checkout(&git.CheckoutOptions{Branch: localRef.Name(), Force: true}); err != nil {
			return checkoutError(err, dir, ref, "checkout failed")
		}
		return nil
	}

	hash, err := f.resolveTagOrRevision(repo, ref)
	if err != nil {
		return checkoutError(err, dir, ref, "the hash, branch, or tag provided could not be found")
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return checkoutError(err, dir, ref, "checkout failed")
	}
	return nil
}

func (f *GitFetcher) resolveTagOrRevision(repo *git.Repository, ref string) (plumbing.Hash, error) {
	if tagRef, err := repo.Reference(plumbing.NewTagReferenceName(ref), true); err == nil {
		// annotated tags point at a tag object, lightweight ones at the commit
		if tagObj, err := repo.TagObject(tagRef.Hash()); err == nil {
			return tagObj.Target, nil
		}
		return tagRef.Hash(), nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *hash, nil
}

func checkoutError(err error, dir, ref, msg string) error {
	return errors.Wrapf(err, errors.ErrCheckoutFailed, "%s (repository %s, commit-ish %s)", msg, dir, ref).
		WithDetail("dir", dir).
		WithDetail("commitIsh", ref)
}

// setupAuth configures authentication based on available credentials.
func (f *GitFetcher) setupAuth() {
	if sshAuth := f.trySSHAuth(); sshAuth != nil {
		f.auth = sshAuth
		return
	}
	if httpAuth := f.tryHTTPAuth(); httpAuth != nil {
		f.auth = httpAuth
	}
}

func (f *GitFetcher) trySSHAuth() transport.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	keyPaths := []string{
		filepath.Join(homeDir, ".ssh", "id_ed25519"),
		filepath.Join(homeDir, ".ssh", "id_rsa"),
		filepath.Join(homeDir, ".ssh", "id_ecdsa"),
	}

	for _, keyPath := range keyPaths {
		if _, err := os.Stat(keyPath); err == nil {
			auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
			if err == nil {
				f.logger.Debug().Str("key", keyPath).Msg("Using SSH key")
				return auth
			}
		}
	}

	return nil
}

func (f *GitFetcher) tryHTTPAuth() transport.AuthMethod {
	tokens := []struct{ env, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	}
	for _, tk := range tokens {
		if token := os.Getenv(tk.env); token != "" {
			f.logger.Debug().Str("env", tk.env).Msg("Using token authentication")
			return &http.BasicAuth{Username: tk.user, Password: token}
		}
	}
	return nil
}

// String implements fmt.Stringer for log fields
func (f *GitFetcher) String() string {
	return fmt.Sprintf("go-git (auth: %t)", f.auth != nil)
}
