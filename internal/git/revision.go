// Package git reads the source revision of the site project so export reports and
// history entries can be traced back to a commit.
package git

import (
	stderrors "errors"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// Revision identifies the checked out state of a repository.
type Revision struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty"`
}

// String returns the short commit hash with a "-dirty" suffix for modified worktrees.
func (r Revision) String() string {
	if r.Commit == "" {
		return ""
	}
	short := r.Commit
	if len(short) > 12 {
		short = short[:12]
	}
	if r.Dirty {
		return short + "-dirty"
	}
	return short
}

// ErrNotRepository is returned when dir is not inside a git repository.
var ErrNotRepository = stderrors.New("not a git repository")

// SourceRevision returns the revision of the repository containing dir. Parent
// directories are searched for the .git directory.
func SourceRevision(dir string) (Revision, error) {
	repo, err := ggit.PlainOpenWithOptions(dir, &ggit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, ggit.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, errors.WrapError(err, errors.CategoryRuntime, "failed to open repository").
			WithContext("path", dir).
			WithSeverity(errors.SeverityWarning).
			Build()
	}

	head, err := repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			// Repository without commits.
			return Revision{}, nil
		}
		return Revision{}, errors.WrapError(err, errors.CategoryRuntime, "failed to resolve HEAD").
			WithContext("path", dir).
			WithSeverity(errors.SeverityWarning).
			Build()
	}

	rev := Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to be dirty.
		return rev, nil
	}
	status, err := wt.Status()
	if err != nil {
		return rev, errors.WrapError(err, errors.CategoryRuntime, "failed to read worktree status").
			WithContext("path", dir).
			WithSeverity(errors.SeverityWarning).
			Build()
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
