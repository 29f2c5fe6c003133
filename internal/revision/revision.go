// Package revision reports the git revision of the repository a file lives in.
package revision

import (
	stderrors "errors"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Info describes the checkout state of one file.
type Info struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	// Dirty is set when the file differs from HEAD or is untracked.
	Dirty bool `json:"dirty,omitempty"`
}

// String is the short form used in logs and history: the abbreviated commit,
// suffixed with "+dirty" for local modifications.
func (i Info) String() string {
	if i.Commit == "" {
		return ""
	}
	s := i.Commit
	if len(s) > 12 {
		s = s[:12]
	}
	if i.Dirty {
		s += "+dirty"
	}
	return s
}

// Detect opens the repository containing path. A path outside any repository,
// or a repository without commits, yields a zero Info and no error.
func Detect(path string) (Info, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve path").
			WithContext("path", path).Build()
	}
	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if stderrors.Is(err, git.ErrRepositoryNotExists) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to open git repository").
			WithContext("path", path).Build()
	}

	head, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve HEAD").
			WithContext("path", path).Build()
	}
	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to compare against.
		return info, nil
	}
	dirty, err := fileDirty(wt, abs)
	if err != nil {
		return info, err
	}
	info.Dirty = dirty
	return info, nil
}

func fileDirty(wt *git.Worktree, abs string) (bool, error) {
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false, nil
	}

	status, err := wt.Status()
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to read worktree status").
			WithContext("path", abs).Build()
	}
	fs, ok := status[filepath.ToSlash(rel)]
	if !ok {
		return false, nil
	}
	return fs.Worktree != git.Unmodified || fs.Staging != git.Unmodified, nil
}
