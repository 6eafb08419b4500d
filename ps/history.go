package ps

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
	git "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"

	"github.com/nickyhof/DocDB/core"
)

// History keeps every persisted revision of the document as a commit in
// an embedded git repository living next to the backing file. It is an
// audit trail: the store never reads from it except to restore.
type History struct {
	repo *git.Repository
	wt   billy.Filesystem
}

// Revision identifies one recorded document state.
type Revision struct {
	Id   string
	When time.Time
}

// EnableHistory starts recording a revision on every save. The
// repository lives under history/ on the store's filesystem and is
// reopened if it already exists.
func (store *Store) EnableHistory() error {
	wt, err := store.fs.Chroot("history")
	if err != nil {
		return fmt.Errorf("opening history directory: %w", err)
	}
	dot, err := wt.Chroot(".git")
	if err != nil {
		return fmt.Errorf("opening history git directory: %w", err)
	}

	storer := filesystem.NewStorageWithOptions(
		dot,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	repo, err := git.Open(storer, wt)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	}
	if err != nil {
		return fmt.Errorf("opening history repository: %w", err)
	}

	store.history = &History{repo: repo, wt: wt}
	return nil
}

// Record commits one revision of the document file.
func (history *History) Record(name string, data []byte) error {
	if err := util.WriteFile(history.wt, name, data, 0o644); err != nil {
		return err
	}

	wt, err := history.repo.Worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(name); err != nil {
		return err
	}

	_, err = wt.Commit("save "+name, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  "docdb",
			Email: "docdb@localhost",
			When:  time.Now(),
		},
	})
	return err
}

// Revisions lists recorded revisions, newest first.
func (history *History) Revisions() ([]Revision, error) {
	head, err := history.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	iter, err := history.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}

	var revisions []Revision
	err = iter.ForEach(func(commit *object.Commit) error {
		revisions = append(revisions, Revision{
			Id:   commit.Hash.String(),
			When: commit.Committer.When,
		})
		return nil
	})
	return revisions, err
}

// RevisionData returns the document file content recorded at a
// revision.
func (history *History) RevisionData(id, name string) ([]byte, error) {
	commit, err := history.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("looking up revision %s: %w", id, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	file, err := tree.File(name)
	if err != nil {
		return nil, fmt.Errorf("revision %s holds no %s: %w", id, name, err)
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Revisions lists the store's recorded revisions. History must be
// enabled.
func (store *Store) Revisions() ([]Revision, error) {
	if store.history == nil {
		return nil, errors.New("history not enabled")
	}
	return store.history.Revisions()
}

// RestoreRevision replaces the document with the state recorded at the
// given revision and persists it. On persistence failure the current
// document stays in place.
func (store *Store) RestoreRevision(id string) error {
	if store.history == nil {
		return errors.New("history not enabled")
	}

	data, err := store.history.RevisionData(id, store.path)
	if err != nil {
		return err
	}

	restored := core.NewDocument()
	if err := json.Unmarshal(data, restored); err != nil {
		return fmt.Errorf("parsing revision %s: %w", id, err)
	}

	store.mu.Lock()
	previous := store.document
	store.document = restored
	store.mu.Unlock()

	if err := store.Save(); err != nil {
		store.mu.Lock()
		store.document = previous
		store.mu.Unlock()
		return err
	}
	return nil
}
