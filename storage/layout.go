// Package storage implements the on-disk layout that maps a content
// reference to its home directory: a two-level hex-prefix shard tree,
// generalized from the teacher's single-level blob path mapper
// (registry/storage/paths.go's blobDataPathSpec) to the spec's 2+2 split
// so that per-directory entry counts stay bounded as the store grows.
package storage

import (
	"os"
	"path/filepath"

	"github.com/blobd/blobd/reference"
)

// Filenames used inside each blob directory.
const (
	ContentFile  = "blob"
	MetadataFile = "metadata"
)

// StagingDir is the directory, relative to the store root, used to hold
// temporary files during ingest. It lives on the same filesystem as the
// rest of the store so a commit can finish with an atomic rename.
const StagingDir = ".tmp"

// Layout maps references to paths under a single store root directory.
type Layout struct {
	root string
}

// New returns a Layout rooted at root. root is created, along with its
// staging directory, if it does not already exist, and any temporary
// files left behind by a prior, uncleanly-terminated process are purged
// (spec §9: staging is cleaned at startup).
func New(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	l := &Layout{root: abs}

	if err := os.MkdirAll(l.root, 0o777); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.StagingPath(), 0o777); err != nil {
		return nil, err
	}
	if err := l.CleanStaging(); err != nil {
		return nil, err
	}

	return l, nil
}

// Root returns the store's root directory.
func (l *Layout) Root() string {
	return l.root
}

// StagingPath returns the directory under which Add stages temporary
// files before the atomic rename into their shard.
func (l *Layout) StagingPath() string {
	return filepath.Join(l.root, StagingDir)
}

// BlobDir returns the directory that holds (or would hold) ref's content
// and metadata files: <root>/<hex[0:2]>/<hex[2:4]>/<hex[4:64]>.
func (l *Layout) BlobDir(ref reference.Reference) string {
	hex := ref.String()
	return filepath.Join(l.root, hex[0:2], hex[2:4], hex[4:])
}

// ContentPath returns the path of ref's raw content file.
func (l *Layout) ContentPath(ref reference.Reference) string {
	return filepath.Join(l.BlobDir(ref), ContentFile)
}

// MetadataPath returns the path of ref's sidecar metadata file.
func (l *Layout) MetadataPath(ref reference.Reference) string {
	return filepath.Join(l.BlobDir(ref), MetadataFile)
}

// Exists reports whether ref has a fully committed blob: both the blob
// directory and its content file must be present. A blob directory
// without a metadata file is treated as not-yet-committed (see §5 of the
// spec: blob then metadata is the commit order, so metadata presence is
// the signal that a directory is "real").
func (l *Layout) Exists(ref reference.Reference) (bool, error) {
	if _, err := os.Stat(l.MetadataPath(ref)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := os.Stat(l.ContentPath(ref)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Remove deletes ref's entire blob directory. It reports os.ErrNotExist
// (via errors.Is) if the directory was already absent.
func (l *Layout) Remove(ref reference.Reference) error {
	dir := l.BlobDir(ref)
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// All walks the two-level shard tree and returns every reference that
// looks like a valid blob directory name, skipping malformed entries.
// The result reflects a point-in-time snapshot of directory listings; it
// is not a linearizable view and is safe to call concurrently with Add
// and Delete.
func (l *Layout) All() ([]reference.Reference, error) {
	var refs []reference.Reference

	top, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}

	for _, lvl1 := range top {
		if !lvl1.IsDir() || len(lvl1.Name()) != 2 || lvl1.Name() == StagingDir {
			continue
		}

		lvl2Path := filepath.Join(l.root, lvl1.Name())
		lvl2Entries, err := os.ReadDir(lvl2Path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		for _, lvl2 := range lvl2Entries {
			if !lvl2.IsDir() || len(lvl2.Name()) != 2 {
				continue
			}

			leafPath := filepath.Join(lvl2Path, lvl2.Name())
			leaves, err := os.ReadDir(leafPath)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, err
			}

			for _, leaf := range leaves {
				if !leaf.IsDir() || len(leaf.Name()) != reference.HexLen-4 {
					continue
				}

				ref, err := reference.FromHex(lvl1.Name() + lvl2.Name() + leaf.Name())
				if err != nil {
					continue
				}

				if ok, err := l.Exists(ref); err == nil && ok {
					refs = append(refs, ref)
				}
			}
		}
	}

	return refs, nil
}

// CleanStaging removes any leftover temporary files from a prior process,
// e.g. after an unclean shutdown. It is called once at bootstrap.
func (l *Layout) CleanStaging() error {
	entries, err := os.ReadDir(l.StagingPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(l.StagingPath(), e.Name())); err != nil {
			return err
		}
	}
	return nil
}
