// Package engine implements blobd's content-addressable blob engine (C3):
// atomic add, lookup, delete, metadata derivation and streaming read over
// a storage.Layout. The commit sequence — stage on the same filesystem,
// validate, atomically rename into the content-addressed path, treat
// "already present" as success — is grounded on the teacher's
// registry/storage/blobwriter.go (doCommit/validateBlob/moveBlob) and its
// filesystem driver's PutContent (stage-then-Move) pattern.
package engine

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/blobd/blobd/apierror"
	"github.com/blobd/blobd/reference"
	"github.com/blobd/blobd/storage"
	"github.com/sirupsen/logrus"
)

// Engine ties a storage.Layout to the ingest-slot discipline of spec §5.
// It has no global mutable state of its own beyond the slot map: both the
// layout and the slot map are constructed at bootstrap and held as fields
// of the Engine, not as package-level singletons (spec §9).
type Engine struct {
	layout *storage.Layout
	slots  *slots
	log    logrus.FieldLogger
}

// New constructs an Engine rooted at the given storage layout.
func New(layout *storage.Layout, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{layout: layout, slots: newSlots(), log: log}
}

// Layout exposes the underlying storage layout, e.g. for administrative
// CLI commands that need the store root.
func (e *Engine) Layout() *storage.Layout {
	return e.layout
}

// Add ingests content read from r, deriving its reference from the bytes
// as they stream through (spec §4.3). filename is the client-supplied
// original name; it is sanitized before being persisted. Re-ingesting
// content that is already stored is a no-op that returns the existing
// reference without refreshing its created timestamp.
func (e *Engine) Add(r io.Reader, filename string) (reference.Reference, error) {
	tmp, err := os.CreateTemp(e.layout.StagingPath(), "ingest-*")
	if err != nil {
		return reference.Reference{}, apierror.Internal(err)
	}
	tmpPath := tmp.Name()

	ref, size, cleanErr := e.stageAndDigest(tmp, r)
	if cleanErr != nil {
		os.Remove(tmpPath)
		return reference.Reference{}, cleanErr
	}

	mimeType, err := sniffPrefix(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return reference.Reference{}, apierror.Internal(err)
	}

	release := e.slots.acquire(ref)
	defer release()

	if exists, err := e.layout.Exists(ref); err != nil {
		os.Remove(tmpPath)
		return reference.Reference{}, apierror.Internal(err)
	} else if exists {
		// Dedup path: identical content already committed by a prior
		// Add. The caller sees no distinction between this and a fresh
		// store (spec §4.3): both return 200 with the same reference.
		os.Remove(tmpPath)
		return ref, nil
	}

	if err := e.commit(tmpPath, ref, sanitizeFilename(filename), mimeType, size); err != nil {
		os.Remove(tmpPath)
		os.RemoveAll(e.layout.BlobDir(ref))
		return reference.Reference{}, err
	}

	e.log.WithFields(logrus.Fields{"reference": ref.String(), "size": size}).Info("blob stored")
	return ref, nil
}

// stageAndDigest streams r into tmp while computing its reference
// incrementally, never buffering the full payload in memory.
func (e *Engine) stageAndDigest(tmp *os.File, r io.Reader) (reference.Reference, int64, error) {
	defer tmp.Close()

	digester := reference.NewDigester()
	n, err := io.Copy(tmp, io.TeeReader(r, digester))
	if err != nil {
		return reference.Reference{}, 0, apierror.Internal(err)
	}

	if err := tmp.Sync(); err != nil {
		return reference.Reference{}, 0, apierror.Internal(err)
	}

	return digester.Reference(), n, nil
}

func sniffPrefix(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}

	return sniffMIME(buf[:n]), nil
}

// commit moves the staged file into its final content-addressed location
// and writes its sidecar metadata last, so that a blob directory without
// a metadata file is never mistaken for a committed blob (spec §5).
func (e *Engine) commit(tmpPath string, ref reference.Reference, filename, mimeType string, size int64) error {
	dir := e.layout.BlobDir(ref)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return apierror.Internal(err)
	}

	if err := os.Rename(tmpPath, e.layout.ContentPath(ref)); err != nil {
		return apierror.Internal(err)
	}

	meta := Metadata{
		Filename: filename,
		MIMEType: mimeType,
		Size:     size,
		Created:  time.Now().UTC(),
	}
	if err := writeMetadata(e.layout.MetadataPath(ref), meta); err != nil {
		return apierror.Internal(err)
	}

	return nil
}

// Head returns ref's metadata without opening its content.
func (e *Engine) Head(ref reference.Reference) (Metadata, error) {
	if ok, err := e.layout.Exists(ref); err != nil {
		return Metadata{}, apierror.Internal(err)
	} else if !ok {
		return Metadata{}, apierror.ErrNotFound
	}

	m, err := readMetadata(e.layout.MetadataPath(ref))
	if err != nil {
		return Metadata{}, apierror.Internal(err)
	}
	return m, nil
}

// Blob is a handle returned by Get: metadata plus a lazily-opened content
// stream. The caller must Close it.
type Blob struct {
	Metadata Metadata
	io.ReadCloser
}

// Get opens ref for streaming read. The content is not read into memory;
// the returned Blob's Reader is the open file, read on demand by the
// caller (e.g. while copying into an HTTP response body).
//
// If verify is true, the content is re-hashed while streaming and
// compared against ref; a mismatch surfaces as apierror.ErrCorrupted once
// the stream is fully consumed. This is the opt-in verification path of
// spec §9: wired to an engine method and the CLI, not to the default HTTP
// route.
func (e *Engine) Get(ref reference.Reference, verify bool) (*Blob, error) {
	m, err := e.Head(ref)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(e.layout.ContentPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierror.ErrNotFound
		}
		return nil, apierror.Internal(err)
	}

	if !verify {
		return &Blob{Metadata: m, ReadCloser: f}, nil
	}

	return &Blob{Metadata: m, ReadCloser: &verifyingReader{ref: ref, f: f, digester: reference.NewDigester(), log: e.log}}, nil
}

// verifyingReader re-hashes content as it is read and reports a mismatch
// against the expected reference once the stream reaches EOF.
type verifyingReader struct {
	ref      reference.Reference
	f        *os.File
	digester *reference.Digester
	log      logrus.FieldLogger
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	n, err := v.f.Read(p)
	if n > 0 {
		v.digester.Write(p[:n])
	}
	if err == io.EOF {
		if v.digester.Reference() != v.ref {
			v.log.WithField("reference", v.ref.String()).Error("stored content does not match its reference")
			return n, apierror.ErrCorrupted
		}
	}
	return n, err
}

func (v *verifyingReader) Close() error {
	return v.f.Close()
}

// Verify re-reads ref's stored content and reports whether its digest
// still matches ref. It exists for test and maintenance use (spec §4.3);
// it is not invoked on every Get for performance reasons.
func (e *Engine) Verify(ref reference.Reference) error {
	f, err := os.Open(e.layout.ContentPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return apierror.ErrNotFound
		}
		return apierror.Internal(err)
	}
	defer f.Close()

	actual, err := reference.FromReader(f)
	if err != nil {
		return apierror.Internal(err)
	}

	if actual != ref {
		e.log.WithField("reference", ref.String()).Error("stored content does not match its reference")
		return apierror.ErrCorrupted
	}
	return nil
}

// Delete removes ref's blob directory. A Delete racing a concurrent Add
// for the same reference is resolved by the ingest slot: the slot held by
// Add prevents Delete from observing (and removing) a partially-written
// directory, and a Delete that finds nothing returns apierror.ErrNotFound.
func (e *Engine) Delete(ref reference.Reference) error {
	release := e.slots.acquire(ref)
	defer release()

	if err := e.layout.Remove(ref); err != nil {
		if os.IsNotExist(err) {
			return apierror.ErrNotFound
		}
		return apierror.Internal(err)
	}

	e.log.WithField("reference", ref.String()).Info("blob deleted")
	return nil
}

// List returns an iterator over every reference currently in the store.
// The store is walked once, in full, before List returns, and the iterator
// steps through that collected snapshot; the walk is not lazy. Order is
// unspecified; the snapshot reflects directory listings at walk time
// (spec §4.3), not a linearizable scan, so it is safe to call concurrently
// with Add and Delete.
func (e *Engine) List() (*Iterator, error) {
	refs, err := e.layout.All()
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return &Iterator{refs: refs, i: -1}, nil
}
