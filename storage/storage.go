package storage // import "github.com/anxkit/anx-sync/storage"

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anxkit/anx-sync/log"
	"github.com/anxkit/anx-sync/store/db"
	"github.com/anxkit/anx-sync/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ContentStore owns the data/file and data/cover directories under a device
// root and all path arithmetic between absolute paths and the relative,
// slash-separated paths persisted in tb_books.
type ContentStore struct {
	root       string
	maxNameLen int
	newDigest  func() hash.Hash
}

func NewContentStore(root string, maxNameLen int, hashAlgorithm string) *ContentStore {
	digest := md5.New
	if strings.EqualFold(hashAlgorithm, "sha256") {
		digest = sha256.New
	}
	return &ContentStore{
		root:       root,
		maxNameLen: maxNameLen,
		newDigest:  digest,
	}
}

// Abs resolves a stored relative path against the device root.
func (s *ContentStore) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Rel converts an absolute path under the root back to the stored form.
func (s *ContentStore) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Materialize copies sourcePath into data/file under a name derived from
// title and author and returns the stored relative path together with the
// content hash of the copied bytes. A name collision with an existing file
// gets a numeric suffix so distinct content never silently overwrites.
func (s *ContentStore) Materialize(sourcePath, title, author, format string) (string, string, error) {
	name := util.Filename(title, author, format, s.maxNameLen)
	dest := filepath.Join(s.root, filepath.FromSlash(db.FileDir), name)
	dest = util.GenerateNewFileName(dest)

	sum, err := s.copyFile(sourcePath, dest)
	if err != nil {
		return "", "", err
	}

	rel, err := s.Rel(dest)
	if err != nil {
		return "", "", err
	}
	log.Debug("Stored book payload", zap.String("path", rel), zap.String("hash", sum))
	return rel, sum, nil
}

// MaterializeAt rewrites a payload at an exact stored path, the repair path
// for rows whose backing file went missing.
func (s *ContentStore) MaterializeAt(sourcePath, rel string) (string, error) {
	return s.copyFile(sourcePath, s.Abs(rel))
}

// MaterializeCover stores cover data for a book, preferring raw bytes over a
// path. No cover is not an error, it just yields no path. Covers always land
// as jpeg because that is the only format ANX readers render.
func (s *ContentStore) MaterializeCover(coverBytes []byte, coverPath, title, author string) (string, error) {
	if len(coverBytes) == 0 && coverPath == "" {
		return "", nil
	}

	if len(coverBytes) == 0 {
		data, err := os.ReadFile(coverPath)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read cover %s", coverPath)
		}
		coverBytes = data
	}

	data, err := normalizeCover(coverBytes)
	if err != nil {
		log.Warn("Skipping unusable cover", zap.String("title", title), zap.Error(err))
		return "", nil
	}

	name := util.Filename(title, author, "jpg", s.maxNameLen)
	dest := filepath.Join(s.root, filepath.FromSlash(db.CoverDir), name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create cover directory")
	}
	// Same collision rule as payloads, two books sharing title and author
	// must not share a cover file
	dest = util.GenerateNewFileName(dest)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write cover %s", dest)
	}

	return s.Rel(dest)
}

// Remove deletes a stored file if present. A missing file is a logged no-op.
func (s *ContentStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	abs := s.Abs(rel)
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			log.Warn("File already gone", zap.String("path", abs))
			return nil
		}
		return errors.Wrapf(err, "failed to remove %s", abs)
	}
	log.Debug("Removed file", zap.String("path", abs))
	return nil
}

// Hash streams a file through the configured digest and returns the hex sum.
func (s *ContentStore) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	h := s.newDigest()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dest, hashing while copying. A failed copy removes
// the partial destination so no stray payload survives the error.
func (s *ContentStore) copyFile(src, dest string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open source %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create directories")
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dest)
	}

	h := s.newDigest()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		out.Close()
		os.Remove(dest)
		return "", errors.Wrapf(err, "failed to copy to %s", dest)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", errors.Wrapf(err, "failed to close %s", dest)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
