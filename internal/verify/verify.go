package verify

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// MismatchError records a clone whose destination differs from its source.
type MismatchError struct {
	Path    string // path relative to the clone root, "." for the root itself
	SrcHash string
	DstHash string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verify %s: source %s != destination %s", e.Path, e.SrcHash, e.DstHash)
}

// ErrNotLink is returned when a no-follow clone of a symbolic link did not
// produce a symbolic link.
var ErrNotLink = errors.New("destination is not a symbolic link")

// HashFile computes the BLAKE3 hash of the file at path, returning the hex-encoded digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Clone checks that dst holds the same content as src after a clone.
// With noFollow a symbolic link source must have produced a link with the
// same link text. Directory clones are compared file by file.
func Clone(src, dst string, noFollow bool) error {
	stat := os.Stat
	if noFollow {
		stat = os.Lstat
	}
	fi, err := stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	switch {
	case fi.Mode()&fs.ModeSymlink != 0:
		return compareLinks(".", src, dst)
	case fi.IsDir():
		return compareTrees(src, dst)
	default:
		return compareFiles(".", src, dst)
	}
}

func compareLinks(rel, src, dst string) error {
	dfi, err := os.Lstat(dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if dfi.Mode()&fs.ModeSymlink == 0 {
		return fmt.Errorf("%s: %w", dst, ErrNotLink)
	}
	srcTarget, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("readlink %s: %w", src, err)
	}
	dstTarget, err := os.Readlink(dst)
	if err != nil {
		return fmt.Errorf("readlink %s: %w", dst, err)
	}
	if srcTarget != dstTarget {
		return &MismatchError{Path: rel, SrcHash: srcTarget, DstHash: dstTarget}
	}
	return nil
}

func compareFiles(rel, src, dst string) error {
	srcHash, err := HashFile(src)
	if err != nil {
		return err
	}
	dstHash, err := HashFile(dst)
	if err != nil {
		return err
	}
	if srcHash != dstHash {
		return &MismatchError{Path: rel, SrcHash: srcHash, DstHash: dstHash}
	}
	return nil
}

// compareTrees walks src and compares every entry against dst. Links inside
// a directory clone are always cloned as links.
func compareTrees(srcRoot, dstRoot string) error {
	return filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return compareLinks(rel, path, dst)
		case d.IsDir():
			dfi, err := os.Lstat(dst)
			if err != nil {
				return fmt.Errorf("stat destination: %w", err)
			}
			if !dfi.IsDir() {
				return &MismatchError{Path: rel, SrcHash: "dir", DstHash: dfi.Mode().Type().String()}
			}
			return nil
		case d.Type().IsRegular():
			return compareFiles(rel, path, dst)
		default:
			return nil
		}
	})
}
