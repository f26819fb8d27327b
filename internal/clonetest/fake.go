// Package clonetest emulates clonefile(2) with ordinary file operations so
// clone callers can be tested on hosts without the system call.
package clonetest

import (
	"errors"
	"os"
	"syscall"
)

// Flag bits understood by Clonefile.
const noFollow = 0x0001

// Clonefile mimics the observable behavior of clonefile(2): it fails with
// EEXIST when dst exists, follows a symbolic link source unless the
// no-follow bit is set, and reports failures as bare errnos.
func Clonefile(src, dst string, flags uint32) error {
	stat := os.Stat
	if flags&noFollow != 0 {
		stat = os.Lstat
	}
	fi, err := stat(src)
	if err != nil {
		return errnoOf(err)
	}
	if _, err := os.Lstat(dst); err == nil {
		return syscall.EEXIST
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return errnoOf(err)
		}
		return errnoOf(os.Symlink(target, dst))
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return errnoOf(err)
	}
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return errnoOf(err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errnoOf(err)
	}
	return errnoOf(f.Close())
}

func errnoOf(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return err
}
