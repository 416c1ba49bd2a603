//go:build linux

package cbuild

import (
	"io/fs"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// statPath is the Linux fast path: one lstat(2) via the raw syscall
// wrapper instead of os.Lstat's FileInfo construction. lstat keeps
// symlinks classified as themselves so they are never recursed into.
func statPath(path string) (Stat, error) {
	var st unix.Stat_t

	err := unix.Lstat(path, &st)
	if err != nil {
		if err == unix.ENOENT {
			err = fs.ErrNotExist
		}

		return Stat{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}

	sec, nsec := st.Mtim.Unix()

	return Stat{
		Size:    st.Size,
		ModTime: time.Unix(sec, nsec),
		IsDir:   st.Mode&unix.S_IFMT == unix.S_IFDIR,
	}, nil
}

// Exec implements [System] by replacing the current process image.
func (OSSystem) Exec(argv []string) error {
	if len(argv) == 0 {
		return &SpawnError{Exit: -1, Err: errEmptyArgv}
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return &SpawnError{Argv: argv, Exit: -1, Err: err}
	}

	return unix.Exec(path, argv, os.Environ())
}
