//go:build !linux

package cbuild

import (
	"os"
)

// statPath is the portable fallback: os.Lstat, so symlinks are classified
// as themselves and never recursed into.
func statPath(path string) (Stat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Stat{}, err
	}

	return Stat{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Exec implements [System]. Platforms without an exec(2) replacement
// emulate it: spawn the child, forward its exit code, and exit.
func (s OSSystem) Exec(argv []string) error {
	p, err := s.Spawn(argv, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	code, err := s.Wait(p, 0)
	if err != nil {
		return err
	}

	os.Exit(code)

	return nil
}
