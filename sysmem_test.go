package cbuild_test

// memSystem is an in-memory System double. It keeps a flat map of paths,
// serves directory listings derived from it, and lets tests script process
// results and inject per-directory listing failures.

import (
	"bytes"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	cbuild "github.com/smushy64/cbuild-sub000"
)

var _ cbuild.System = (*memSystem)(nil)

type memFile struct {
	data  []byte
	mtime time.Time
	dir   bool
}

type memProc struct {
	pid  int
	exit int
}

func (p *memProc) PID() int { return p.pid }

type memSystem struct {
	mu    sync.Mutex
	files map[string]*memFile

	// readDirErr injects a listing failure for a specific directory.
	readDirErr map[string]error

	// onSpawn scripts process results; nil spawns succeed with exit 0.
	onSpawn func(argv []string) (exit int, err error)

	spawned [][]string
	execed  [][]string

	nextPID int
	clock   time.Time
}

func newMemSystem() *memSystem {
	return &memSystem{
		files:      map[string]*memFile{"/": {dir: true}},
		readDirErr: map[string]error{},
		clock:      time.Unix(1000, 0),
	}
}

// tick advances the fake clock so successive writes get distinct mtimes.
func (s *memSystem) tick() time.Time {
	s.clock = s.clock.Add(time.Second)

	return s.clock
}

// addDir registers path and any missing parents as directories.
func (s *memSystem) addDir(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addDirLocked(path)
}

func (s *memSystem) addDirLocked(path string) {
	for p := path; p != "/" && p != "" && p != "."; p = parentOf(p) {
		if f, ok := s.files[p]; ok && f.dir {
			break
		}

		s.files[p] = &memFile{dir: true, mtime: s.clock}
	}
}

// addFile registers a file with the given contents at the given mtime,
// creating parent directories.
func (s *memSystem) addFile(path string, data []byte, mtime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addDirLocked(parentOf(path))
	s.files[path] = &memFile{data: append([]byte(nil), data...), mtime: mtime}
}

func parentOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i <= 0 {
		return "/"
	}

	return path[:i]
}

func notExist(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

func (s *memSystem) Open(path string) (io.ReadCloser, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memSystem) ReadFile(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[path]
	if !ok || f.dir {
		return nil, notExist("open", path)
	}

	return append([]byte(nil), f.data...), nil
}

func (s *memSystem) WriteFile(path string, data []byte, _ fs.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addDirLocked(parentOf(path))
	s.files[path] = &memFile{data: append([]byte(nil), data...), mtime: s.tick()}

	return nil
}

func (s *memSystem) Stat(path string) (cbuild.Stat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[path]
	if !ok {
		return cbuild.Stat{}, notExist("stat", path)
	}

	return cbuild.Stat{Size: int64(len(f.data)), ModTime: f.mtime, IsDir: f.dir}, nil
}

func (s *memSystem) ReadDir(path string) ([]cbuild.DirEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readDirErr[path]; err != nil {
		return nil, err
	}

	d, ok := s.files[path]
	if !ok || !d.dir {
		return nil, notExist("open", path)
	}

	prefix := path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var entries []cbuild.DirEntry

	for p, f := range s.files {
		if !strings.HasPrefix(p, prefix) || p == path {
			continue
		}

		rest := p[len(prefix):]
		if rest == "" || strings.ContainsRune(rest, '/') {
			continue
		}

		entries = append(entries, cbuild.DirEntry{Name: rest, IsDir: f.dir})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func (s *memSystem) Rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[oldPath]
	if !ok {
		return notExist("rename", oldPath)
	}

	delete(s.files, oldPath)
	s.files[newPath] = f

	return nil
}

func (s *memSystem) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[path]; !ok {
		return notExist("remove", path)
	}

	delete(s.files, path)

	return nil
}

func (s *memSystem) Spawn(argv []string, _, _ io.Writer) (cbuild.Proc, error) {
	s.mu.Lock()
	s.spawned = append(s.spawned, append([]string(nil), argv...))
	hook := s.onSpawn
	s.mu.Unlock()

	exit := 0

	// The hook runs unlocked so it may call back into the double.
	if hook != nil {
		var err error

		exit, err = hook(argv)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPID++

	return &memProc{pid: s.nextPID, exit: exit}, nil
}

func (s *memSystem) Wait(p cbuild.Proc, _ time.Duration) (int, error) {
	mp, ok := p.(*memProc)
	if !ok {
		return -1, notExist("wait", "proc")
	}

	return mp.exit, nil
}

func (s *memSystem) Exec(argv []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.execed = append(s.execed, append([]string(nil), argv...))

	return nil
}

// spawnCount returns how many processes were spawned so far.
func (s *memSystem) spawnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.spawned)
}

// execCount returns how many Exec calls were recorded so far.
func (s *memSystem) execCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.execed)
}

// lastExec returns the most recent Exec argv, or nil.
func (s *memSystem) lastExec() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.execed) == 0 {
		return nil
	}

	return s.execed[len(s.execed)-1]
}

// exists reports whether path is present.
func (s *memSystem) exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.files[path]

	return ok
}
