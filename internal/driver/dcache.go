package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/diag"
	"quill/internal/observ"
	"quill/internal/project"
	"quill/internal/resolver"
	"quill/internal/sema"
	"quill/internal/source"
)

// Increment when the ModulePayload format changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores per-module front-end artifacts keyed by content
// digest. Safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// ModulePayload is the cached record of one checked module: enough to
// answer "what does this file import and require" without re-parsing,
// and whether the last check of it was clean.
type ModulePayload struct {
	Schema uint16

	Path        string
	ImportPaths []string
	Requires    []string

	ContentHash project.Digest
	Broken      bool
}

// OpenDiskCache initializes a disk cache at the standard location for app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes a disk cache rooted at dir (tests).
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// RunPayload caches the outcome of one whole pipeline run: the file
// stamps it depended on and the diagnostics it produced. A hit replays
// the diagnostics without re-lexing or re-parsing anything.
type RunPayload struct {
	Schema uint16

	Files        []FileStamp
	ManifestHash project.Digest
	ModuleCount  int
	Diagnostics  []RunDiagnostic
}

// FileStamp records one file the cached run read. The stamp order is
// the FileSet load order, so replaying it reproduces the original
// FileIDs and keeps the cached spans valid.
type FileStamp struct {
	Path string
	Hash project.Digest
}

// RunDiagnostic is one serialized diagnostic of a cached run.
type RunDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	File     uint32
	Start    uint32
	End      uint32
	Notes    []RunNote
}

type RunNote struct {
	File  uint32
	Start uint32
	End   uint32
	Msg   string
}

func (c *DiskCache) pathFor(sub string, key project.Digest) string {
	// Subdirectories per payload kind keep the cache root listable.
	return filepath.Join(c.dir, sub, key.String()+".mp")
}

// Put serializes and writes a module payload, replacing atomically.
func (c *DiskCache) Put(key project.Digest, payload *ModulePayload) error {
	if c == nil {
		return nil
	}
	return c.write(c.pathFor("mods", key), payload)
}

// Get reads a module payload; false means a clean miss.
func (c *DiskCache) Get(key project.Digest, out *ModulePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	ok, err := c.read(c.pathFor("mods", key), out)
	if ok && out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return ok, err
}

// PutRun stores a whole-run payload under its option-and-path key.
func (c *DiskCache) PutRun(key project.Digest, payload *RunPayload) error {
	if c == nil {
		return nil
	}
	return c.write(c.pathFor("runs", key), payload)
}

// GetRun reads a whole-run payload; false means a clean miss. A payload
// with a stale schema is treated as a miss.
func (c *DiskCache) GetRun(key project.Digest, out *RunPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	ok, err := c.read(c.pathFor("runs", key), out)
	if ok && out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return ok, err
}

func (c *DiskCache) write(path string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func (c *DiskCache) read(path string, out any) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the whole cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// storeModules writes one payload per resolved module after a run.
func storeModules(cache *DiskCache, res *resolver.Result,
	names *source.Interner, hadErrors bool) {
	for _, m := range res.Modules {
		payload := &ModulePayload{
			Schema:      diskCacheSchemaVersion,
			Path:        m.Path,
			ContentHash: project.Digest(m.File.Hash),
			Broken:      hadErrors,
		}
		for _, itemID := range m.B.Files.Get(m.AST).Items {
			if imp := m.B.Items.Import(itemID); imp != nil {
				payload.ImportPaths = append(payload.ImportPaths, imp.Path)
			}
		}
		var caps sema.CapSet
		for _, req := range m.B.Files.Get(m.AST).Requires {
			if bit, ok := sema.CapByName(names.MustLookup(req.Name)); ok {
				caps |= bit
			}
		}
		payload.Requires = caps.Names()
		// Best effort; a failed write only costs the next warm start.
		_ = cache.Put(payload.ContentHash, payload)
	}
}

// runCacheKey identifies a run by its root paths and the options that
// change its diagnostics.
func runCacheKey(paths []string, opts Options) project.Digest {
	parts := make([]string, 0, len(paths)+2)
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		parts = append(parts, p)
	}
	parts = append(parts,
		fmt.Sprintf("strict=%t", opts.Strict),
		fmt.Sprintf("max=%d", opts.MaxDiagnostics))
	return project.DigestOf([]byte(strings.Join(parts, "\x00")))
}

func manifestDigest(m *project.Manifest) project.Digest {
	if m == nil {
		return project.Digest{}
	}
	data, err := os.ReadFile(filepath.Join(m.Root, project.ManifestName))
	if err != nil {
		return project.Digest{}
	}
	return project.DigestOf(data)
}

// replayRun attempts a warm start. When every file stamp of the cached
// run still matches on disk the recorded diagnostics are replayed into
// a fresh bag and the whole pipeline is skipped. Stamps are loaded in
// their recorded order, which reproduces the original FileIDs and keeps
// the cached spans valid.
func replayRun(cache *DiskCache, key project.Digest, baseDir string,
	opts Options, timer *observ.Timer) (*CheckResult, bool) {
	var payload RunPayload
	if ok, err := cache.GetRun(key, &payload); err != nil || !ok {
		return nil, false
	}
	if manifestDigest(opts.Manifest) != payload.ManifestHash {
		return nil, false
	}

	phase := timer.Begin("cache")
	fileSet := source.NewFileSetWithBase(baseDir)
	for _, stamp := range payload.Files {
		id, err := fileSet.Load(stamp.Path)
		if err != nil || project.Digest(fileSet.Get(id).Hash) != stamp.Hash {
			timer.End(phase, "stale")
			return nil, false
		}
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	for _, rd := range payload.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(rd.Severity),
			Code:     diag.Code(rd.Code),
			Message:  rd.Message,
			Primary: source.Span{
				File:  source.FileID(rd.File),
				Start: rd.Start,
				End:   rd.End,
			},
		}
		for _, n := range rd.Notes {
			d.Notes = append(d.Notes, diag.Note{
				Span: source.Span{File: source.FileID(n.File), Start: n.Start, End: n.End},
				Msg:  n.Msg,
			})
		}
		bag.Add(d)
	}
	timer.End(phase, pluralFiles(len(payload.Files)))

	return &CheckResult{
		FileSet:     fileSet,
		Strings:     source.NewInterner(),
		Bag:         bag,
		ModuleCount: payload.ModuleCount,
	}, true
}

// storeRun records the finished run for the next warm start. Runs that
// failed to read a file are not stored; the file may exist next time.
func storeRun(cache *DiskCache, key project.Digest, fileSet *source.FileSet,
	manifest *project.Manifest, moduleCount int, bag *diag.Bag) {
	payload := &RunPayload{
		Schema:       diskCacheSchemaVersion,
		ManifestHash: manifestDigest(manifest),
		ModuleCount:  moduleCount,
	}
	for id := source.FileID(0); int(id) < fileSet.Len(); id++ {
		f := fileSet.Get(id)
		if f.Flags&source.FileVirtual != 0 {
			return
		}
		payload.Files = append(payload.Files, FileStamp{
			Path: f.Path,
			Hash: project.Digest(f.Hash),
		})
	}
	for _, d := range bag.Items() {
		if d.Code == diag.IOLoadFileError {
			return
		}
		rd := RunDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			File:     uint32(d.Primary.File),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			rd.Notes = append(rd.Notes, RunNote{
				File:  uint32(n.Span.File),
				Start: n.Span.Start,
				End:   n.Span.End,
				Msg:   n.Msg,
			})
		}
		payload.Diagnostics = append(payload.Diagnostics, rd)
	}
	// Best effort, like the module payloads.
	_ = cache.PutRun(key, payload)
}
