package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quill/internal/diag"
	"quill/internal/driver"
	"quill/internal/project"
	"quill/internal/token"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func countCode(bag *diag.Bag, code diag.Code) int {
	n := 0
	for _, d := range bag.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestTokenize(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return 1\n"})
	result, err := driver.Tokenize(filepath.Join(dir, "main.ql"), 0)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if result.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.Bag.Items())
	}
	if len(result.Tokens) == 0 || result.Tokens[len(result.Tokens)-1].Kind != token.EOF {
		t.Fatalf("token stream must end with EOF")
	}
}

func TestParseRecoversAndReports(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.ql": "fn ???\nfn ok() -> Int:\n  return 1\n"})
	result, err := driver.Parse(filepath.Join(dir, "main.ql"), 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !result.Bag.HasErrors() {
		t.Fatalf("syntax errors must be reported")
	}
	if result.Builder.Files.Get(result.FileID) == nil {
		t.Fatalf("a file node must exist despite errors")
	}
}

func TestCheckPipeline(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.ql": "import {User} from \"models\"\nfn head(u: User) -> Id:\n  return u.id\n",
		"models.ql": "type User:\n  id: Id\n",
	})
	result, err := driver.Check(context.Background(),
		[]string{filepath.Join(dir, "main.ql")}, driver.Options{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", result.Bag.Items())
	}
	if len(result.Res.Modules) != 2 {
		t.Fatalf("modules: %d", len(result.Res.Modules))
	}
	if result.Program == nil || len(result.Program.Modules) != 2 {
		t.Fatalf("canonical program missing modules")
	}
}

func TestCheckTimings(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return 1\n"})
	result, err := driver.Check(context.Background(),
		[]string{filepath.Join(dir, "main.ql")}, driver.Options{Timings: true})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if countCode(result.Bag, diag.ObsTimings) != 1 {
		t.Fatalf("timings diagnostic missing")
	}
	if len(result.Timing.Phases) == 0 {
		t.Fatalf("timing report empty")
	}
}

func TestCheckStrictMode(t *testing.T) {
	src := map[string]string{
		"main.ql": "type DbError:\n  msg: String\ntype NetError:\n  msg: String\n" +
			"fn load() -> Int!DbError:\n  return 1\nfn fetch() -> Int!NetError:\n  return 2\n" +
			"fn f() -> Int!:\n  let x = load() ?!\n  let y = fetch() ?!\n  return x + y\n",
	}

	dir := writeFiles(t, src)
	paths := []string{filepath.Join(dir, "main.ql")}

	relaxed, err := driver.Check(context.Background(), paths, driver.Options{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if countCode(relaxed.Bag, diag.SafMixedErrorDomain) != 0 {
		t.Fatalf("strict-only check fired without strict mode")
	}

	strict, err := driver.Check(context.Background(), paths, driver.Options{Strict: true})
	if err != nil {
		t.Fatalf("Check strict: %v", err)
	}
	if countCode(strict.Bag, diag.SafMixedErrorDomain) != 1 {
		t.Fatalf("strict mode must flag mixed error domains")
	}
}

func TestCheckManifestLanguageConstraint(t *testing.T) {
	manifest, err := project.Parse([]byte("[package]\nname = \"x\"\nlanguage = \"^9.0\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return 1\n"})
	manifest.Root = dir

	result, err := driver.Check(context.Background(),
		[]string{filepath.Join(dir, "main.ql")}, driver.Options{Manifest: manifest})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if countCode(result.Bag, diag.PrjLanguageVersion) != 1 {
		t.Fatalf("language constraint violation missing")
	}
}

func TestCheckCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return 1\n"})
	if _, err := driver.Check(ctx, []string{filepath.Join(dir, "main.ql")}, driver.Options{}); err == nil {
		t.Fatalf("cancelled context must abort the pipeline")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := project.DigestOf([]byte("fn f() -> Int:\n  return 1\n"))
	in := &driver.ModulePayload{
		Schema:      1,
		Path:        "/proj/main.ql",
		ImportPaths: []string{"models"},
		Requires:    []string{"time"},
		ContentHash: key,
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out driver.ModulePayload
	hit, err := cache.Get(key, &out)
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if out.Path != in.Path || len(out.Requires) != 1 || out.Requires[0] != "time" {
		t.Errorf("payload mismatch: %+v", out)
	}

	var miss driver.ModulePayload
	if hit, err := cache.Get(project.DigestOf([]byte("other")), &miss); err != nil || hit {
		t.Errorf("unknown key must miss: hit=%v err=%v", hit, err)
	}
}

func TestCheckWritesCache(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	content := "requires time\nfn tick() -> Int:\n  return now()\n"
	dir := writeFiles(t, map[string]string{"main.ql": content})

	if _, err := driver.Check(context.Background(),
		[]string{filepath.Join(dir, "main.ql")}, driver.Options{Cache: cache}); err != nil {
		t.Fatalf("Check: %v", err)
	}

	var payload driver.ModulePayload
	hit, err := cache.Get(project.DigestOf([]byte(content)), &payload)
	if err != nil || !hit {
		t.Fatalf("cached payload missing: hit=%v err=%v", hit, err)
	}
	if payload.Broken {
		t.Errorf("clean module marked broken")
	}
	if len(payload.Requires) != 1 || payload.Requires[0] != "time" {
		t.Errorf("requires: %v", payload.Requires)
	}
}

func TestCheckWarmStartReplaysDiagnostics(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return nope\n"})
	paths := []string{filepath.Join(dir, "main.ql")}
	opts := driver.Options{Cache: cache}

	cold, err := driver.Check(context.Background(), paths, opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if cold.Res == nil {
		t.Fatalf("first run must run the pipeline")
	}

	warm, err := driver.Check(context.Background(), paths, opts)
	if err != nil {
		t.Fatalf("Check warm: %v", err)
	}
	if warm.Res != nil {
		t.Fatalf("unchanged project must replay from cache")
	}
	if warm.ModuleCount != cold.ModuleCount {
		t.Errorf("module count: warm %d, cold %d", warm.ModuleCount, cold.ModuleCount)
	}
	if countCode(warm.Bag, diag.ResUnresolvedName) != 1 {
		t.Fatalf("replayed diagnostics: %v", warm.Bag.Items())
	}
	if warm.Bag.Items()[0].Primary != cold.Bag.Items()[0].Primary {
		t.Errorf("replayed span drifted: %v versus %v",
			warm.Bag.Items()[0].Primary, cold.Bag.Items()[0].Primary)
	}
}

func TestCheckWarmStartInvalidatedByEdit(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return nope\n"})
	paths := []string{filepath.Join(dir, "main.ql")}
	opts := driver.Options{Cache: cache}

	if _, err := driver.Check(context.Background(), paths, opts); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := os.WriteFile(paths[0], []byte("fn f() -> Int:\n  return 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fresh, err := driver.Check(context.Background(), paths, opts)
	if err != nil {
		t.Fatalf("Check after edit: %v", err)
	}
	if fresh.Res == nil {
		t.Fatalf("an edited file must re-run the pipeline")
	}
	if fresh.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", fresh.Bag.Items())
	}
}

func TestListSourceFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.ql":        "fn b() -> Int:\n  return 1\n",
		"sub/a.ql":    "fn a() -> Int:\n  return 1\n",
		"ignored.txt": "x",
	})
	files, err := driver.ListSourceFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files: %v", files)
	}
	if filepath.Base(files[0]) != "b.ql" || filepath.Base(files[1]) != "a.ql" {
		t.Errorf("order: %v", files)
	}
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.ql": "fn f() -> Int:\n  return 1\n"})
	runs := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- driver.Watch(ctx, dir, driver.WatchOptions{Debounce: 20 * time.Millisecond}, func() {
			runs <- struct{}{}
		})
	}()

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("initial run missing")
	}

	if err := os.WriteFile(filepath.Join(dir, "main.ql"),
		[]byte("fn f() -> Int:\n  return 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("change did not trigger a rerun")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancellation")
	}
}
