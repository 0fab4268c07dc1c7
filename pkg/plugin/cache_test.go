package plugin

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
)

const calcManifest = `
name: calc
exec: calc
protocol: 1
commands:
  - name: add
    rest: {name: terms, shape: int}
`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "calc.yaml", calcManifest)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "calc" || m.Dir != dir {
		t.Errorf("loaded %+v", m)
	}
	if got := m.ExecPath(); got != filepath.Join(dir, "calc") {
		t.Errorf("ExecPath() = %q", got)
	}
}

func TestManifestFiles(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "b.yaml", calcManifest)
	writeManifest(t, dir, "a.yaml", calcManifest)
	writeManifest(t, dir, "ignored.txt", "not a manifest")

	files, err := ManifestFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.yaml" {
		t.Errorf("ManifestFiles() = %v", files)
	}

	// A missing directory simply has no plugins.
	files, err = ManifestFiles(filepath.Join(dir, "missing"))
	if err != nil || files != nil {
		t.Errorf("ManifestFiles(missing) = %v, %v", files, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "calc.yaml", calcManifest)
	// A broken manifest is skipped, not fatal.
	writeManifest(t, dir, "broken.yaml", "name: broken\nprotocol: 1")

	manifests, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(manifests) != 1 || manifests[0].Name != "calc" {
		t.Errorf("LoadDir() = %v", manifests)
	}
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "calc.yaml", calcManifest)

	cache, err := OpenCache(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	manifests, err := LoadDir(dir, cache)
	if err != nil || len(manifests) != 1 {
		t.Fatalf("LoadDir() = %v, %v", manifests, err)
	}

	// The validated manifest is now cached under the file's hash.
	sum := sha256.Sum256([]byte(calcManifest))
	cached, ok := cache.get(sum[:])
	if !ok || cached.Name != "calc" {
		t.Fatalf("cache.get = %v, %v", cached, ok)
	}
	// The cached form has no directory baked in; it is re-resolved per
	// load.
	if cached.Dir != "" {
		t.Errorf("cached manifest carries directory %q", cached.Dir)
	}

	// Loading again serves from the cache and restores Dir.
	manifests, err = LoadDir(dir, cache)
	if err != nil || len(manifests) != 1 {
		t.Fatalf("second LoadDir() = %v, %v", manifests, err)
	}
	if manifests[0].Dir != dir {
		t.Errorf("cached load has Dir %q, want %q", manifests[0].Dir, dir)
	}
}
