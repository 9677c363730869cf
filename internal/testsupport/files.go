package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteCard lays out a mounted card at root with the named files under
// DCIM/100TEST, each holding its own name as content. It returns the file
// paths in the order given.
func WriteCard(t testing.TB, root string, names ...string) []string {
	t.Helper()

	dir := filepath.Join(root, "DCIM", "100TEST")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte(name), 0o644); err != nil {
			t.Fatalf("write %s: %v", paths[i], err)
		}
	}
	return paths
}
