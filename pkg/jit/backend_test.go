package jit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClangBackend_MissingClangIsReportedAsError(t *testing.T) {
	dir := t.TempDir()
	b := &ClangBackend{ClangPath: filepath.Join(dir, "no-such-clang"), WorkDir: dir}
	if _, err := b.Compile("define i32 @f() { ret i32 0 }"); err == nil {
		t.Fatalf("expected an error when clang cannot be found")
	}
}

func TestClangBackend_WritesIRToWorkDir(t *testing.T) {
	dir := t.TempDir()
	b := &ClangBackend{ClangPath: filepath.Join(dir, "no-such-clang"), WorkDir: dir}
	_, _ = b.Compile("define i32 @f() { ret i32 0 }")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.IsDir() {
			ll := filepath.Join(dir, e.Name(), "module.ll")
			if _, err := os.Stat(ll); err == nil {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected Compile to write module.ll under a work directory inside %s", dir)
	}
}

// fakeModule is an in-memory Module resolving symbols from a map, with no
// clang or dlopen behind it; the test below checks it satisfies Module.
type fakeModule struct {
	addrs map[string]uintptr
}

func (m *fakeModule) Handle() uintptr { return 0 }
func (m *fakeModule) FunctionAddress(name string) (uintptr, error) {
	a, ok := m.addrs[name]
	if !ok {
		return 0, errors.New("symbol not found")
	}
	return a, nil
}

func TestFakeModule_SatisfiesModuleInterface(t *testing.T) {
	var _ Module = &fakeModule{}
}
