// Package jit turns the textual LLVM IR pkg/compiler emits into a loaded
// shared object and resolves function addresses out of it (spec.md §6a-d),
// grounded on the teacher's own asm.Assemble→loadable-binary step
// (pkg/asm) but retargeted at a real toolchain: no cgo, just clang on
// $PATH and github.com/ebitengine/purego for the dynamic-loader calls.
package jit

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ebitengine/purego"
)

// Module is a compiled translation unit resolved into one process's
// address space. FunctionAddress is the contract spec.md §6b names
// directly; Handle exposes the underlying dlopen handle so pkg/host can
// hand it straight to purego.RegisterLibFunc, which resolves each symbol
// by name from that handle.
type Module interface {
	FunctionAddress(name string) (uintptr, error)
	Handle() uintptr
}

// Backend turns LLVM IR text into a Module. ClangBackend is the only
// implementation this module ships; the interface exists so a test can
// substitute a fake one without shelling out.
type Backend interface {
	Compile(irText string) (Module, error)
}

// ClangBackend invokes clang (named throughout original_source/epycc.py's
// invoke_clang as the reference toolchain) to turn one module's IR text
// into a shared object, then dlopens it.
type ClangBackend struct {
	// ClangPath overrides the "clang" found on $PATH, mainly for tests.
	ClangPath string
	// WorkDir is where the temporary .ll/.so files are written; defaults
	// to os.TempDir() when empty.
	WorkDir string
}

type clangModule struct {
	handle uintptr
	path   string
}

func (m *clangModule) Handle() uintptr { return m.handle }

func (m *clangModule) FunctionAddress(name string) (uintptr, error) {
	addr, err := purego.Dlsym(m.handle, name)
	if err != nil {
		return 0, fmt.Errorf("jit: symbol %q not found in %s: %w", name, m.path, err)
	}
	return addr, nil
}

func (b *ClangBackend) Compile(irText string) (Module, error) {
	dir := b.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	tmp, err := os.MkdirTemp(dir, "cjit-*")
	if err != nil {
		return nil, fmt.Errorf("jit: creating work dir: %w", err)
	}

	irPath := filepath.Join(tmp, "module.ll")
	if err := os.WriteFile(irPath, []byte(irText), 0o644); err != nil {
		return nil, fmt.Errorf("jit: writing IR: %w", err)
	}

	soPath := filepath.Join(tmp, "module.so")
	clangPath := b.ClangPath
	if clangPath == "" {
		clangPath = "clang"
	}
	cmd := exec.Command(clangPath, "-shared", "-fPIC", "-x", "ir", irPath, "-o", soPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("jit: clang failed: %w\n%s", err, out)
	}

	handle, err := purego.Dlopen(soPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("jit: dlopen %s: %w", soPath, err)
	}
	return &clangModule{handle: handle, path: soPath}, nil
}
