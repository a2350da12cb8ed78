package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vmasm/pkg/asm"
)

func writeSources(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.asm", "b.asm", "c.asm", "d.asm"} {
		src, ok := files[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return dir, paths
}

func TestRun(t *testing.T) {
	dir, paths := writeSources(t, map[string]string{
		"a.asm": "start: MOV R1, 5\nJMP start\n",
		"b.asm": "JMP missing\n",
		"c.asm": "NOP\nHLT\n",
		"d.asm": "loop: ADD R1, R2\nJMP loop\n",
	})

	results, err := Run(context.Background(), paths, Options{Jobs: 2})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.Source != paths[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Source, paths[i])
		}
	}

	if !errors.Is(results[1].Err, asm.ErrUndefinedSymbol) {
		t.Errorf("b.asm error = %v, want undefined symbol", results[1].Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.bin")); !os.IsNotExist(err) {
		t.Errorf("b.bin written for a failed compile")
	}

	bin, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	if err != nil || len(bin) != 8 {
		t.Errorf("a.bin = % X, %v", bin, err)
	}
	sym, err := os.ReadFile(filepath.Join(dir, "a.sym"))
	if err != nil || string(sym) != "start -> 0\n" {
		t.Errorf("a.sym = %q, %v", sym, err)
	}
	if results[2].Size != 4 || results[2].NumSyms != 0 {
		t.Errorf("c.asm result = %+v", results[2])
	}
	if !strings.HasPrefix(results[0].String(), "ok") || !strings.HasPrefix(results[1].String(), "FAIL") {
		t.Errorf("result lines: %q, %q", results[0], results[1])
	}
}

func TestRunWhitelist(t *testing.T) {
	_, paths := writeSources(t, map[string]string{
		"a.asm": "MOV R1, 1\n",
		"b.asm": "JMP 0\n",
	})
	results, err := Run(context.Background(), paths, Options{Whitelist: asm.NewWhitelist("MOV")})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err != nil {
		t.Errorf("a.asm: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, asm.ErrDisallowedInstruction) {
		t.Errorf("b.asm error = %v, want disallowed instruction", results[1].Err)
	}
}

func TestRunMissingFile(t *testing.T) {
	dir, paths := writeSources(t, map[string]string{"a.asm": "NOP\n"})
	paths = append(paths, filepath.Join(dir, "nope.asm"))
	results, err := Run(context.Background(), paths, Options{Jobs: 1})
	if !os.IsNotExist(errors.Unwrap(err)) {
		t.Errorf("Run error = %v, want not-exist", err)
	}
	if results != nil {
		t.Errorf("results returned with an I/O error")
	}
}

func TestRunCancelled(t *testing.T) {
	_, paths := writeSources(t, map[string]string{"a.asm": "NOP\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, paths, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}
