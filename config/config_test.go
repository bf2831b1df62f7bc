package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	xerrors "github.com/bindcraft/winmd-gen/errors"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "gen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validManifest = `
include = ["inc"]
compiler-args = ["-D_GNU_SOURCE"]

[output]
assembly = "demo"

[[partition]]
namespace = "demo.core"
library = "libdemo"
headers = ["demo.h"]
compiler-args = ["-DCORE"]
`

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "inc"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "inc", "demo.h"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(writeManifest(t, dir, validManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Output.File != "demo.winmd" {
		t.Errorf("output file: got %q, want demo.winmd", cfg.Output.File)
	}
	if want := filepath.Join(dir, "inc"); len(cfg.Include) != 1 || cfg.Include[0] != want {
		t.Errorf("include: got %v, want [%s]", cfg.Include, want)
	}

	p := &cfg.Partitions[0]
	if len(p.Traverse) != 1 || p.Traverse[0] != "demo.h" {
		t.Errorf("traverse should default to headers, got %v", p.Traverse)
	}

	resolved, err := cfg.ResolveHeader("demo.h")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := filepath.Join(dir, "inc", "demo.h"); resolved != want {
		t.Errorf("resolved to %q, want %q", resolved, want)
	}
}

func TestLoadNamespaceOverrides(t *testing.T) {
	manifest := validManifest + `
[namespace-overrides]
uid_t = "demo.types"
pid_t = "demo.types"
`
	cfg, err := Load(writeManifest(t, t.TempDir(), manifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.NamespaceOverrides) != 2 || cfg.NamespaceOverrides["uid_t"] != "demo.types" {
		t.Errorf("overrides: %v", cfg.NamespaceOverrides)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{
			"missing assembly",
			`[[partition]]
namespace = "demo"
library = "libdemo"
headers = ["demo.h"]`,
		},
		{
			"no partitions",
			`[output]
assembly = "demo"`,
		},
		{
			"missing namespace",
			`[output]
assembly = "demo"
[[partition]]
library = "libdemo"
headers = ["demo.h"]`,
		},
		{
			"missing library",
			`[output]
assembly = "demo"
[[partition]]
namespace = "demo"
headers = ["demo.h"]`,
		},
		{
			"missing headers",
			`[output]
assembly = "demo"
[[partition]]
namespace = "demo"
library = "libdemo"`,
		},
		{
			"duplicate namespace",
			`[output]
assembly = "demo"
[[partition]]
namespace = "demo"
library = "liba"
headers = ["a.h"]
[[partition]]
namespace = "demo"
library = "libb"
headers = ["b.h"]`,
		},
		{
			"import without file",
			`[output]
assembly = "demo"
[[partition]]
namespace = "demo"
library = "libdemo"
headers = ["demo.h"]
[[type-import]]
namespace = "ext"`,
		},
	}
	want := &xerrors.Error{Phase: xerrors.PhaseConfig, Kind: xerrors.KindInvalidInput}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeManifest(t, t.TempDir(), tt.manifest))
			if !errors.Is(err, want) {
				t.Errorf("got %v, want config invalid_input error", err)
			}
		})
	}
}

func TestLoadBadTOML(t *testing.T) {
	_, err := Load(writeManifest(t, t.TempDir(), "[output\nassembly = "))
	if !errors.Is(err, &xerrors.Error{Phase: xerrors.PhaseConfig, Kind: xerrors.KindInvalidInput}) {
		t.Errorf("got %v, want config invalid_input error", err)
	}
}

func TestResolveHeaderMissing(t *testing.T) {
	cfg := &Config{Include: []string{t.TempDir()}}
	_, err := cfg.ResolveHeader("nope.h")
	if !errors.Is(err, &xerrors.Error{Phase: xerrors.PhaseConfig, Kind: xerrors.KindNotFound}) {
		t.Errorf("got %v, want config not_found error", err)
	}
}

func TestCompilerFlags(t *testing.T) {
	cfg := &Config{
		Include:      []string{"/usr/include/demo"},
		CompilerArgs: []string{"-D_GNU_SOURCE"},
		Partitions: []Partition{{
			Namespace:    "demo",
			CompilerArgs: []string{"-DCORE"},
		}},
	}
	got := cfg.CompilerFlags(&cfg.Partitions[0])
	want := []string{"-I/usr/include/demo", "-D_GNU_SOURCE", "-DCORE"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("flag %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
