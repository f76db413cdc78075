package qr

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestBuiltinWritePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")

	if err := (Builtin{}).WritePNG("P-0042", path); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != b.Dy() {
		t.Errorf("expected square image, got %dx%d", b.Dx(), b.Dy())
	}
	if b.Dx()%PointSize != 0 {
		t.Errorf("expected width to be a multiple of %d, got %d", PointSize, b.Dx())
	}
	if modules := b.Dx()/PointSize - 2*Margin; modules < 21 {
		t.Errorf("expected at least 21 modules, got %d", modules)
	}
	// quiet zone corner stays white
	if r, g, bl, _ := img.At(0, 0).RGBA(); r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Errorf("expected white margin at origin")
	}
	// finder pattern starts right after the margin
	if r, _, _, _ := img.At(Margin*PointSize, Margin*PointSize).RGBA(); r != 0 {
		t.Errorf("expected dark finder module after margin")
	}
}

func TestBuiltinDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")

	r := Builtin{}
	for path, text := range map[string]string{a: "same", b: "same", c: "different"} {
		if err := r.WritePNG(text, path); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	dc, _ := os.ReadFile(c)
	if !bytes.Equal(da, db) {
		t.Error("expected identical output for identical text")
	}
	if bytes.Equal(da, dc) {
		t.Error("expected different output for different text")
	}
}

func TestBuiltinEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := (Builtin{}).WritePNG("", path); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestExecNotFound(t *testing.T) {
	dir := t.TempDir()
	e := NewExec([]string{filepath.Join(dir, "missing"), filepath.Join(dir, "also-missing")})

	err := e.Check()
	if !errors.Is(err, ErrLibraryNotFound) {
		t.Fatalf("expected ErrLibraryNotFound, got %v", err)
	}
	if err := e.WritePNG("x", filepath.Join(dir, "x.png")); !errors.Is(err, ErrLibraryNotFound) {
		t.Errorf("expected ErrLibraryNotFound from WritePNG, got %v", err)
	}
}

func TestExecLocateSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain")
	bin := filepath.Join(dir, "qrencode")
	os.WriteFile(plain, []byte("not a binary"), 0o644)
	os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755)

	got, err := NewExec([]string{plain, dir, bin}).Locate()
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if got != bin {
		t.Errorf("expected %s, got %s", bin, got)
	}
}

// fakeQrencode installs a shell script standing in for qrencode. It records
// its arguments and stdin in dir and writes "png" to the -o target.
func fakeQrencode(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	bin := filepath.Join(dir, "qrencode")
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > '" + filepath.Join(dir, "args") + "'\n" +
		"cat > '" + filepath.Join(dir, "stdin") + "'\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = -o ]; then printf png > \"$2\"; fi\n" +
		"  shift\n" +
		"done\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return bin
}

func TestExecWritePNG(t *testing.T) {
	dir := t.TempDir()
	bin := fakeQrencode(t, dir)
	out := filepath.Join(dir, "out.png")

	e := NewExec([]string{filepath.Join(dir, "missing"), bin})
	if err := e.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := e.WritePNG("P-0042 line\nsecond", out); err != nil {
		t.Fatalf("write: %v", err)
	}

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	want := []string{"-t", "PNG", "-l", "L", "-s", "3", "-m", "2", "-o", out}
	got := strings.Split(strings.TrimSuffix(string(args), "\n"), "\n")
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("expected args %q, got %q", want, got)
	}

	stdin, err := os.ReadFile(filepath.Join(dir, "stdin"))
	if err != nil {
		t.Fatalf("read stdin: %v", err)
	}
	if string(stdin) != "P-0042 line\nsecond" {
		t.Errorf("expected text on stdin, got %q", stdin)
	}

	if b, err := os.ReadFile(out); err != nil || string(b) != "png" {
		t.Errorf("expected output file written, got %q, %v", b, err)
	}
}

func TestExecWritePNGFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "qrencode")
	script := "#!/bin/sh\necho 'input data too large' >&2\nexit 3\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	err := NewExec([]string{bin}).WritePNG("x", filepath.Join(dir, "x.png"))
	if err == nil {
		t.Fatal("expected error from failing qrencode")
	}
	if errors.Is(err, ErrLibraryNotFound) {
		t.Errorf("expected a run error, got %v", err)
	}
	if !strings.Contains(err.Error(), "qrencode") || !strings.Contains(err.Error(), "input data too large") {
		t.Errorf("expected stderr in error, got %v", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("expected wrapped exit status 3, got %v", err)
	}
}

func TestNewBackends(t *testing.T) {
	if r, err := New(Options{}); err != nil || r == nil {
		t.Errorf("expected builtin renderer by default, got %v, %v", r, err)
	}
	if _, ok := mustNew(t, Options{Backend: "qrencode"}).(*Exec); !ok {
		t.Error("expected *Exec for qrencode backend")
	}
	if _, err := New(Options{Backend: "gd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func mustNew(t *testing.T, opts Options) Renderer {
	t.Helper()
	r, err := New(opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return r
}
