package target

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// buildFixture compiles _fixtures/<name>.go with optimizations and
// inlining disabled and returns the binary path. ptrace and the 0xCC
// trap byte are linux/amd64 specifics, so everything driving a real
// tracee is skipped elsewhere.
func buildFixture(t *testing.T, name string) string {
	t.Helper()
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skipf("tracing tests require linux/amd64, running on %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	fixturesDir := findFixturesDir(t)
	src := filepath.Join(fixturesDir, name+".go")

	r := make([]byte, 4)
	_, _ = rand.Read(r)
	bin := filepath.Join(t.TempDir(), fmt.Sprintf("%s.%s", name, hex.EncodeToString(r)))

	out, err := exec.Command("go", "build", "-gcflags=all=-N -l", "-o", bin, src).CombinedOutput()
	if err != nil {
		t.Fatalf("compile %s: %v\n%s", src, err, out)
	}
	return bin
}

func findFixturesDir(t *testing.T) string {
	t.Helper()
	fixturesDir := "_fixtures"
	for depth := 0; depth < 10; depth++ {
		if _, err := os.Stat(fixturesDir); err == nil {
			return fixturesDir
		}
		fixturesDir = filepath.Join("..", fixturesDir)
	}
	t.Fatal("cannot locate _fixtures directory")
	return ""
}
