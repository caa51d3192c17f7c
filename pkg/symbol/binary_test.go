package symbol

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildFixture(t *testing.T) string {
	t.Helper()

	fixturesDir := "_fixtures"
	for depth := 0; depth < 10; depth++ {
		if _, err := os.Stat(fixturesDir); err == nil {
			break
		}
		fixturesDir = filepath.Join("..", fixturesDir)
	}

	src := filepath.Join(fixturesDir, "t1.go")
	bin := filepath.Join(t.TempDir(), "t1")

	out, err := exec.Command("go", "build", "-gcflags=all=-N -l", "-o", bin, src).CombinedOutput()
	if err != nil {
		t.Fatalf("compile %s: %v\n%s", src, err, out)
	}
	return bin
}

func TestAnalyze(t *testing.T) {
	bi, err := Analyze(buildFixture(t))
	require.NoError(t, err)
	require.NotEmpty(t, bi.Functions)
	require.NotEmpty(t, bi.Sources)
}

func TestFuncToPC(t *testing.T) {
	bi, err := Analyze(buildFixture(t))
	require.NoError(t, err)

	pc, err := bi.FuncToPC("main.third")
	require.NoError(t, err)
	require.NotZero(t, pc)

	fn, err := bi.PCToFunction(pc)
	require.NoError(t, err)
	require.Equal(t, "main.third", fn.Name())
	require.True(t, fn.ContainsPC(pc))

	_, err = bi.FuncToPC("no.such.function")
	require.Equal(t, ErrNotFound, err)
}

func TestFileLineToPC(t *testing.T) {
	bi, err := Analyze(buildFixture(t))
	require.NoError(t, err)

	// line 6 is the body of main.third; basename specs must resolve
	// against the full compile path recorded in the line table
	pc, err := bi.FileLineToPC("t1.go", 6)
	require.NoError(t, err)
	require.NotZero(t, pc)

	fn, err := bi.PCToFunction(pc)
	require.NoError(t, err)
	require.Equal(t, "main.third", fn.Name())

	_, err = bi.FileLineToPC("t1.go", 9999)
	require.Equal(t, ErrNotFound, err)
}

func TestPCToFileLine(t *testing.T) {
	bi, err := Analyze(buildFixture(t))
	require.NoError(t, err)

	pc, err := bi.FuncToPC("main.second")
	require.NoError(t, err)

	file, line, err := bi.PCToFileLine(pc)
	require.NoError(t, err)
	require.Equal(t, "t1.go", filepath.Base(file))
	require.NotZero(t, line)
}
