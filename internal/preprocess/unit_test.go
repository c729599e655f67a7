package preprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPreProcessNoDirectivesIsIdentity(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.gs", "costumes \"a.png\";\n")

	u, err := New(path)
	require.NoError(t, err)
	before := u.Text()
	diags := u.PreProcess()
	require.Empty(t, diags)
	require.Equal(t, before, u.Text())
}

func TestIncludeCycleIncludesContentOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.gs", "%include b\nsay \"a\";\n")
	writeFile(t, dir, "b.gs", "%include a\nsay \"b\";\n")

	u, err := New(filepath.Join(dir, "a.gs"))
	require.NoError(t, err)
	diags := u.PreProcess()
	require.Empty(t, diags)

	text := u.Text()
	require.Equal(t, 1, countOccurrences(text, `say "a"`))
	require.Equal(t, 1, countOccurrences(text, `say "b"`))
}

func TestIncludeMissingFileReportsIOError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.gs", "%include missing\nsay \"hi\";\n")

	u, err := New(filepath.Join(dir, "main.gs"))
	require.NoError(t, err)
	diags := u.PreProcess()
	require.Len(t, diags, 1)
}

func TestDefineUndefIfEquivalence(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.gs", "%define X\n%undef X\n%if X\nsay \"hidden\";\n%endif\n")
	b := writeFile(t, dir, "b.gs", "%if X\nsay \"hidden\";\n%endif\n")

	ua, err := New(a)
	require.NoError(t, err)
	ua.PreProcess()

	ub, err := New(b)
	require.NoError(t, err)
	ub.PreProcess()

	require.Contains(t, ua.Text(), "#ay \"hidden\";")
	require.Contains(t, ub.Text(), "#ay \"hidden\";")
}

func TestTranslatePositionRoundTrips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.gs", "say \"from lib\";\n")
	writeFile(t, dir, "main.gs", "%include lib\nsay \"from main\";\n")

	u, err := New(filepath.Join(dir, "main.gs"))
	require.NoError(t, err)
	diags := u.PreProcess()
	require.Empty(t, diags)

	text := u.Text()
	idx := indexOf(text, "from lib")
	require.GreaterOrEqual(t, idx, 0)

	file, offset := u.TranslatePosition(idx)
	require.Equal(t, filepath.Join(dir, "lib.gs"), file)
	require.GreaterOrEqual(t, offset, 0)
}

// TestTranslatePositionAfterIncludeTail guards the bottom-segment shift in
// include: a position in the includer's own text that falls after the
// %include line (not inside the included file) must still resolve back to
// the includer, at the offset it had before splicing — not to the included
// file, and not to a stale pre-shift offset.
func TestTranslatePositionAfterIncludeTail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.gs", "say \"from lib\";\n")
	mainSrc := "%include lib\nsay \"from main\";\n"
	writeFile(t, dir, "main.gs", mainSrc)

	u, err := New(filepath.Join(dir, "main.gs"))
	require.NoError(t, err)
	diags := u.PreProcess()
	require.Empty(t, diags)

	text := u.Text()
	idx := indexOf(text, "from main")
	require.GreaterOrEqual(t, idx, 0)

	file, offset := u.TranslatePosition(idx)
	require.Equal(t, filepath.Join(dir, "main.gs"), file)

	wantOffset := indexOf(mainSrc, "from main")
	require.Equal(t, wantOffset, offset)
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
