package sb3

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/cache"
	"github.com/goboscript/goboc/internal/diag"
	"github.com/stretchr/testify/require"
)

// loadFixture decodes testdata/cat.json and rebases its one costume path
// onto testdata/cat.png, mirroring what cmd/goboc's loadProject does.
func loadFixture(t *testing.T) *ast.Project {
	t.Helper()
	return loadFixtureFile(t, "cat.json")
}

// loadFixtureFile decodes the named file under testdata/ and rebases every
// sprite's costume paths onto files alongside it.
func loadFixtureFile(t *testing.T, name string) *ast.Project {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	proj, err := ast.DecodeProject(data)
	require.NoError(t, err)

	dir := filepath.Join("..", "..", "testdata")
	for _, spriteName := range proj.SpriteOrder {
		sprite := proj.Sprites[spriteName]
		for i, c := range sprite.Costumes {
			sprite.Costumes[i].Path = filepath.Join(dir, filepath.Base(c.Path))
		}
	}
	return proj
}

func TestEmitCatFixture(t *testing.T) {
	proj := loadFixture(t)

	var buf bytes.Buffer
	c, err := cache.Load(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	d := New(&buf, c)
	require.NoError(t, d.Emit(proj))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	var projectJSON []byte
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "project.json" {
			rc, err := f.Open()
			require.NoError(t, err)
			projectJSON, err = io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
		}
	}
	require.Contains(t, names, "project.json")
	require.Len(t, names, 2, "expected project.json plus one costume asset, got %v", names)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(projectJSON, &decoded))

	targets, ok := decoded["targets"].([]any)
	require.True(t, ok)
	require.Len(t, targets, 2, "expected a Stage target and a Cat target")

	stage := targets[0].(map[string]any)
	require.Equal(t, true, stage["isStage"])
	require.Equal(t, "Stage", stage["name"])

	cat := targets[1].(map[string]any)
	require.Equal(t, false, cat["isStage"])
	require.Equal(t, "Cat", cat["name"])

	vars, ok := cat["variables"].(map[string]any)
	require.True(t, ok)
	require.Len(t, vars, 1, "the Cat sprite declares exactly one scalar variable")

	costumes, ok := cat["costumes"].([]any)
	require.True(t, ok)
	require.Len(t, costumes, 1)
	costume := costumes[0].(map[string]any)
	require.Equal(t, "c", costume["name"])

	blocks, ok := cat["blocks"].(map[string]any)
	require.True(t, ok)
	require.NotEmpty(t, blocks, "on_flag event should have produced at least a hat block")

	// Every block's parent, if set, must itself be a key in blocks — the
	// streaming emitter never forward-references an id it hasn't assigned.
	for id, raw := range blocks {
		b := raw.(map[string]any)
		if parent, ok := b["parent"]; ok && parent != nil {
			parentID, ok := parent.(string)
			require.True(t, ok, "block %s has non-string parent", id)
			_, exists := blocks[parentID]
			require.True(t, exists, "block %s references missing parent %s", id, parentID)
		}
		if next, ok := b["next"]; ok && next != nil {
			nextID, ok := next.(string)
			require.True(t, ok, "block %s has non-string next", id)
			_, exists := blocks[nextID]
			require.True(t, exists, "block %s references missing next %s", id, nextID)
		}
	}

	require.Empty(t, d.Sinks["Cat"].Diagnostics, "fixture should compile with no diagnostics")
}

func TestEmitCatFixtureNoCostumeChanged(t *testing.T) {
	// Emitting the same project twice with a warm cache must produce an
	// identical asset hash for the unchanged costume file.
	proj1 := loadFixture(t)
	proj2 := loadFixture(t)

	cachePath := filepath.Join(t.TempDir(), "cache")
	c1, err := cache.Load(cachePath)
	require.NoError(t, err)

	var buf1 bytes.Buffer
	d1 := New(&buf1, c1)
	require.NoError(t, d1.Emit(proj1))
	require.NoError(t, c1.Save())

	c2, err := cache.Load(cachePath)
	require.NoError(t, err)
	var buf2 bytes.Buffer
	d2 := New(&buf2, c2)
	require.NoError(t, d2.Emit(proj2))

	assetName := func(buf *bytes.Buffer) string {
		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		for _, f := range zr.File {
			if f.Name != "project.json" {
				return f.Name
			}
		}
		t.Fatal("no asset entry found")
		return ""
	}

	require.Equal(t, assetName(&buf1), assetName(&buf2))
}

// TestDeadCodeIsElided exercises the used/unused filtering that gates both
// declaration expansion (DeclareVars/DeclareLists) and callable block
// emission (writeTarget): a declared-but-unused proc, func, var, and list
// must neither appear in the emitted blocks/variables/lists, nor stop the
// corresponding Unused* diagnostic from firing.
func TestDeadCodeIsElided(t *testing.T) {
	proj := loadFixtureFile(t, "dead_code.json")

	var buf bytes.Buffer
	c, err := cache.Load(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	d := New(&buf, c)
	require.NoError(t, d.Emit(proj))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var projectJSON []byte
	for _, f := range zr.File {
		if f.Name == "project.json" {
			rc, err := f.Open()
			require.NoError(t, err)
			projectJSON, err = io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
		}
	}
	require.NotNil(t, projectJSON)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(projectJSON, &decoded))
	targets := decoded["targets"].([]any)
	require.Len(t, targets, 2)
	widget := targets[1].(map[string]any)
	require.Equal(t, "Widget", widget["name"])

	vars := widget["variables"].(map[string]any)
	_, hasUsedVar := vars["used_var"]
	_, hasDeadVar := vars["dead_var"]
	require.True(t, hasUsedVar, "used_var must be declared")
	require.False(t, hasDeadVar, "dead_var is unused and must not be declared")

	lists := widget["lists"].(map[string]any)
	_, hasUsedList := lists["used_list"]
	_, hasDeadList := lists["dead_list"]
	require.True(t, hasUsedList, "used_list must be declared")
	require.False(t, hasDeadList, "dead_list is unused and must not be declared")

	blocksJSON, err := json.Marshal(widget["blocks"])
	require.NoError(t, err)
	blocks := string(blocksJSON)
	require.Contains(t, blocks, `"used"`, "used_proc's body must be emitted")
	require.Contains(t, blocks, `"used fn"`, "used_func's body must be emitted")
	require.NotContains(t, blocks, `"dead"`, "dead_proc's body must not be emitted")
	require.NotContains(t, blocks, `"dead fn"`, "dead_func's body must not be emitted")

	diags := d.Sinks["Widget"].Diagnostics
	var sawUnusedProc, sawUnusedFunc bool
	for _, diagnostic := range diags {
		if diagnostic.Kind == diag.UnusedProc && diagnostic.Name == "dead_proc" {
			sawUnusedProc = true
		}
		if diagnostic.Kind == diag.UnusedFunc && diagnostic.Name == "dead_func" {
			sawUnusedFunc = true
		}
	}
	require.True(t, sawUnusedProc, "dead_proc should still be diagnosed as unused")
	require.True(t, sawUnusedFunc, "dead_func should still be diagnosed as unused")
}
