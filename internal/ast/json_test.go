package ast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDecodeProjectIsDeterministic(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "cat.json"))
	require.NoError(t, err)

	p1, err := DecodeProject(data)
	require.NoError(t, err)
	p2, err := DecodeProject(data)
	require.NoError(t, err)

	// Compare the plain-data parts of the tree (Var/Type/Name, which carry
	// only exported fields) rather than the whole Project: Stmt/Expr are
	// tagged-sum interfaces backed by structs with an unexported span
	// field, which cmp refuses to traverse without per-type options.
	v1, v2 := p1.Sprites["Cat"].Vars["x"], p2.Sprites["Cat"].Vars["x"]
	if diff := cmp.Diff(v1.Type, v2.Type); diff != "" {
		t.Fatalf("decoding the same document twice produced different variable types (-first +second):\n%s", diff)
	}

	n1 := p1.Sprites["Cat"].Events[0].Body[0].(*SetVar).Name
	n2 := p2.Sprites["Cat"].Events[0].Body[0].(*SetVar).Name
	if diff := cmp.Diff(n1, n2); diff != "" {
		t.Fatalf("decoding the same document twice produced different assigned-to names (-first +second):\n%s", diff)
	}
}

func TestDecodeProjectCatFixtureShape(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "cat.json"))
	require.NoError(t, err)

	proj, err := DecodeProject(data)
	require.NoError(t, err)

	require.Equal(t, StageName, proj.Stage.Name)
	require.Equal(t, []string{"Cat"}, proj.SpriteOrder)

	cat := proj.Sprites["Cat"]
	require.NotNil(t, cat)
	require.Len(t, cat.Vars, 1)
	require.NotNil(t, cat.Vars["x"])
	require.Len(t, cat.Events, 1)
	require.Equal(t, EventOnFlag, cat.Events[0].Kind.Tag)
	require.Len(t, cat.Events[0].Body, 2)

	// The on_flag event's threshold value is a JSON null, not an absent
	// field: decoding it must not panic and must leave Value nil.
	require.Nil(t, cat.Events[0].Kind.Value)
}

func TestDecodeEventValueNull(t *testing.T) {
	const doc = `{
    "stage": {"name": "Stage", "vars": [], "lists": [], "structs": [], "enums": [],
      "procs": [], "funcs": [],
      "events": [{"kind": {"tag": "on_flag", "value": null}, "body": [], "span": {"start": 0, "end": 0}}],
      "costumes": [],
      "used_procs": [], "used_funcs": [], "proc_used_args": {}, "func_used_args": {},
      "proc_definitions": {}, "func_definitions": {}},
    "sprites": []
  }`
	proj, err := DecodeProject([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "Stage", proj.Stage.Name)
	require.Len(t, proj.Stage.Events, 1)
	require.Nil(t, proj.Stage.Events[0].Kind.Value)
}
