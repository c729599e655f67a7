package sb3

import (
	"bytes"
	"io"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/diag"
	"github.com/goboscript/goboc/internal/invariant"
)

// emitter holds the mutable state one target's statement/expression/
// procedure sub-emitters share while walking its AST: the id factory, the
// diagnostic sink, the stage/sprite pair name resolution is scoped against,
// and the buffer the target's "blocks" object streams into (spec 4.1, 4.3).
//
// Per spec 5, nothing here is shared across targets: driver.go constructs a
// fresh emitter for every sprite and the Stage.
type emitter struct {
	buf  bytes.Buffer
	s    streamer
	ids  *IDFactory
	sink *diag.Sink

	stage  *ast.Sprite
	sprite *ast.Sprite
	comma  bool

	// argReporterIDs maps an in-scope callable's argument keys (basename,
	// or "field.basename" for a struct argument's expanded field) to the
	// block id of their argument_reporter_* shadow node. Populated while
	// emitting that callable's prelude (spec 4.8) and consulted by ArgRef.
	argReporterIDs map[string]NodeID
}

func newEmitter(sink *diag.Sink, ids *IDFactory, stage, sprite *ast.Sprite) *emitter {
	e := &emitter{ids: ids, sink: sink, stage: stage, sprite: sprite}
	e.s.w = &e.buf
	return e
}

func (e *emitter) blocksJSON() string {
	return e.buf.String()
}

func (e *emitter) scope() scope {
	return scope{stage: e.stage, sprite: e.sprite}
}

func (e *emitter) scopeInProc(proc *ast.Proc) scope {
	return scope{stage: e.stage, sprite: e.sprite, proc: proc}
}

func (e *emitter) scopeInFunc(fn *ast.Func) scope {
	return scope{stage: e.stage, sprite: e.sprite, fn: fn}
}

// must reports a failed write into the in-memory blocks buffer as an
// internal invariant violation: a bytes.Buffer write only fails if the
// runtime is out of memory, never because of anything the user's program
// did (spec 7, "ambient error handling").
func must(err error) {
	if err != nil {
		invariant.Invariant(false, "sb3: buffer write failed: %v", err)
	}
}

func (e *emitter) writeRaw(s string) {
	_, err := io.WriteString(e.s.w, s)
	must(err)
}

// mustWriteNode begins node, writes its inputs via writeInputs (if any),
// appends raw JSON fragments (mutation, single-field objects) in extra, and
// closes the object. The inputs are composed into a side buffer first, so
// any child nodes writeInputs emits land in the blocks map as complete
// siblings ahead of this node rather than inside its inputs object.
func (e *emitter) mustWriteNode(id NodeID, node Node, writeInputs func(inputsComma *bool), extra ...string) {
	outer := e.s.w
	defer func() { e.s.w = outer }()
	var inputs bytes.Buffer
	if writeInputs != nil {
		e.s.w = &inputs
		var inputsComma bool
		must(e.s.beginInputs(&inputsComma))
		writeInputs(&inputsComma)
		must(e.s.endInputs())
	}
	e.s.w = &e.buf
	must(e.s.beginNode(&e.comma, node))
	e.writeRaw(inputs.String())
	for _, fragment := range extra {
		e.writeRaw(fragment)
	}
	must(e.s.endObj())
}

// writeInput emits one named input slot whose payload is either an inline
// literal or a link to a freshly allocated reporter node (spec 4.7).
func (e *emitter) writeInput(sc scope, inputsComma *bool, parentID NodeID, name string, expr ast.Expr) {
	must(e.s.writeComma(inputsComma))
	payload := e.emitExpr(sc, parentID, expr)
	e.writeRaw(`"` + name + `":` + payload)
}
