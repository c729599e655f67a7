package sb3

import (
	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/diag"
)

// callArgNames expands a callable's declared parameters into the flat
// argument-name list a mutation object and a call site's inputs are keyed
// by: one name per scalar arg, one "{field}.{arg}" name per struct-arg
// field (spec 4.8, mirroring the var expansion convention of 4.5).
func callArgNames(sink *diag.Sink, stage, sprite *ast.Sprite, args []ast.Arg) []string {
	var out []string
	for _, a := range args {
		switch a.Type.Kind {
		case ast.TypeValue:
			out = append(out, a.Name)
		case ast.TypeStruct:
			st := lookupStruct(stage, sprite, a.Type.Name)
			if st == nil {
				sink.Report(diag.Diagnostic{Kind: diag.UnrecognizedStruct, Span: a.Type.Span, StructName: a.Type.Name})
				continue
			}
			for _, field := range st.Fields {
				out = append(out, qualifyStructVarName(field, a.Name))
			}
		}
	}
	return out
}

func (e *emitter) lookupFunc(name string) (*ast.Func, bool) {
	if fn, ok := e.sprite.Funcs[name]; ok {
		return fn, true
	}
	if e.stage != nil {
		if fn, ok := e.stage.Funcs[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (e *emitter) lookupProc(name string) (*ast.Proc, bool) {
	if p, ok := e.sprite.Procs[name]; ok {
		return p, true
	}
	if e.stage != nil {
		if p, ok := e.stage.Procs[name]; ok {
			return p, true
		}
	}
	return nil, false
}

func (e *emitter) funcNames() []string {
	var out []string
	for name := range e.sprite.Funcs {
		out = append(out, name)
	}
	if e.stage != nil {
		for name := range e.stage.Funcs {
			out = append(out, name)
		}
	}
	return out
}

func (e *emitter) procNames() []string {
	var out []string
	for name := range e.sprite.Procs {
		out = append(out, name)
	}
	if e.stage != nil {
		for name := range e.stage.Procs {
			out = append(out, name)
		}
	}
	return out
}

// writeCallArgs renders one input per declared-parameter expansion, reading
// struct-typed call arguments from the matching StructLiteral's fields (a
// plain Value/NameExpr etc. is invalid for a struct parameter and simply
// contributes no inputs — upstream type-checking is out of scope).
func (e *emitter) writeCallArgs(sc scope, parentID NodeID, inputsComma *bool, params []ast.Arg, callArgs []ast.Expr) {
	for i, param := range params {
		if i >= len(callArgs) {
			break
		}
		switch param.Type.Kind {
		case ast.TypeValue:
			e.writeInput(sc, inputsComma, parentID, param.Name, callArgs[i])
		case ast.TypeStruct:
			st := lookupStruct(e.stage, e.sprite, param.Type.Name)
			if st == nil {
				continue
			}
			lit, ok := callArgs[i].(*ast.StructLiteral)
			for _, field := range st.Fields {
				name := qualifyStructVarName(field, param.Name)
				if !ok {
					continue
				}
				fieldExpr, ok := lit.Fields[field]
				if !ok {
					continue
				}
				e.writeInput(sc, inputsComma, parentID, name, fieldExpr)
			}
		}
	}
}

// argReporterPrelude allocates one argument_reporter_string_number shadow
// node per expanded parameter name, parented to protoID, and returns their
// ids in expansion order alongside the argReporterIDs map the body's ArgRef
// lookups consult (spec 4.8).
func (e *emitter) argReporterPrelude(protoID NodeID, params []ast.Arg) (names []string, ids []NodeID) {
	e.argReporterIDs = map[string]NodeID{}
	for _, param := range params {
		switch param.Type.Kind {
		case ast.TypeValue:
			id := e.ids.New()
			e.argReporterIDs[param.Name] = id
			e.writeArgReporter(id, protoID, param.Name)
			names = append(names, param.Name)
			ids = append(ids, id)
		case ast.TypeStruct:
			st := lookupStruct(e.stage, e.sprite, param.Type.Name)
			if st == nil {
				e.sink.Report(diag.Diagnostic{Kind: diag.UnrecognizedStruct, Span: param.Type.Span, StructName: param.Type.Name})
				continue
			}
			for _, field := range st.Fields {
				key := qualifyStructVarName(field, param.Name)
				id := e.ids.New()
				e.argReporterIDs[key] = id
				e.writeArgReporter(id, protoID, key)
				names = append(names, key)
				ids = append(ids, id)
			}
		}
	}
	return names, ids
}

func (e *emitter) writeArgReporter(id, protoID NodeID, displayName string) {
	node := newNode("argument_reporter_string_number", id).withParentID(&protoID).asShadow()
	must(e.s.beginNode(&e.comma, node))
	must(e.s.singleField("VALUE", displayName))
	must(e.s.endObj())
}

// emitCallable writes a callable's two-block prelude — procedures_definition
// linked to a procedures_prototype shadow carrying the mutation — then the
// body, and returns the definition's own id (a top-level block; driver.go
// chains nothing after it).
func (e *emitter) emitCallable(name string, params []ast.Arg, warp bool, body []ast.Stmt, sc scope) NodeID {
	defID := e.ids.New()
	protoID := e.ids.New()

	argNames, argIDs := e.argReporterPrelude(protoID, params)

	protoNode := newNode("procedures_prototype", protoID).withParentID(&defID).asShadow()
	e.mustWriteNode(protoID, protoNode, func(inputsComma *bool) {
		for i, id := range argIDs {
			must(e.s.writeComma(inputsComma))
			e.writeRaw(`"` + argNames[i] + `":[1,` + id.String() + `]`)
		}
	}, mutationPrototype(name, argNames, argIDs, warp))

	defNode := newNode("procedures_definition", defID).asTopLevel()
	firstBodyID := e.stmts(sc, defID, body)
	defNode = defNode.withNextID(firstBodyID)
	must(e.s.beginNode(&e.comma, defNode))
	must(e.s.beginInputs(new(bool)))
	e.writeRaw(`"custom_block":[1,` + protoID.String() + `]`)
	must(e.s.endInputs())
	must(e.s.endObj())

	return defID
}
