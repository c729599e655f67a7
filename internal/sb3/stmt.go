package sb3

import (
	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/diag"
	"github.com/goboscript/goboc/internal/invariant"
)

// stmts implements spec 4.6's top-level entry point: it pre-allocates one id
// per statement so each one's "next" can reference a not-yet-emitted
// successor, walks the list pairwise wiring next/parent, stops emitting (and
// reports FollowedByUnreachableCode) at the first statement following a
// terminator, and returns the id of the first statement so the caller can
// link its container's "next"/substack entry to it. A nil return means an
// empty list.
func (e *emitter) stmts(sc scope, containerID NodeID, list []ast.Stmt) *NodeID {
	if len(list) == 0 {
		return nil
	}
	ids := make([]NodeID, len(list))
	for i := range list {
		ids[i] = e.ids.New()
	}
	for i, stmt := range list {
		if i > 0 && ast.IsTerminator(list[i-1]) {
			e.sink.Report(diag.Diagnostic{Kind: diag.FollowedByUnreachableCode, Span: stmt.Span()})
			break
		}
		var nextID *NodeID
		if i+1 < len(list) && !ast.IsTerminator(stmt) {
			nextID = &ids[i+1]
		}
		parentID := containerID
		if i > 0 {
			parentID = ids[i-1]
		}
		e.emitStmt(sc, ids[i], nextID, parentID, stmt)
	}
	return &ids[0]
}

// emitStmt writes one statement's common header (opcode, id, next, parent)
// and dispatches to the kind-specific inputs/fields/substack emission (spec
// 4.6: "opcode selection is a total function of statement kind").
func (e *emitter) emitStmt(sc scope, id NodeID, nextID *NodeID, parentID NodeID, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Repeat:
		node := newNode("control_repeat", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "TIMES", s.Times)
			must(e.s.substack(inputsComma, "SUBSTACK", e.stmts(sc, id, s.Body)))
		})
	case *ast.Forever:
		node := newNode("control_forever", id).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			must(e.s.substack(inputsComma, "SUBSTACK", e.stmts(sc, id, s.Body)))
		})
	case *ast.Branch:
		opcode := "control_if"
		if len(s.ElseBody) > 0 {
			opcode = "control_if_else"
		}
		node := newNode(opcode, id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "CONDITION", s.Cond)
			must(e.s.substack(inputsComma, "SUBSTACK", e.stmts(sc, id, s.IfBody)))
			if len(s.ElseBody) > 0 {
				must(e.s.substack(inputsComma, "SUBSTACK2", e.stmts(sc, id, s.ElseBody)))
			}
		})
	case *ast.Until:
		node := newNode("control_repeat_until", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "CONDITION", s.Cond)
			must(e.s.substack(inputsComma, "SUBSTACK", e.stmts(sc, id, s.Body)))
		})
	case *ast.SetVar:
		e.emitSetVar(sc, id, nextID, parentID, s)
	case *ast.ChangeVar:
		q := qualifyName(e.sink, sc, s.Name)
		node := newNode("data_changevariableby", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "VALUE", s.Value)
		}, fieldsFragment(q, "VARIABLE"))
	case *ast.Show:
		e.emitShowHide(sc, id, nextID, parentID, s.Name, "data_showvariable", "data_showlist")
	case *ast.Hide:
		e.emitShowHide(sc, id, nextID, parentID, s.Name, "data_hidevariable", "data_hidelist")
	case *ast.AddToList:
		q := qualifyName(e.sink, sc, s.Name)
		node := newNode("data_addtolist", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "ITEM", s.Value)
		}, fieldsFragment(q, "LIST"))
	case *ast.DeleteListIndex:
		q := qualifyName(e.sink, sc, s.Name)
		node := newNode("data_deleteoflist", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "INDEX", s.Index)
		}, fieldsFragment(q, "LIST"))
	case *ast.DeleteList:
		q := qualifyName(e.sink, sc, s.Name)
		node := newNode("data_deletealloflist", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, nil, fieldsFragment(q, "LIST"))
	case *ast.InsertAtList:
		q := qualifyName(e.sink, sc, s.Name)
		node := newNode("data_insertatlist", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "INDEX", s.Index)
			e.writeInput(sc, inputsComma, id, "ITEM", s.Value)
		}, fieldsFragment(q, "LIST"))
	case *ast.SetListIndex:
		q := qualifyName(e.sink, sc, s.Name)
		node := newNode("data_replaceitemoflist", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "INDEX", s.Index)
			e.writeInput(sc, inputsComma, id, "ITEM", s.Value)
		}, fieldsFragment(q, "LIST"))
	case *ast.BlockStmt:
		e.emitBlockStmt(sc, id, nextID, parentID, s)
	case *ast.ProcCall:
		e.emitProcCall(sc, id, nextID, parentID, s)
	case *ast.FuncCallStmt:
		e.emitFuncCallStmt(sc, id, nextID, parentID, s)
	case *ast.Return:
		// A Return reaching the statement emitter inside a Proc body means
		// AST normalisation failed to lower it beforehand (spec "Open
		// questions"); inside a Func it would already have become a SetVar
		// against the implicit return slot upstream.
		invariant.Unreachable("Return statement reached the statement emitter unlowered")
	default:
		invariant.Unreachable("unhandled statement kind %T", stmt)
	}
}

func (e *emitter) emitSetVar(sc scope, id NodeID, nextID *NodeID, parentID NodeID, s *ast.SetVar) {
	q := qualifyName(e.sink, sc, s.Name)
	node := newNode("data_setvariableto", id).withNextID(nextID).withParentID(&parentID)
	e.mustWriteNode(id, node, func(inputsComma *bool) {
		e.writeInput(sc, inputsComma, id, "VALUE", s.Value)
	}, fieldsFragment(q, "VARIABLE"))
}

func (e *emitter) emitShowHide(sc scope, id NodeID, nextID *NodeID, parentID NodeID, name ast.Name, varOpcode, listOpcode string) {
	q := qualifyName(e.sink, sc, name)
	opcode := varOpcode
	fieldName := "VARIABLE"
	if q != nil && q.Kind == QualifiedList {
		opcode = listOpcode
		fieldName = "LIST"
	}
	node := newNode(opcode, id).withNextID(nextID).withParentID(&parentID)
	e.mustWriteNode(id, node, nil, fieldsFragment(q, fieldName))
}

func (e *emitter) emitProcCall(sc scope, id NodeID, nextID *NodeID, parentID NodeID, s *ast.ProcCall) {
	proc, ok := e.lookupProc(s.Name)
	if !ok {
		e.sink.Report(diag.Diagnostic{
			Kind: diag.UnrecognizedFunction, Span: s.Span(), Name: s.Name,
			Suggestion: diag.Suggest(s.Name, e.procNames()),
		})
		return
	}
	node := newNode("procedures_call", id).withNextID(nextID).withParentID(&parentID)
	argNames := callArgNames(e.sink, e.stage, e.sprite, proc.Args)
	e.mustWriteNode(id, node, func(inputsComma *bool) {
		e.writeCallArgs(sc, id, inputsComma, proc.Args, s.Args)
	}, mutationCall(proc.Name, argNames, proc.Warp))
}

func (e *emitter) emitFuncCallStmt(sc scope, id NodeID, nextID *NodeID, parentID NodeID, s *ast.FuncCallStmt) {
	fn, ok := e.lookupFunc(s.Name)
	if !ok {
		e.sink.Report(diag.Diagnostic{
			Kind: diag.UnrecognizedFunction, Span: s.Span(), Name: s.Name,
			Suggestion: diag.Suggest(s.Name, e.funcNames()),
		})
		return
	}
	node := newNode("procedures_call", id).withNextID(nextID).withParentID(&parentID)
	argNames := callArgNames(e.sink, e.stage, e.sprite, fn.Args)
	e.mustWriteNode(id, node, func(inputsComma *bool) {
		e.writeCallArgs(sc, id, inputsComma, fn.Args, s.Args)
	}, mutationCall(fn.Name, argNames, true))
}

// fieldsFragment renders the `,"fields":{"NAME":[storage-key,storage-key]}`
// fragment a variable/list-referencing statement carries. A nil q (the name
// failed to qualify) degrades to an empty storage key rather than aborting
// emission, matching spec 7's "emission continues best-effort" rule.
func fieldsFragment(q *QualifiedName, fieldName string) string {
	key := ""
	if q != nil {
		key = q.StorageKey
	}
	b := jsonString(key)
	return `,"fields":{"` + fieldName + `":[` + b + "," + b + "]}"
}
