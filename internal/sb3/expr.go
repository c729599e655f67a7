package sb3

import (
	"fmt"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/diag"
)

// inputKind mirrors Scratch's [kind, payload] input encoding (spec section
// 6): 1 for an inline shadow literal, 2 for a reporter block link.
const (
	inputShadow   = 1
	inputReporter = 2
)

// emitExpr renders e as a parent block's input value, either inlining a
// literal/bare-name payload with no block node, or allocating a reporter
// block node with parentID set to the consumer and emitting its linking
// payload (spec 4.7). Returns the rendered "[kind,payload]" string.
func (e *emitter) emitExpr(sc scope, parentID NodeID, expr ast.Expr) string {
	switch v := expr.(type) {
	case *ast.Value:
		return literalPayload(v)
	case *ast.NameExpr:
		return e.nameExprPayload(sc, v)
	case *ast.ArgRef:
		return e.argRefPayload(sc, parentID, v)
	case *ast.StructLiteral:
		e.sink.Report(diag.Diagnostic{Kind: diag.TypeMismatch, Span: v.Span(), Expected: ast.ValueType()})
		return droppedShadow()
	default:
		id := e.reporterNode(sc, parentID, expr)
		if id == nil {
			return droppedShadow()
		}
		return fmt.Sprintf("[%d,%s]", inputReporter, id.String())
	}
}

func literalPayload(v *ast.Value) string {
	tag := valueTypeTag(v.Kind)
	return fmt.Sprintf("[%d,[%d,%s]]", inputShadow, tag, jsonString(v.Str))
}

// valueTypeTag is Scratch's numeric literal-shape tag inside a shadow
// payload: 10 for plain text/number shadows (goboscript only ever needs the
// generic text shadow; it never emits Scratch's colour/angle specialised
// shadows).
func valueTypeTag(k ast.ValueKind) int {
	switch k {
	case ast.ValueBoolean:
		return 10
	default:
		return 10
	}
}

func droppedShadow() string {
	return fmt.Sprintf("[%d,null]", 3)
}

func (e *emitter) nameExprPayload(sc scope, n *ast.NameExpr) string {
	q := qualifyName(e.sink, sc, n.Name)
	if q == nil {
		return droppedShadow()
	}
	if q.Kind == QualifiedList {
		return fmt.Sprintf("[%d,[13,%s,%s]]", inputShadow, jsonString(q.StorageKey), jsonString(q.StorageKey))
	}
	return fmt.Sprintf("[%d,[12,%s,%s]]", inputShadow, jsonString(q.StorageKey), jsonString(q.StorageKey))
}

func (e *emitter) argRefPayload(sc scope, parentID NodeID, a *ast.ArgRef) string {
	key := a.Name.Basename()
	if a.Name.Field != nil {
		key = qualifyStructVarName(*a.Name.Field, key)
	}
	if _, ok := e.argReporterIDs[key]; !ok {
		e.sink.Report(diag.Diagnostic{Kind: diag.UnrecognizedVariable, Span: a.Span(), Name: key})
		return droppedShadow()
	}
	id := e.ids.New()
	node := newNode("argument_reporter_string_number", id).withParentID(&parentID)
	e.mustWriteNode(id, node, nil, singleFieldFragment("VALUE", key))
	return fmt.Sprintf("[%d,%s]", inputReporter, id.String())
}

// reporterNode allocates and writes a block node for any expression that
// requires one (reporters, operators, function calls, struct field access),
// returning its id so the caller can link to it.
func (e *emitter) reporterNode(sc scope, parentID NodeID, expr ast.Expr) *NodeID {
	id := e.ids.New()

	switch v := expr.(type) {
	case *ast.Repr:
		node := newNode(v.Opcode.Opcode(), id).withParentID(&parentID)
		e.writeReporterArgs(sc, id, node, v.Opcode, v.Args)
	case *ast.UnOp:
		node := newNode(unOpcode(v.Op), id).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "NUM1", v.Operand)
		})
	case *ast.BinOp:
		node := newNode(binOpcode(v.Op), id).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeInput(sc, inputsComma, id, "NUM1", v.Lhs)
			e.writeInput(sc, inputsComma, id, "NUM2", v.Rhs)
		})
	case *ast.Dot:
		q := qualifyName(e.sink, sc, ast.Name{Base: dotLhsName(v), Field: &v.Rhs, NSpan: v.Span()})
		if q == nil {
			return nil
		}
		opcode, field := "data_variable", "VARIABLE"
		if q.Kind == QualifiedList {
			opcode, field = "data_listcontents", "LIST"
		}
		node := newNode(opcode, id).withParentID(&parentID)
		e.mustWriteNode(id, node, nil, fieldsFragment(q, field))
	case *ast.FuncCallExpr:
		fn, ok := e.lookupFunc(v.Name)
		if !ok {
			e.sink.Report(diag.Diagnostic{
				Kind: diag.UnrecognizedFunction, Span: v.Span(), Name: v.Name,
				Suggestion: diag.Suggest(v.Name, e.funcNames()),
			})
			return nil
		}
		node := newNode("procedures_call", id).withParentID(&parentID)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			e.writeCallArgs(sc, id, inputsComma, fn.Args, v.Args)
		}, mutationCall(fn.Name, callArgNames(e.sink, e.stage, e.sprite, fn.Args), true))
	default:
		return nil
	}
	return &id
}

func (e *emitter) writeReporterArgs(sc scope, id NodeID, node Node, block ast.Block, args []ast.Expr) {
	names := reporterArgNames(block)
	e.mustWriteNode(id, node, func(inputsComma *bool) {
		for i, name := range names {
			if i >= len(args) {
				break
			}
			e.writeInput(sc, inputsComma, id, name, args[i])
		}
	})
}

// reporterArgNames names the input slots for the small representative set
// of built-in reporters this compiler names directly (spec section 1: a
// representative leaf set, not the full Scratch opcode catalog).
func reporterArgNames(block ast.Block) []string {
	switch block {
	case ast.BlockGoToXY:
		return []string{"X", "Y"}
	case ast.BlockMove:
		return []string{"STEPS"}
	case ast.BlockTurnRight:
		return []string{"DEGREES"}
	case ast.BlockSayForSecs:
		return []string{"MESSAGE", "SECS"}
	case ast.BlockSay:
		return []string{"MESSAGE"}
	case ast.BlockPlaySound:
		return []string{"SOUND_MENU"}
	default:
		return nil
	}
}

func unOpcode(op string) string {
	switch op {
	case "not":
		return "operator_not"
	case "-":
		return "operator_subtract"
	default:
		return "operator_not"
	}
}

func binOpcode(op string) string {
	switch op {
	case "+":
		return "operator_add"
	case "-":
		return "operator_subtract"
	case "*":
		return "operator_multiply"
	case "/":
		return "operator_divide"
	case "%":
		return "operator_mod"
	case "=", "==":
		return "operator_equals"
	case "<":
		return "operator_lt"
	case ">":
		return "operator_gt"
	case "and":
		return "operator_and"
	case "or":
		return "operator_or"
	default:
		return "operator_equals"
	}
}

func dotLhsName(d *ast.Dot) string {
	if base, ok := d.Lhs.(*ast.NameExpr); ok {
		return base.Name.Basename()
	}
	return ""
}
