package sb3

import "github.com/goboscript/goboc/internal/ast"

// emitBlockStmt dispatches a built-in opcode statement to its leaf emitter.
// Only the representative subset ast.Block names is handled (spec section
// 1); every case mirrors the input slots reporterArgNames declares for the
// same Block when it appears as a reporter, since goboscript uses one Block
// enumeration for both positions.
func (e *emitter) emitBlockStmt(sc scope, id NodeID, nextID *NodeID, parentID NodeID, s *ast.BlockStmt) {
	switch s.Block {
	case ast.BlockStopAll:
		e.emitStop(id, nextID, parentID, "all")
	case ast.BlockStopThisScript:
		e.emitStop(id, nextID, parentID, "this script")
	case ast.BlockDeleteThisClone:
		node := newNode("control_delete_this_clone", id).withParentID(&parentID)
		e.mustWriteNode(id, node, nil)
	case ast.BlockBroadcast:
		e.emitBroadcast(sc, id, nextID, parentID, s.Args, "event_broadcast")
	case ast.BlockBroadcastAndWait:
		e.emitBroadcast(sc, id, nextID, parentID, s.Args, "event_broadcastandwait")
	case ast.BlockNextCostume:
		node := newNode("looks_nextcostume", id).withNextID(nextID).withParentID(&parentID)
		e.mustWriteNode(id, node, nil)
	default:
		node := newNode(s.Block.Opcode(), id).withNextID(nextID).withParentID(&parentID)
		names := reporterArgNames(s.Block)
		e.mustWriteNode(id, node, func(inputsComma *bool) {
			for i, name := range names {
				if i >= len(s.Args) {
					break
				}
				e.writeInput(sc, inputsComma, id, name, s.Args[i])
			}
		})
	}
}

func (e *emitter) emitStop(id NodeID, nextID *NodeID, parentID NodeID, option string) {
	node := newNode("control_stop", id).withParentID(&parentID)
	_ = nextID // a terminator never carries a next id (spec section 3 invariant)
	e.mustWriteNode(id, node, nil, singleFieldFragment("STOP_OPTION", option))
}

// emitBroadcast reads the broadcast name from the first argument (a string
// literal in practice; goboscript does not support dynamic broadcast
// targets) and emits the field-id pair Scratch's broadcast references need.
func (e *emitter) emitBroadcast(sc scope, id NodeID, nextID *NodeID, parentID NodeID, args []ast.Expr, opcode string) {
	name := broadcastLiteral(args)
	node := newNode(opcode, id).withNextID(nextID).withParentID(&parentID)
	e.mustWriteNode(id, node, nil, singleFieldIDFragment("BROADCAST_INPUT", name))
}

func broadcastLiteral(args []ast.Expr) string {
	if len(args) == 0 {
		return ""
	}
	if v, ok := args[0].(*ast.Value); ok {
		return v.Str
	}
	return ""
}

func singleFieldFragment(name, value string) string {
	b := jsonString(value)
	return `,"fields":{"` + name + `":[` + b + `,null]}`
}

func singleFieldIDFragment(name, value string) string {
	b := jsonString(value)
	return `,"fields":{"` + name + `":[` + b + `,` + b + `]}`
}
