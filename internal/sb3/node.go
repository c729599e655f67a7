package sb3

import (
	"encoding/json"
	"fmt"
	"io"
)

// Node describes one block's header fields: the bits that are always
// present regardless of which opcode-specific inputs/fields/mutation
// follow. Built with a small fluent API mirroring the teacher's own
// builder-style Node (so callers read as `newNode(...).parentID(x)`
// rather than a seven-argument constructor).
type Node struct {
	ID       NodeID
	Opcode   string
	NextID   *NodeID
	ParentID *NodeID
	TopLevel bool
	Shadow   bool
}

func newNode(opcode string, id NodeID) Node {
	return Node{ID: id, Opcode: opcode}
}

func (n Node) withNextID(id *NodeID) Node {
	n.NextID = id
	return n
}

func (n Node) withParentID(id *NodeID) Node {
	n.ParentID = id
	return n
}

func (n Node) asTopLevel() Node {
	n.TopLevel = true
	return n
}

func (n Node) asShadow() Node {
	n.Shadow = true
	return n
}

// writeHeader writes `"<id>":{"opcode":...,"next":...,"parent":...,
// "shadow":...,"topLevel":...` — deliberately missing the closing brace,
// because inputs/fields/mutation are written by the caller before end_obj
// closes it (spec 4.3: begin_node/end_obj bracket whatever the caller
// writes in between).
func (n Node) writeHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, `"%s":{"opcode":%s,"next":%s,"parent":%s,"shadow":%t,"topLevel":%t`,
		n.ID, jsonString(n.Opcode), jsonNullableID(n.NextID), jsonNullableID(n.ParentID), n.Shadow, n.TopLevel)
	return err
}

func jsonNullableID(id *NodeID) string {
	if id == nil {
		return "null"
	}
	return jsonString(id.String())
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
