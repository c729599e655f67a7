package sb3

import (
	"encoding/json"
	"fmt"
	"io"
)

// streamer is the thin layer over the archive writer described in spec
// 4.3: a handful of primitives for comma tracking, node framing, and field
// emission, written directly into an io.Writer with no intermediate tree.
// The block emitters write every blocks-map node through here so the
// comma-tracking rule for that map lives in one place.
type streamer struct {
	w io.Writer
}

func (s *streamer) writeComma(comma *bool) error {
	if *comma {
		if _, err := io.WriteString(s.w, ","); err != nil {
			return err
		}
	}
	*comma = true
	return nil
}

// beginNode writes a leading comma if any node has already been written in
// the current blocks map, then the node's header (everything up to but
// not including the closing brace).
func (s *streamer) beginNode(comma *bool, node Node) error {
	if err := s.writeComma(comma); err != nil {
		return err
	}
	return node.writeHeader(s.w)
}

func (s *streamer) endObj() error {
	_, err := io.WriteString(s.w, "}")
	return err
}

// beginInputs opens the node's "inputs" object and resets the caller's
// inputs-comma flag, since inputs nest inside a node that already has its
// own outer comma flag.
func (s *streamer) beginInputs(inputsComma *bool) error {
	*inputsComma = false
	_, err := io.WriteString(s.w, `,"inputs":{`)
	return err
}

func (s *streamer) endInputs() error {
	_, err := io.WriteString(s.w, "}")
	return err
}

// substack emits a SUBSTACK-style input link ([2, block_id]) if id is
// present; a nil id (an empty body) means no entry at all, matching
// Scratch's convention of simply omitting the key.
func (s *streamer) substack(inputsComma *bool, name string, id *NodeID) error {
	if id == nil {
		return nil
	}
	if err := s.writeComma(inputsComma); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.w, `"%s":[2,%s]`, name, id)
	return err
}

// inputValue emits a shadow/reporter-linked input: kind 1 for an inline
// literal shadow, kind 2 for a reporter block link, kind 3 for a dropped
// shadow (spec section 6, "Inputs use Scratch's [kind, payload] encoding").
func (s *streamer) inputValue(inputsComma *bool, name string, kind int, payload string) error {
	if err := s.writeComma(inputsComma); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.w, `"%s":[%d,%s]`, name, kind, payload)
	return err
}

// singleField emits a fields object for a leaf reporter: {"NAME":["value",null]}.
func (s *streamer) singleField(name, value string) error {
	b, _ := json.Marshal(value)
	_, err := fmt.Fprintf(s.w, `,"fields":{"%s":[%s,null]}`, name, b)
	return err
}

// singleFieldID emits a fields object for a broadcast-style reference,
// where the field carries both a display name and an id — goboscript uses
// the name for both, same as the original compiler.
func (s *streamer) singleFieldID(name, value string) error {
	b, _ := json.Marshal(value)
	_, err := fmt.Fprintf(s.w, `,"fields":{"%s":[%s,%s]}`, name, b, b)
	return err
}

func jsonMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
