package sb3

import "github.com/goboscript/goboc/internal/ast"

// emitEvent writes one event handler as a top-level hat block plus its body
// (spec 4.9): opcode and any field selected from the event's kind, body
// chained via stmts the same way a callable's body is.
func (e *emitter) emitEvent(sc scope, isStage bool, ev ast.Event) {
	id := e.ids.New()
	opcode, extra := e.eventHeader(isStage, ev.Kind)
	node := newNode(opcode, id).asTopLevel()
	firstBodyID := e.stmts(sc, id, ev.Body)
	node = node.withNextID(firstBodyID)
	e.mustWriteNode(id, node, nil, extra...)
}

func (e *emitter) eventHeader(isStage bool, k ast.EventKind) (opcode string, extra []string) {
	switch k.Tag {
	case ast.EventOnFlag:
		return "event_whenflagclicked", nil
	case ast.EventOnKey:
		return "event_whenkeypressed", []string{singleFieldFragment("KEY_OPTION", k.Key)}
	case ast.EventOnClick:
		if isStage {
			return "event_whenstageclicked", nil
		}
		return "event_whenthisspriteclicked", nil
	case ast.EventOnBackdrop:
		return "event_whenbackdropswitchesto", []string{singleFieldFragment("BACKDROP", k.Backdrop)}
	case ast.EventOnLoudnessGt:
		return "event_whengreaterthan", []string{
			singleFieldFragment("WHENGREATERTHANMENU", "LOUDNESS"),
			thresholdInput(e, k.Value),
		}
	case ast.EventOnTimerGt:
		return "event_whengreaterthan", []string{
			singleFieldFragment("WHENGREATERTHANMENU", "TIMER"),
			thresholdInput(e, k.Value),
		}
	case ast.EventOnClone:
		return "control_start_as_clone", nil
	case ast.EventOnBroadcast:
		return "event_whenbroadcastreceived", []string{singleFieldIDFragment("BROADCAST_OPTION", k.Event)}
	default:
		return "event_whenflagclicked", nil
	}
}

// thresholdInput renders event_whengreaterthan's VALUE input directly as an
// inline literal shadow (rather than through writeInput). A threshold that
// is not a literal Value is written as "0".
func thresholdInput(e *emitter, value ast.Expr) string {
	if v, ok := value.(*ast.Value); ok {
		return `,"inputs":{"VALUE":[1,[10,` + jsonString(v.Str) + `]]}`
	}
	return `,"inputs":{"VALUE":[1,[10,"0"]]}`
}
