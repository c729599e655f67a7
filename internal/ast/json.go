package ast

import (
	"encoding/json"
	"fmt"
)

// This file implements the JSON encoding of a "resolved project
// description" (SPEC_FULL.md section 6): the shape an out-of-scope front
// end would hand this compiler. Stmt and Expr are interfaces, so each wire
// node carries a "kind" discriminator the decoder switches on.

// DecodeProject parses a resolved project description into an *ast.Project.
func DecodeProject(data []byte) (*Project, error) {
	var wire wireProject
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	p := &Project{
		Stage:       wire.Stage.toSprite(),
		Sprites:     map[string]*Sprite{},
		SpriteOrder: make([]string, 0, len(wire.Sprites)),
	}
	for _, ws := range wire.Sprites {
		s := ws.toSprite()
		p.Sprites[s.Name] = s
		p.SpriteOrder = append(p.SpriteOrder, s.Name)
	}
	return p, nil
}

type wireProject struct {
	Stage   wireSprite   `json:"stage"`
	Sprites []wireSprite `json:"sprites"`
}

type wireSprite struct {
	Name             string                      `json:"name"`
	Vars             []wireVar                   `json:"vars"`
	Lists            []wireList                  `json:"lists"`
	Structs          []wireStruct                `json:"structs"`
	Enums            []wireEnum                  `json:"enums"`
	Procs            []wireProc                  `json:"procs"`
	Funcs            []wireFunc                  `json:"funcs"`
	Events           []wireEvent                 `json:"events"`
	Costumes         []Costume                   `json:"costumes"`
	UsedProcs        []string                    `json:"used_procs"`
	UsedFuncs        []string                    `json:"used_funcs"`
	ProcUsedArgs     map[string][]string         `json:"proc_used_args"`
	FuncUsedArgs     map[string][]string         `json:"func_used_args"`
	ProcDefinitions  map[string][]json.RawMessage `json:"proc_definitions"`
	FuncDefinitions  map[string][]json.RawMessage `json:"func_definitions"`
}

type wireVar struct {
	Name    string `json:"name"`
	Type    Type   `json:"type"`
	IsCloud bool   `json:"is_cloud"`
	IsUsed  bool   `json:"is_used"`
	Span    Span   `json:"span"`
}

type wireList struct {
	Name   string    `json:"name"`
	Type   Type      `json:"type"`
	IsUsed bool      `json:"is_used"`
	Span   Span      `json:"span"`
	Data   *ListData `json:"data"`
}

type wireStruct struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	IsUsed bool     `json:"is_used"`
	Span   Span     `json:"span"`
}

type wireEnum struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
	IsUsed   bool     `json:"is_used"`
	Span     Span     `json:"span"`
}

type wireProc struct {
	Name   string    `json:"name"`
	Args   []Arg     `json:"args"`
	Locals []wireVar `json:"locals"`
	Warp   bool      `json:"warp"`
	Span   Span      `json:"span"`
}

type wireFunc struct {
	Name   string    `json:"name"`
	Args   []Arg     `json:"args"`
	Locals []wireVar `json:"locals"`
	Span   Span      `json:"span"`
}

type wireEvent struct {
	Kind wireEventKind     `json:"kind"`
	Body []json.RawMessage `json:"body"`
	Span Span              `json:"span"`
}

type wireEventKind struct {
	Tag      string          `json:"tag"`
	Event    string          `json:"event"`
	Key      string          `json:"key"`
	Backdrop string          `json:"backdrop"`
	Value    json.RawMessage `json:"value"`
	KeySpan  Span            `json:"key_span"`
}

var eventTagNames = map[string]EventTag{
	"on":          EventOnBroadcast,
	"on_flag":     EventOnFlag,
	"on_key":      EventOnKey,
	"on_click":    EventOnClick,
	"on_backdrop": EventOnBackdrop,
	"loudness_gt": EventOnLoudnessGt,
	"timer_gt":    EventOnTimerGt,
	"on_clone":    EventOnClone,
}

func (ws wireSprite) toSprite() *Sprite {
	s := NewSprite(ws.Name)
	for _, v := range ws.Vars {
		s.Vars[v.Name] = &Var{Name: v.Name, Type: v.Type, IsCloud: v.IsCloud, IsUsed: v.IsUsed, Span: v.Span}
	}
	for _, l := range ws.Lists {
		s.Lists[l.Name] = &List{Name: l.Name, Type: l.Type, IsUsed: l.IsUsed, Span: l.Span, Data: l.Data}
	}
	for _, st := range ws.Structs {
		s.Structs[st.Name] = &Struct{Name: st.Name, Fields: st.Fields, IsUsed: st.IsUsed, Span: st.Span}
	}
	for _, e := range ws.Enums {
		s.Enums[e.Name] = &Enum{Name: e.Name, Variants: e.Variants, IsUsed: e.IsUsed, Span: e.Span}
	}
	for _, p := range ws.Procs {
		locals := map[string]*Var{}
		for _, v := range p.Locals {
			locals[v.Name] = &Var{Name: v.Name, Type: v.Type, IsCloud: v.IsCloud, IsUsed: v.IsUsed, Span: v.Span}
		}
		s.Procs[p.Name] = &Proc{Name: p.Name, Args: p.Args, Locals: locals, Warp: p.Warp, Span: p.Span}
	}
	for _, f := range ws.Funcs {
		locals := map[string]*Var{}
		for _, v := range f.Locals {
			locals[v.Name] = &Var{Name: v.Name, Type: v.Type, IsCloud: v.IsCloud, IsUsed: v.IsUsed, Span: v.Span}
		}
		s.Funcs[f.Name] = &Func{Name: f.Name, Args: f.Args, Locals: locals, Span: f.Span}
	}
	for _, e := range ws.Events {
		s.Events = append(s.Events, Event{
			Kind: decodeEventKind(e.Kind),
			Body: decodeStmts(e.Body),
			Span: e.Span,
		})
	}
	s.Costumes = ws.Costumes
	for _, n := range ws.UsedProcs {
		s.UsedProcs[n] = true
	}
	for _, n := range ws.UsedFuncs {
		s.UsedFuncs[n] = true
	}
	for name, args := range ws.ProcUsedArgs {
		m := map[string]bool{}
		for _, a := range args {
			m[a] = true
		}
		s.ProcUsedArgs[name] = m
	}
	for name, args := range ws.FuncUsedArgs {
		m := map[string]bool{}
		for _, a := range args {
			m[a] = true
		}
		s.FuncUsedArgs[name] = m
	}
	for name, raw := range ws.ProcDefinitions {
		s.ProcDefinitions[name] = decodeStmts(raw)
	}
	for name, raw := range ws.FuncDefinitions {
		s.FuncDefinitions[name] = decodeStmts(raw)
	}
	return s
}

func decodeEventKind(w wireEventKind) EventKind {
	k := EventKind{
		Tag:      eventTagNames[w.Tag],
		Event:    w.Event,
		Key:      w.Key,
		Backdrop: w.Backdrop,
		KeySpan:  w.KeySpan,
	}
	if len(w.Value) > 0 {
		k.Value = decodeExpr(w.Value)
	}
	return k
}

func decodeStmts(raw []json.RawMessage) []Stmt {
	out := make([]Stmt, 0, len(raw))
	for _, r := range raw {
		out = append(out, decodeStmt(r))
	}
	return out
}

type wireTagged struct {
	Kind string `json:"kind"`
}

func decodeStmt(raw json.RawMessage) Stmt {
	var tag wireTagged
	must(json.Unmarshal(raw, &tag))
	switch tag.Kind {
	case "repeat":
		var w struct {
			Span  Span            `json:"span"`
			Times json.RawMessage `json:"times"`
			Body  []json.RawMessage `json:"body"`
		}
		must(json.Unmarshal(raw, &w))
		return &Repeat{stmtSpan{w.Span}, decodeExpr(w.Times), decodeStmts(w.Body)}
	case "forever":
		var w struct {
			Span Span              `json:"span"`
			Body []json.RawMessage `json:"body"`
		}
		must(json.Unmarshal(raw, &w))
		return &Forever{stmtSpan{w.Span}, decodeStmts(w.Body)}
	case "branch":
		var w struct {
			Span     Span              `json:"span"`
			Cond     json.RawMessage   `json:"cond"`
			IfBody   []json.RawMessage `json:"if_body"`
			ElseBody []json.RawMessage `json:"else_body"`
		}
		must(json.Unmarshal(raw, &w))
		return &Branch{stmtSpan{w.Span}, decodeExpr(w.Cond), decodeStmts(w.IfBody), decodeStmts(w.ElseBody)}
	case "until":
		var w struct {
			Span Span              `json:"span"`
			Cond json.RawMessage   `json:"cond"`
			Body []json.RawMessage `json:"body"`
		}
		must(json.Unmarshal(raw, &w))
		return &Until{stmtSpan{w.Span}, decodeExpr(w.Cond), decodeStmts(w.Body)}
	case "set_var":
		var w struct {
			Span    Span            `json:"span"`
			Name    Name            `json:"name"`
			Value   json.RawMessage `json:"value"`
			Type    Type            `json:"type"`
			IsLocal bool            `json:"is_local"`
			IsCloud bool            `json:"is_cloud"`
		}
		must(json.Unmarshal(raw, &w))
		return &SetVar{stmtSpan{w.Span}, w.Name, decodeExpr(w.Value), w.Type, w.IsLocal, w.IsCloud}
	case "change_var":
		var w struct {
			Span  Span            `json:"span"`
			Name  Name            `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		must(json.Unmarshal(raw, &w))
		return &ChangeVar{stmtSpan{w.Span}, w.Name, decodeExpr(w.Value)}
	case "show":
		var w struct {
			Span Span `json:"span"`
			Name Name `json:"name"`
		}
		must(json.Unmarshal(raw, &w))
		return &Show{stmtSpan{w.Span}, w.Name}
	case "hide":
		var w struct {
			Span Span `json:"span"`
			Name Name `json:"name"`
		}
		must(json.Unmarshal(raw, &w))
		return &Hide{stmtSpan{w.Span}, w.Name}
	case "add_to_list":
		var w struct {
			Span  Span            `json:"span"`
			Name  Name            `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		must(json.Unmarshal(raw, &w))
		return &AddToList{stmtSpan{w.Span}, w.Name, decodeExpr(w.Value)}
	case "delete_list_index":
		var w struct {
			Span  Span            `json:"span"`
			Name  Name            `json:"name"`
			Index json.RawMessage `json:"index"`
		}
		must(json.Unmarshal(raw, &w))
		return &DeleteListIndex{stmtSpan{w.Span}, w.Name, decodeExpr(w.Index)}
	case "delete_list":
		var w struct {
			Span Span `json:"span"`
			Name Name `json:"name"`
		}
		must(json.Unmarshal(raw, &w))
		return &DeleteList{stmtSpan{w.Span}, w.Name}
	case "insert_at_list":
		var w struct {
			Span  Span            `json:"span"`
			Name  Name            `json:"name"`
			Index json.RawMessage `json:"index"`
			Value json.RawMessage `json:"value"`
		}
		must(json.Unmarshal(raw, &w))
		return &InsertAtList{stmtSpan{w.Span}, w.Name, decodeExpr(w.Index), decodeExpr(w.Value)}
	case "set_list_index":
		var w struct {
			Span  Span            `json:"span"`
			Name  Name            `json:"name"`
			Index json.RawMessage `json:"index"`
			Value json.RawMessage `json:"value"`
		}
		must(json.Unmarshal(raw, &w))
		return &SetListIndex{stmtSpan{w.Span}, w.Name, decodeExpr(w.Index), decodeExpr(w.Value)}
	case "block":
		var w struct {
			Span  Span              `json:"span"`
			Block string            `json:"block"`
			Args  []json.RawMessage `json:"args"`
		}
		must(json.Unmarshal(raw, &w))
		return &BlockStmt{stmtSpan{w.Span}, blockNames[w.Block], decodeExprs(w.Args)}
	case "proc_call":
		var w struct {
			Span Span              `json:"span"`
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		must(json.Unmarshal(raw, &w))
		return &ProcCall{stmtSpan{w.Span}, w.Name, decodeExprs(w.Args)}
	case "func_call":
		var w struct {
			Span Span              `json:"span"`
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		must(json.Unmarshal(raw, &w))
		return &FuncCallStmt{stmtSpan{w.Span}, w.Name, decodeExprs(w.Args)}
	case "return":
		var w struct {
			Span  Span            `json:"span"`
			Value json.RawMessage `json:"value"`
		}
		must(json.Unmarshal(raw, &w))
		return &Return{stmtSpan{w.Span}, decodeExpr(w.Value)}
	default:
		panic(fmt.Sprintf("ast: unknown statement kind %q", tag.Kind))
	}
}

var blockNames = map[string]Block{
	"stop_all":          BlockStopAll,
	"stop_this_script":  BlockStopThisScript,
	"delete_this_clone": BlockDeleteThisClone,
	"move":              BlockMove,
	"turn_right":        BlockTurnRight,
	"say":               BlockSay,
	"say_for_secs":      BlockSayForSecs,
	"wait":              BlockWait,
	"broadcast":         BlockBroadcast,
	"broadcast_and_wait": BlockBroadcastAndWait,
	"next_costume":      BlockNextCostume,
	"go_to_xy":          BlockGoToXY,
	"play_sound":        BlockPlaySound,
}

func decodeExprs(raw []json.RawMessage) []Expr {
	out := make([]Expr, 0, len(raw))
	for _, r := range raw {
		out = append(out, decodeExpr(r))
	}
	return out
}

func decodeExpr(raw json.RawMessage) Expr {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var tag wireTagged
	must(json.Unmarshal(raw, &tag))
	switch tag.Kind {
	case "number", "string", "boolean":
		var w struct {
			Span Span   `json:"span"`
			Str  string `json:"str"`
		}
		must(json.Unmarshal(raw, &w))
		kind := map[string]ValueKind{"number": ValueNumber, "string": ValueString, "boolean": ValueBoolean}[tag.Kind]
		return &Value{exprSpan{w.Span}, kind, w.Str}
	case "name":
		var w struct {
			Span Span `json:"span"`
			Name Name `json:"name"`
		}
		must(json.Unmarshal(raw, &w))
		return &NameExpr{exprSpan{w.Span}, w.Name}
	case "arg":
		var w struct {
			Span Span `json:"span"`
			Name Name `json:"name"`
		}
		must(json.Unmarshal(raw, &w))
		return &ArgRef{exprSpan{w.Span}, w.Name}
	case "repr":
		var w struct {
			Span Span              `json:"span"`
			Repr string            `json:"repr"`
			Args []json.RawMessage `json:"args"`
		}
		must(json.Unmarshal(raw, &w))
		return &Repr{exprSpan{w.Span}, blockNames[w.Repr], decodeExprs(w.Args)}
	case "func_call":
		var w struct {
			Span Span              `json:"span"`
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		must(json.Unmarshal(raw, &w))
		return &FuncCallExpr{exprSpan{w.Span}, w.Name, decodeExprs(w.Args)}
	case "un_op":
		var w struct {
			Span    Span            `json:"span"`
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		must(json.Unmarshal(raw, &w))
		return &UnOp{exprSpan{w.Span}, w.Op, decodeExpr(w.Operand)}
	case "bin_op":
		var w struct {
			Span Span            `json:"span"`
			Op   string          `json:"op"`
			Lhs  json.RawMessage `json:"lhs"`
			Rhs  json.RawMessage `json:"rhs"`
		}
		must(json.Unmarshal(raw, &w))
		return &BinOp{exprSpan{w.Span}, w.Op, decodeExpr(w.Lhs), decodeExpr(w.Rhs)}
	case "struct_literal":
		var w struct {
			Span     Span                       `json:"span"`
			TypeName string                     `json:"type_name"`
			Fields   map[string]json.RawMessage `json:"fields"`
		}
		must(json.Unmarshal(raw, &w))
		fields := map[string]Expr{}
		for k, v := range w.Fields {
			fields[k] = decodeExpr(v)
		}
		return &StructLiteral{exprSpan{w.Span}, w.TypeName, fields}
	case "dot":
		var w struct {
			Span    Span            `json:"span"`
			Lhs     json.RawMessage `json:"lhs"`
			Rhs     string          `json:"rhs"`
			RhsSpan Span            `json:"rhs_span"`
		}
		must(json.Unmarshal(raw, &w))
		return &Dot{exprSpan{w.Span}, decodeExpr(w.Lhs), w.Rhs, w.RhsSpan}
	default:
		panic(fmt.Sprintf("ast: unknown expression kind %q", tag.Kind))
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
