// Package ast defines the resolved abstract syntax tree that the code
// generator consumes. Producing this tree — lexing, parsing, and the
// name-resolution passes that populate UsedProcs/UsedFuncs/IsUsed — is out
// of scope for this repository; it is treated as an external collaborator.
// What lives here is the data model itself (spec section 3), which the
// generator is responsible for walking.
package ast

// TypeKind distinguishes the two shapes Type can take. goboscript has no
// nested structs and no enum nesting at non-declaration sites, so a closed
// two-member sum is enough.
type TypeKind int

const (
	TypeValue TypeKind = iota
	TypeStruct
)

// Type is a tagged sum: either a plain scalar (Value) or a named aggregate
// (Struct) with no further nesting.
type Type struct {
	Kind TypeKind `json:"kind"`
	Name string   `json:"name"` // populated only when Kind == TypeStruct
	Span Span     `json:"span"` // span of the type reference, for diagnostics
}

func ValueType() Type { return Type{Kind: TypeValue} }

func StructType(name string, span Span) Type {
	return Type{Kind: TypeStruct, Name: name, Span: span}
}

func (t Type) String() string {
	if t.Kind == TypeStruct {
		return t.Name
	}
	return "value"
}

// Name is a possibly-dotted source reference: a basename and an optional
// single field name (struct field access folds into exactly one level).
type Name struct {
	Base  string  `json:"base"`
	Field *string `json:"field"`
	NSpan Span    `json:"span"`
}

func (n Name) Basename() string { return n.Base }
func (n Name) Fieldname() *string { return n.Field }
func (n Name) Span() Span         { return n.NSpan }

// Var is a named, typed, scalar-or-aggregate storage slot.
type Var struct {
	Name    string
	Type    Type
	IsCloud bool
	IsUsed  bool
	Span    Span
}

// List is the list-valued counterpart of Var. Contents are populated at
// compile time either from an array literal of const expressions or from a
// shell command's newline-split stdout (see ListData).
type List struct {
	Name   string
	Type   Type
	IsUsed bool
	Span   Span
	Data   *ListData
}

// ListData is the compile-time-evaluated contents of a list declaration.
// Exactly one of Array or Cmd is meaningful, matching goboscript's
// `list = [...]` / `list = cmd(...)` declaration forms.
type ListData struct {
	Array []string `json:"array"` // pre-evaluated literal elements, row-major for struct lists
	Cmd   string   `json:"cmd"`   // shell command whose newline-split stdout populates the list
}

// Struct is a declared aggregate type: an ordered list of field names. Field
// order is significant — it determines both the order variables are
// expanded into the Scratch variables map and the row width used when
// transposing struct-typed list data.
type Struct struct {
	Name   string
	Fields []string
	IsUsed bool
	Span   Span
}

// Enum is a declared closed set of variant names. goboscript enums lower to
// their variant's literal value and exist here only so declarations can be
// checked for use.
type Enum struct {
	Name     string
	Variants []string
	IsUsed   bool
	Span     Span
}

// Arg is a callable parameter: scalar args expand to one argument reporter;
// struct args expand to one per declared field (see callArgNames and
// argReporterPrelude in sb3/procfunc.go).
type Arg struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	Span Span   `json:"span"`
}

// Proc is a user-defined procedure (non-warping unless declared Warp).
type Proc struct {
	Name   string
	Args   []Arg
	Locals map[string]*Var
	Warp   bool
	Span   Span
}

// Func is a user-defined function. Functions always warp and reserve an
// implicit return variable; a Return statement inside a Proc's body is an
// internal invariant violation (spec open question — resolved here by
// requiring AST normalisation to have lowered Return before it reaches the
// statement emitter, see internal/sb3/stmt.go).
type Func struct {
	Name   string
	Args   []Arg
	Locals map[string]*Var
	Span   Span
}

// EventKind is a closed sum of the event handler triggers goboscript
// supports.
type EventKind struct {
	Tag      EventTag
	Event    string // EventOnBroadcast: broadcast name
	Key      string // EventOnKey: key name
	Backdrop string // EventOnBackdrop: backdrop name
	Value    Expr   // EventOnLoudnessGt / EventOnTimerGt: threshold expression
	KeySpan  Span
}

type EventTag int

const (
	EventOnBroadcast EventTag = iota
	EventOnFlag
	EventOnKey
	EventOnClick
	EventOnBackdrop
	EventOnLoudnessGt
	EventOnTimerGt
	EventOnClone
)

// Event is a top-level event handler: a trigger plus a statement body.
type Event struct {
	Kind EventKind
	Body []Stmt
	Span Span
}

// Costume is a named image asset attached to a sprite.
type Costume struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Span Span   `json:"span"`
}

// Sprite is a named code/asset container. The Stage is represented as a
// Sprite whose name is the reserved literal "Stage".
type Sprite struct {
	Name    string
	Vars    map[string]*Var
	Lists   map[string]*List
	Structs map[string]*Struct
	Enums   map[string]*Enum
	Procs   map[string]*Proc
	Funcs   map[string]*Func
	Events  []Event
	Costumes []Costume

	UsedProcs    map[string]bool
	UsedFuncs    map[string]bool
	ProcUsedArgs map[string]map[string]bool
	FuncUsedArgs map[string]map[string]bool

	ProcDefinitions map[string][]Stmt
	FuncDefinitions map[string][]Stmt
}

// NewSprite returns a Sprite with all maps initialised, to spare every
// caller a nil-map dance.
func NewSprite(name string) *Sprite {
	return &Sprite{
		Name:            name,
		Vars:            map[string]*Var{},
		Lists:           map[string]*List{},
		Structs:         map[string]*Struct{},
		Enums:           map[string]*Enum{},
		Procs:           map[string]*Proc{},
		Funcs:           map[string]*Func{},
		UsedProcs:       map[string]bool{},
		UsedFuncs:       map[string]bool{},
		ProcUsedArgs:    map[string]map[string]bool{},
		FuncUsedArgs:    map[string]map[string]bool{},
		ProcDefinitions: map[string][]Stmt{},
		FuncDefinitions: map[string][]Stmt{},
	}
}

// StageName is the reserved sprite name for the stage target.
const StageName = "Stage"

// Project is the root entity: one Stage plus a name-keyed map of sprites.
type Project struct {
	Stage   *Sprite
	Sprites map[string]*Sprite
	// SpriteOrder preserves declaration order for deterministic output,
	// since Go maps do not iterate in insertion order.
	SpriteOrder []string
}
