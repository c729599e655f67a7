// Package preprocess resolves the %include/%define/%undef/%if/%endif
// directive set goboscript's source format carries (spec section 4.10),
// flattening a tree of included files into one byte buffer while preserving
// a bijection between positions in that buffer and (file, offset) pairs so
// downstream diagnostics can be attributed to the file they came from.
//
// Grounded directly on original_source/src/translation_unit.rs: the
// in-place directive rewriting (neutralised bytes become `\n#`-prefixed
// comments so the downstream lexer needs no '%' awareness) is the same
// trick, transliterated into Go's slice-mutation idiom.
package preprocess

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/diag"
	"github.com/goboscript/goboc/internal/invariant"
)

// Include is a record of one spliced-in section of source: unit_range is
// its half-open interval in the flattened buffer, source_range the
// corresponding interval in Path. The invariant unit_range.Len() ==
// source_range.Len() holds for every Include; the set of unit_ranges
// partitions the buffer (spec section 3).
type Include struct {
	UnitRange   ast.Span
	SourceRange ast.Span
	Path        string
}

// Unit is a flattened translation unit: one logical byte stream assembled
// from a root file and everything it transitively %includes.
type Unit struct {
	rootPath string
	text     []byte
	defines  map[string]bool
	includes []Include
	included map[string]bool
	current  int
}

// New reads path and seeds a Unit with it as the sole, whole-file Include.
func New(path string) (*Unit, error) {
	text, err := readSource(path)
	if err != nil {
		return nil, err
	}
	u := &Unit{
		rootPath: path,
		text:     text,
		defines:  map[string]bool{},
		included: map[string]bool{filepath.Clean(path): true},
	}
	u.includes = append(u.includes, Include{
		UnitRange:   ast.Span{Start: 0, End: len(text)},
		SourceRange: ast.Span{Start: 0, End: len(text)},
		Path:        path,
	})
	return u, nil
}

// Text returns the flattened, directive-neutralised source buffer.
func (u *Unit) Text() string { return string(u.text) }

// Includes returns the (immutable, in caller's eyes) include table.
func (u *Unit) Includes() []Include { return u.includes }

// PreProcess resolves every directive reachable from the root file.
// Diagnosable problems (a missing %include target) are collected and
// returned rather than aborting — the rest of the unit still preprocesses
// (spec section 7).
func (u *Unit) PreProcess() []diag.Diagnostic {
	return u.parse(0)
}

func (u *Unit) parse(begin int) []diag.Diagnostic {
	var diags []diag.Diagnostic
	comment := 0
	i := begin
	for i < len(u.text) {
		if comment > 0 {
			switch {
			case hasPrefixAt(u.text, i, "\n%"):
				i += len("\n%")
				u.text[i-1] = '#'
				switch {
				case hasPrefixAt(u.text, i, "if"):
					comment++
				case hasPrefixAt(u.text, i, "endif"):
					comment--
				}
			case hasPrefixAt(u.text, i, "\n"):
				i++
				if i < len(u.text) {
					u.text[i] = '#'
				}
			default:
				i++
			}
			continue
		}

		begin := false
		switch {
		case hasPrefixAt(u.text, i, "\n%"):
			i += len("\n%")
			begin = true
		case i == 0 && strings.HasPrefix(string(u.text), "%"):
			i += len("%")
			begin = true
		}
		if !begin {
			i++
			continue
		}

		switch {
		case hasPrefixAt(u.text, i, "include"):
			u.text[i-1] = '#'
			i += len("include")
			path, rest, pathSpan := takeLine(u.text, i)
			i = rest
			if i < len(u.text) && u.text[i] == '\r' {
				i++
			}
			if i < len(u.text) && u.text[i] == '\n' {
				i++
			}
			path = strings.TrimSpace(path)
			for k, inc := range u.includes {
				if inc.UnitRange.Contains(i - 1) {
					u.current = k
					break
				}
			}
			key := resolveIncludePath(u.includes[u.current].Path, path)
			if !u.included[key] {
				if err := u.include(path, pathSpan, i); err != nil {
					diags = append(diags, *err)
				}
				u.included[key] = true
			}
			if i < len(u.text) && u.text[i] == '%' {
				i--
			}
		case hasPrefixAt(u.text, i, "define"):
			u.text[i-1] = '#'
			i += len("define")
			name, rest, _ := takeLine(u.text, i)
			i = rest
			if i < len(u.text) && u.text[i] == '\r' {
				i++
			}
			u.defines[strings.TrimSpace(name)] = true
		case hasPrefixAt(u.text, i, "undef"):
			u.text[i-1] = '#'
			i += len("undef")
			name, rest, _ := takeLine(u.text, i)
			i = rest
			if i < len(u.text) && u.text[i] == '\r' {
				i++
			}
			delete(u.defines, strings.TrimSpace(name))
		case hasPrefixAt(u.text, i, "if"):
			u.text[i-1] = '#'
			i += len("if")
			invert := false
			if hasPrefixAt(u.text, i, " not ") {
				i += len(" not ")
				invert = true
			}
			name, rest, _ := takeLine(u.text, i)
			i = rest
			if i < len(u.text) && u.text[i] == '\r' {
				i++
			}
			if u.defines[strings.TrimSpace(name)] == invert {
				comment = 1
			}
		case hasPrefixAt(u.text, i, "endif"):
			u.text[i-1] = '#'
			i += len("endif")
		}
	}
	return diags
}

func hasPrefixAt(text []byte, i int, prefix string) bool {
	if i+len(prefix) > len(text) {
		return false
	}
	return string(text[i:i+len(prefix)]) == prefix
}

// takeLine returns the bytes from i up to (not including) the next \n or
// \r, the index just past them, and the span of that content in the buffer.
func takeLine(text []byte, i int) (string, int, ast.Span) {
	j := i
	for j < len(text) && text[j] != '\n' && text[j] != '\r' {
		j++
	}
	return string(text[i:j]), j, ast.Span{Start: i, End: j}
}

// include splices the file at path into the buffer at begin, re-spanning
// the include table by splitting the current Include into three: the
// prefix before the directive, the newly spliced block, and the suffix
// after it, then shifting every later Include's unit_range by the inserted
// length. Grounded directly on translation_unit.rs's `include`.
func (u *Unit) include(relPath string, pathSpan ast.Span, begin int) *diag.Diagnostic {
	resolved := resolveIncludePath(u.includes[u.current].Path, relPath)
	buffer, err := readSource(resolved)
	if err != nil {
		return &diag.Diagnostic{Kind: diag.IOError, Span: pathSpan, Err: err}
	}

	tail := make([]byte, len(u.text)-begin)
	copy(tail, u.text[begin:])
	u.text = append(u.text[:begin], append(append([]byte{}, buffer...), tail...)...)

	current := u.includes[u.current]
	u.includes = append(u.includes[:u.current], u.includes[u.current+1:]...)

	topUnitRange := ast.Span{Start: current.UnitRange.Start, End: begin}
	top := Include{
		UnitRange:   topUnitRange,
		SourceRange: ast.Span{Start: current.SourceRange.Start, End: current.SourceRange.Start + topUnitRange.Len()},
		Path:        current.Path,
	}

	middle := Include{
		UnitRange:   ast.Span{Start: begin, End: begin + len(buffer)},
		SourceRange: ast.Span{Start: 0, End: len(buffer)},
		Path:        resolved,
	}

	bottomUnitRange := ast.Span{Start: begin, End: current.UnitRange.End}
	bottom := Include{
		UnitRange: bottomUnitRange,
		SourceRange: ast.Span{
			Start: current.SourceRange.Start + topUnitRange.Len(),
			End:   current.SourceRange.Start + topUnitRange.Len() + bottomUnitRange.Len(),
		},
		Path: current.Path,
	}

	rest := append([]Include{top, middle, bottom}, u.includes[u.current:]...)
	u.includes = append(u.includes[:u.current], rest...)

	// bottom (at u.current+2) was computed from current's pre-splice
	// unit_range and must itself shift by len(buffer), same as every
	// Include after it — the loop starts AT bottom's index, not past it.
	for k := u.current + 2; k < len(u.includes); k++ {
		u.includes[k].UnitRange.Start += len(buffer)
		u.includes[k].UnitRange.End += len(buffer)
	}

	u.current++
	return nil
}

// TranslatePosition maps a position in the flattened buffer back to the
// (file, offset) pair it came from. Panics if pos is outside every known
// range: that can only happen if a caller hands back a span this unit never
// produced, which is an internal invariant violation, not a user error.
func (u *Unit) TranslatePosition(pos int) (file string, offset int) {
	for _, inc := range u.includes {
		invariant.Invariant(inc.UnitRange.Len() == inc.SourceRange.Len(),
			"include %s: unit_range and source_range length mismatch", inc.Path)
		if inc.UnitRange.Contains(pos) {
			return inc.Path, inc.SourceRange.Start + (pos - inc.UnitRange.Start)
		}
	}
	invariant.Unreachable("invalid position %d in %s", pos, u.rootPath)
	return "", 0
}

func resolveIncludePath(currentFile, rel string) string {
	dir := filepath.Dir(currentFile)
	path := filepath.Join(dir, rel)
	pathWithExt := setExt(path, "gs")
	if !isFile(pathWithExt) && isDir(path) {
		path = filepath.Join(path, filepath.Base(path))
	}
	return setExt(path, "gs")
}

// setExt mirrors Rust's PathBuf::set_extension: it replaces whatever
// extension path has (or appends one if it has none).
func setExt(path, ext string) string {
	if cur := filepath.Ext(path); cur != "" {
		path = strings.TrimSuffix(path, cur)
	}
	return path + "." + ext
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
