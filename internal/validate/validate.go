// Package validate wraps an embedded, trimmed Scratch 3 project.json JSON
// Schema (SPEC_FULL.md 4.12) and exposes a single compiled validator. This
// is a second, independent check layered on top of the emitter's own
// invariants (spec section 8) — useful precisely because the streaming
// emitter (spec 4.3) never materialises an in-memory tree it could
// otherwise structurally verify against.
package validate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// isSemver backs the "semver" format keyword used on meta.semver and
// meta.vm in the embedded schema. Scratch writes bare version strings
// ("3.0.0") rather than Go's "vX.Y.Z" convention, so a missing "v" is
// added before delegating to semver.IsValid.
func isSemver(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	return semver.IsValid(s)
}

//go:embed schema.json
var schemaBytes []byte

const schemaURL = "schema://goboc/project.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if compiler.Formats == nil {
			compiler.Formats = make(map[string]func(interface{}) bool)
		}
		compiler.Formats["semver"] = isSemver
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaBytes)); err != nil {
			compileErr = fmt.Errorf("validate: compiling embedded schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Project validates a project.json document (as emitted into the archive)
// against the embedded schema, returning one formatted message per
// violation. An empty, nil-error result means the document is schema-valid.
func Project(data []byte) ([]string, error) {
	s, err := schema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("validate: project.json is not valid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []string{err.Error()}, nil
		}
		return flatten(ve), nil
	}
	return nil, nil
}

// flatten walks a jsonschema.ValidationError's cause tree into one
// human-readable line per leaf violation, since the library reports nested
// causes rather than a flat list.
func flatten(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := strings.TrimPrefix(ve.InstanceLocation, "/")
		if loc == "" {
			loc = "<root>"
		}
		return []string{fmt.Sprintf("%s: %s", loc, ve.Message)}
	}
	var out []string
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
