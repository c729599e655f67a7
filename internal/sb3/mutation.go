package sb3

import (
	"encoding/json"
	"fmt"
	"strings"
)

// mutation renders the `mutation` sub-object Scratch's procedures_prototype
// and procedures_call blocks carry: a proccode template with one "%s"
// placeholder per argument, the argument names/ids/defaults as JSON-encoded
// strings (Scratch nests JSON inside JSON here — not this compiler's
// choice, the format's), and the warp flag as a stringified boolean (spec
// 4.8, glossary "Mutation"/"Warp").
func mutationPrototype(name string, argNames []string, argIDs []NodeID, warp bool) string {
	return mutation(name, argNames, idStrings(argIDs), warp)
}

// mutationCall renders the call-site mutation for procedures_call, which
// carries argument names but not argument ids (those belong only to the
// prototype that defines them).
func mutationCall(name string, argNames []string, warp bool) string {
	return mutation(name, argNames, nil, warp)
}

func mutation(name string, argNames []string, argIDs []string, warp bool) string {
	proccode := name + strings.Repeat(" %s", len(argNames))
	var b strings.Builder
	b.WriteString(`,"mutation":{`)
	b.WriteString(`"tagName":"mutation","children":[]`)
	fmt.Fprintf(&b, `,"proccode":%s`, jsonString(proccode))
	if argIDs != nil {
		fmt.Fprintf(&b, `,"argumentids":%s`, jsonStringArray(argIDs))
	}
	fmt.Fprintf(&b, `,"argumentnames":%s`, jsonStringArray(argNames))
	defaults := make([]string, len(argNames))
	fmt.Fprintf(&b, `,"argumentdefaults":%s`, jsonStringArray(defaults))
	fmt.Fprintf(&b, `,"warp":"%t"`, warp)
	b.WriteString("}")
	return b.String()
}

func idStrings(ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// jsonStringArray renders a []string as a JSON array, then JSON-encodes
// that array's text again — Scratch's mutation fields are themselves
// strings containing JSON, a quirk of the .sb3 format this compiler has to
// reproduce byte-for-byte to stay loadable by the Scratch VM.
func jsonStringArray(items []string) string {
	inner, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}
	return jsonString(string(inner))
}
