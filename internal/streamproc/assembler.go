package streamproc

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// assembledCall accumulates one tool call's arguments across chunks (spec
// §4.4, "State").
type assembledCall struct {
	name string
	id   string
	args map[string]any
}

// assembler merges function-call fragments in encounter order.
type assembler struct {
	order []string
	calls map[string]*assembledCall
}

func newAssembler() *assembler {
	return &assembler{calls: make(map[string]*assembledCall)}
}

// Merge folds one chunk's function-call fragment into the assembled call
// for its name, creating it on first sight (spec §4.4, "Per chunk": "args
// accumulate across chunks; when chunk args is a list of map-like
// records, each is merged in order").
func (a *assembler) Merge(part *FunctionCallPart) {
	if part == nil || part.Name == "" {
		return
	}
	call, ok := a.calls[part.Name]
	if !ok {
		call = &assembledCall{name: part.Name, id: part.ID, args: map[string]any{}}
		a.calls[part.Name] = call
		a.order = append(a.order, part.Name)
	} else if part.ID != "" {
		call.id = part.ID
	}

	switch v := part.Args.(type) {
	case map[string]any:
		for k, val := range v {
			call.args[k] = val
		}
	case []map[string]any:
		for _, record := range v {
			for k, val := range record {
				call.args[k] = val
			}
		}
	case nil:
		// no-op: an empty fragment carries no new argument data
	default:
		// non-dict args replace the whole accumulator, per spec
		call.args = map[string]any{"value": v}
	}
}

// Finalize serializes every assembled call's args to canonical JSON and
// mints an id for calls the provider never identified (spec §4.4,
// "Finalization").
func (a *assembler) Finalize() []finalizedCall {
	out := make([]finalizedCall, 0, len(a.order))
	for _, name := range a.order {
		call := a.calls[name]
		argsJSON, err := json.Marshal(call.args)
		if err != nil {
			argsJSON = []byte("{}")
		}
		id := call.id
		if id == "" {
			id = mintCallID(name)
		}
		out = append(out, finalizedCall{ID: id, Name: name, Arguments: string(argsJSON)})
	}
	return out
}

type finalizedCall struct {
	ID        string
	Name      string
	Arguments string
}

// mintCallID generates "call_<name>_<8-hex-random>" (spec §4.4,
// "Finalization").
func mintCallID(name string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("call_%s_00000000", name)
	}
	return fmt.Sprintf("call_%s_%s", name, hex.EncodeToString(buf))
}
