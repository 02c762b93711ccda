package history

// ProviderRole is the alternating role a provider-format sequence uses
// (spec §4.2 step 4: user/model/tool).
type ProviderRole string

const (
	ProviderUser  ProviderRole = "user"
	ProviderModel ProviderRole = "model"
	ProviderTool  ProviderRole = "tool"
)

// FunctionCall is a model-issued tool invocation carried by a "model" turn
// (spec §4.2 step 4).
type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
}

// FunctionResponse is a tool's answer to one FunctionCall, carried by a
// "tool" turn (spec §4.2 step 5).
type FunctionResponse struct {
	ID       string
	Name     string
	Response map[string]any
}

// ProviderMessage is one element of the alternating sequence a provider
// consumes (spec §4.2, "Contract").
type ProviderMessage struct {
	Role              ProviderRole
	Text              string
	FunctionCalls     []FunctionCall
	FunctionResponses []FunctionResponse
	// Placeholder marks a message synthesized by sequence repair rather
	// than derived from session history (spec §4.2 step 6).
	Placeholder bool
}

func (m ProviderMessage) hasFunctionCalls() bool     { return len(m.FunctionCalls) > 0 }
func (m ProviderMessage) hasFunctionResponses() bool { return len(m.FunctionResponses) > 0 }
