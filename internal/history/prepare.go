package history

import "github.com/coreflux/agentturn/pkg/models"

// Preparer runs the filter→optimize→scratchpad-inject→format→repair
// pipeline of spec §4.2.
type Preparer struct {
	cfg *Config
}

// New constructs a Preparer. A nil cfg falls back to Default().
func New(cfg *Config) *Preparer {
	return &Preparer{cfg: sanitize(cfg)}
}

// Prepare implements the Contract of spec §4.2:
// prepare(messages, maxItems, scratchpad, user) → (providerSequence, warnings).
// maxItems overrides the Preparer's configured bound when positive.
func (p *Preparer) Prepare(messages []*models.Message, maxItems int, scratchpad []models.ScratchpadEntry) ([]ProviderMessage, []string) {
	cfg := *p.cfg
	if maxItems > 0 {
		cfg.MaxItems = maxItems
	}

	filtered := filterMessages(messages)
	budgeted := optimizeMessages(&cfg, filtered)
	withMemory := injectScratchpad(&cfg, budgeted, scratchpad)

	mapped, mapWarnings := mapToProviderFormat(withMemory)
	repaired, repairWarnings := repairSequence(mapped)

	warnings := append(mapWarnings, repairWarnings...)
	if trailingUnresolved(repaired) {
		warnings = append(warnings, "sequence ends with unresolved function calls")
	}

	return repaired, warnings
}

// trailingUnresolved reports whether the sequence's last message is a
// model turn with function calls that nothing downstream answered (spec
// §4.2 step 7: kept, but flagged).
func trailingUnresolved(messages []ProviderMessage) bool {
	if len(messages) == 0 {
		return false
	}
	last := messages[len(messages)-1]
	return last.Role == ProviderModel && last.hasFunctionCalls()
}
