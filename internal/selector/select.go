package selector

import (
	"context"
	"strings"

	"github.com/coreflux/agentturn/pkg/models"
)

// webSearchDampingThreshold and webSearchDampingFactor implement the
// general web-search damping boost of spec §4.1 step 6b.
const (
	webSearchDampingThreshold = 0.8
	webSearchDampingFactor    = 0.85
	keywordBoostMin           = 0.3
	keywordBoostMax           = 0.5
	categoryBoost             = 0.1
)

// Selector ranks a tool catalog for one query (spec §4.1).
type Selector struct {
	cfg     *Config
	cache   *EmbeddingCache
	embedder Embedder
}

// New constructs a Selector. embedder may be nil, in which case step 6
// (embedding ranking) is skipped per the failure semantics of spec §4.1.
func New(cfg *Config, cache *EmbeddingCache, embedder Embedder) *Selector {
	return &Selector{cfg: sanitize(cfg), cache: cache, embedder: embedder}
}

// SelectInput is the argument set of spec §4.1's select() contract.
// QueryCategories is the caller-supplied inferred category set for the
// query, used for the +0.1 category boost (spec §4.1 step 6c); inferring
// it (e.g. via an intent classifier) is outside this package's contract.
type SelectInput struct {
	Query           string
	User            *models.User
	Catalog         []models.ToolDefinition
	MaxTools        int
	QueryCategories map[string]bool
}

// Select implements the Contract of spec §4.1:
// select(query, user, catalog, maxTools) → shortlist.
func (s *Selector) Select(ctx context.Context, in SelectInput) []models.ToolDefinition {
	maxTools := in.MaxTools
	if maxTools <= 0 || maxTools > s.cfg.HardCap {
		maxTools = s.cfg.HardCap
	}

	byName := make(map[string]models.ToolDefinition, len(in.Catalog))
	for _, def := range in.Catalog {
		byName[def.Name] = def
	}

	if s.cfg.Disabled {
		names := make([]string, 0, len(in.Catalog))
		for _, def := range in.Catalog {
			names = append(names, def.Name)
		}
		permitted := filterByPermission(names, byName, in.User)
		out := make([]models.ToolDefinition, 0, len(permitted))
		for _, name := range permitted {
			out = append(out, byName[name])
		}
		return hardCapSlice(out, s.cfg.HardCap)
	}

	var ordered []string
	seen := map[string]bool{}
	add := func(names []string) {
		for _, name := range names {
			if seen[name] {
				continue
			}
			if _, ok := byName[name]; !ok {
				continue
			}
			seen[name] = true
			ordered = append(ordered, name)
		}
	}

	intent := MatchDirectIntent(in.Query)
	add(intent)
	add(MatchEntityMentions(in.Query))
	add(s.cfg.AlwaysInclude)

	if len(ordered) < maxTools && s.embedder != nil {
		ranked := s.rankByEmbedding(ctx, in, byName, seen)
		add(ranked)
	}

	filtered := filterByPermission(ordered, byName, in.User)

	if len(filtered) > maxTools {
		filtered = filtered[:maxTools]
	}

	if len(filtered) == 0 {
		return fallback(in.Catalog, s.cfg.HardCap, in.User)
	}

	out := make([]models.ToolDefinition, 0, len(filtered))
	for _, name := range filtered {
		out = append(out, byName[name])
	}
	return out
}

func (s *Selector) rankByEmbedding(ctx context.Context, in SelectInput, byName map[string]models.ToolDefinition, already map[string]bool) []string {
	queryEmb, err := s.embedder.Embed(ctx, in.Query)
	if err != nil {
		return nil
	}

	var candidates []scoredTool

	for name, def := range byName {
		if already[name] {
			continue
		}
		emb, cachedDef, ok := s.cacheLookup(name, def)
		if !ok {
			continue
		}
		score := cosineSimilarity(queryEmb, emb)

		if keywordBoostApplies(in.Query, cachedDef) {
			score += keywordBoostMax
		}
		if isWebSearchTool(name) && score < webSearchDampingThreshold {
			score *= webSearchDampingFactor
		}
		for cat := range in.QueryCategories {
			if containsString(cachedDef.Metadata.Categories, cat) {
				score += categoryBoost
			}
		}

		if score >= s.cfg.ScoreThreshold {
			candidates = append(candidates, scoredTool{name, score})
		}
	}

	sortByScoreDesc(candidates)

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

func (s *Selector) cacheLookup(name string, def models.ToolDefinition) ([]float32, models.ToolDefinition, bool) {
	if s.cache == nil {
		return nil, def, false
	}
	return s.cache.Get(name)
}

func keywordBoostApplies(query string, def models.ToolDefinition) bool {
	lower := strings.ToLower(query)
	for _, kw := range def.Metadata.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func isWebSearchTool(name string) bool {
	return strings.Contains(strings.ToLower(name), "web_search")
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type scoredTool struct {
	name  string
	score float64
}

func sortByScoreDesc(items []scoredTool) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].score > items[j-1].score; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func filterByPermission(names []string, byName map[string]models.ToolDefinition, user *models.User) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		def := byName[name]
		if !def.RequiresPermission() || user.HasPermission(def.Metadata.RequiredPermissionName) {
			out = append(out, name)
		}
	}
	return out
}

func hardCapSlice(catalog []models.ToolDefinition, hardCap int) []models.ToolDefinition {
	if len(catalog) > hardCap {
		return catalog[:hardCap]
	}
	return catalog
}

// fallback returns the catalog's first hardCap permission-eligible
// entries when every earlier step yields nothing (spec §4.1, "Failure
// semantics").
func fallback(catalog []models.ToolDefinition, hardCap int, user *models.User) []models.ToolDefinition {
	var out []models.ToolDefinition
	for _, def := range catalog {
		if len(out) >= hardCap {
			break
		}
		if !def.RequiresPermission() || user.HasPermission(def.Metadata.RequiredPermissionName) {
			out = append(out, def)
		}
	}
	return out
}
