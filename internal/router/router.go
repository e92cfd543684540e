package router

import "strings"

// Importance is the classification of a document section. It drives both
// the model tier and the token budget for the section's writer call.
type Importance string

const (
	ImportanceCore     Importance = "core"
	ImportanceStandard Importance = "standard"
	ImportanceSimple   Importance = "simple"
)

// Decision is the routing outcome for one unit of work.
type Decision struct {
	Model       Tier
	MaxTokens   int64
	TargetChars int
}

// KeywordSets holds the ordered keyword sets used for classification.
// Precedence is fixed: core first, then simple; standard is the default, so
// its set only documents the phrases expected to land there.
type KeywordSets struct {
	Core     []string
	Simple   []string
	Standard []string
}

// DefaultKeywordSets covers the bilingual section titles the generator
// produces. Matching is case-insensitive substring containment.
func DefaultKeywordSets() KeywordSets {
	return KeywordSets{
		Core: []string{
			"시장", "분석", "전략", "경쟁", "재무", "수익", "핵심", "요약", "결론",
			"market", "analysis", "strategy", "competitive", "financial",
			"revenue", "summary", "conclusion",
		},
		Simple: []string{
			"부록", "참고", "용어", "면책", "문의",
			"appendix", "reference", "glossary", "disclaimer", "faq", "contact",
		},
		Standard: []string{
			"일정", "마일스톤", "현황", "조직", "개요",
			"schedule", "milestone", "timeline", "status", "overview",
		},
	}
}

// Router assigns model tiers and token budgets to work items. All methods
// are pure and safe for concurrent use.
type Router struct {
	pricing  PricingTable
	keywords KeywordSets
}

// New builds a Router over the given pricing table. A nil table uses
// DefaultPricingTable; empty keyword sets use DefaultKeywordSets.
func New(pricing PricingTable, keywords KeywordSets) *Router {
	if pricing == nil {
		pricing = DefaultPricingTable()
	}
	if len(keywords.Core) == 0 && len(keywords.Simple) == 0 {
		keywords = DefaultKeywordSets()
	}
	return &Router{pricing: pricing, keywords: keywords}
}

// Classify maps a section title to an importance level. The core set wins
// over the simple set when a title matches both; anything else is standard.
func (r *Router) Classify(title string) Importance {
	t := strings.ToLower(title)
	if containsAny(t, r.keywords.Core) {
		return ImportanceCore
	}
	if containsAny(t, r.keywords.Simple) {
		return ImportanceSimple
	}
	return ImportanceStandard
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// RouteWriter picks the model and token budget for one section-writer call.
// Core sections get the premium tier under pro mode. Simple sections stay on
// sonnet unconditionally. Standard sections in executive positions (first
// three or last two of the outline) get the same pro-mode upgrade as core.
// The token budget depends on importance only, never on position or mode.
func (r *Router) RouteWriter(title string, index, totalCount int, proMode bool) Decision {
	importance := r.Classify(title)

	model := TierSonnet
	switch importance {
	case ImportanceCore:
		if proMode {
			model = TierOpus
		}
	case ImportanceSimple:
		// Appendix-grade material never warrants the premium tier.
	default:
		if (index < 3 || index >= totalCount-2) && proMode {
			model = TierOpus
		}
	}

	switch importance {
	case ImportanceCore:
		return Decision{Model: model, MaxTokens: 2000, TargetChars: 1000}
	case ImportanceSimple:
		return Decision{Model: model, MaxTokens: 600, TargetChars: 300}
	default:
		return Decision{Model: model, MaxTokens: 1200, TargetChars: 600}
	}
}

// RouteArchitect returns the tier for document-structure design.
func (r *Router) RouteArchitect() Tier { return TierSonnet }

// RouteReviewer returns the tier for quality review passes.
func (r *Router) RouteReviewer() Tier { return TierSonnet }

// RouteImageCurator returns the tier for image keyword extraction and
// scoring. Keyword work never needs more than the lightweight tier.
func (r *Router) RouteImageCurator() Tier { return TierHaiku }

// EstimateCost prices a call in USD. Unknown tiers cost as sonnet; zero
// tokens cost zero for every tier.
func (r *Router) EstimateCost(model Tier, inputTokens, outputTokens int64) float64 {
	entry := r.pricing.lookup(model)
	return float64(inputTokens)*entry.InputPerToken + float64(outputTokens)*entry.OutputPerToken
}
