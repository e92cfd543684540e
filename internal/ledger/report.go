package ledger

import (
	"fmt"

	"docforge/internal/router"
)

// overBudgetOutputTokens flags writer calls that blew well past any
// configured section budget.
const overBudgetOutputTokens = 2500

// DefaultCostTargetUSD is the per-run cost target the verdict compares
// against when the caller does not supply one.
const DefaultCostTargetUSD = 0.20

// Suggestion kinds emitted by Report.
const (
	SuggestionOverBudget     = "over_budget"
	SuggestionModelMix       = "model_mix"
	SuggestionDowngradeImage = "downgrade_image_curator"
	SuggestionCostWarning    = "cost_warning"
	SuggestionCostOK         = "cost_ok"
)

// Suggestion is one optimization finding.
type Suggestion struct {
	Kind    string
	Message string
}

// Report is the optimization diagnostic derived from the current ledger
// state.
type Report struct {
	Suggestions        []Suggestion
	OverBudgetSections []string
	OpusWriterCount    int
	SonnetWriterCount  int
	OpusWriterCost     float64
	TotalCost          float64
	CostTarget         float64
	WithinTarget       bool
	ModelBreakdown     map[router.Tier]int
}

// Report inspects the recorded usage and produces optimization
// diagnostics: over-budget sections, pro-mode model mix, an image-curator
// downgrade hint, a cost verdict against the target, and a model breakdown.
func (l *Ledger) Report(costTargetUSD float64) Report {
	if costTargetUSD <= 0 {
		costTargetUSD = DefaultCostTargetUSD
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rep := Report{
		CostTarget:     costTargetUSD,
		TotalCost:      l.total.cost,
		ModelBreakdown: map[router.Tier]int{},
	}

	for _, entry := range l.writers {
		if entry.OutputTokens > overBudgetOutputTokens {
			rep.OverBudgetSections = append(rep.OverBudgetSections, entry.SectionTitle)
		}
		switch entry.Model {
		case router.TierOpus:
			rep.OpusWriterCount++
			rep.OpusWriterCost += entry.Cost
			rep.ModelBreakdown[router.TierOpus]++
		case router.TierSonnet:
			rep.SonnetWriterCount++
			rep.ModelBreakdown[router.TierSonnet]++
		}
	}

	if n := len(rep.OverBudgetSections); n > 0 {
		rep.Suggestions = append(rep.Suggestions, Suggestion{
			Kind: SuggestionOverBudget,
			Message: fmt.Sprintf("%d section(s) exceeded %d output tokens: %v",
				n, overBudgetOutputTokens, rep.OverBudgetSections),
		})
	}

	if rep.OpusWriterCount > 0 {
		rep.Suggestions = append(rep.Suggestions, Suggestion{
			Kind: SuggestionModelMix,
			Message: fmt.Sprintf("pro-mode routing active: %d opus vs %d sonnet writer calls, opus cost %s",
				rep.OpusWriterCount, rep.SonnetWriterCount, FormatUSD(rep.OpusWriterCost)),
		})
	}

	if l.imageCurator.model != "" && l.imageCurator.model != router.TierHaiku {
		rep.Suggestions = append(rep.Suggestions, Suggestion{
			Kind: SuggestionDowngradeImage,
			Message: fmt.Sprintf("image curator ran on %s; keyword extraction only needs %s",
				l.imageCurator.model, router.TierHaiku),
		})
	}

	if l.architect.model == router.TierSonnet {
		rep.ModelBreakdown[router.TierSonnet]++
	}
	if l.reviewer.model == router.TierSonnet {
		rep.ModelBreakdown[router.TierSonnet]++
	}
	if l.imageCurator.model == router.TierHaiku {
		rep.ModelBreakdown[router.TierHaiku]++
	}

	rep.WithinTarget = rep.TotalCost <= costTargetUSD
	if rep.WithinTarget {
		rep.Suggestions = append(rep.Suggestions, Suggestion{
			Kind: SuggestionCostOK,
			Message: fmt.Sprintf("run cost %s is within the %s target",
				FormatUSD(rep.TotalCost), FormatUSD(costTargetUSD)),
		})
	} else {
		rep.Suggestions = append(rep.Suggestions, Suggestion{
			Kind: SuggestionCostWarning,
			Message: fmt.Sprintf("run cost %s exceeds the %s target",
				FormatUSD(rep.TotalCost), FormatUSD(costTargetUSD)),
		})
	}

	return rep
}
