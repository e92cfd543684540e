package ledger

import (
	"fmt"
	"sync"
	"time"

	"docforge/internal/router"
)

// Role names the agent that produced a usage event.
type Role string

const (
	RoleArchitect    Role = "architect"
	RoleWriter       Role = "writer"
	RoleImageCurator Role = "imageCurator"
	RoleReviewer     Role = "reviewer"
)

// Event is one recorded agent invocation. Model defaults to sonnet when
// the caller did not report one.
type Event struct {
	Role         Role
	SectionTitle string
	Model        router.Tier
	InputTokens  int64
	OutputTokens int64
}

// WriterEntry is the per-call record kept for section writers. Entries are
// append-only and never merged.
type WriterEntry struct {
	SectionTitle string
	Model        router.Tier
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// bucket is a running total for one single-slot role (and the run total).
type bucket struct {
	model        router.Tier
	inputTokens  int64
	outputTokens int64
	cost         float64
}

func (b *bucket) add(model router.Tier, in, out int64, cost float64) {
	b.model = model
	b.inputTokens += in
	b.outputTokens += out
	b.cost += cost
}

// Ledger accumulates token usage and cost across one generation run. It is
// created at run start, mutated by Record from concurrent agent tasks, read
// by Summary/Report, and discarded at run end. Nothing is persisted here.
type Ledger struct {
	mu        sync.Mutex
	router    *router.Router
	startedAt time.Time

	architect    bucket
	imageCurator bucket
	reviewer     bucket
	writers      []WriterEntry
	total        bucket
}

// New builds an empty ledger costing events through the given router.
func New(r *router.Router) *Ledger {
	return &Ledger{router: r, startedAt: time.Now()}
}

// Record folds one usage event into the run aggregate. Safe for concurrent
// callers; every mutation is a sum or an append.
func (l *Ledger) Record(ev Event) {
	model := ev.Model
	if model == "" {
		model = router.TierSonnet
	}
	cost := l.router.EstimateCost(model, ev.InputTokens, ev.OutputTokens)

	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Role {
	case RoleWriter:
		title := ev.SectionTitle
		if title == "" {
			title = fmt.Sprintf("Section %d", len(l.writers)+1)
		}
		l.writers = append(l.writers, WriterEntry{
			SectionTitle: title,
			Model:        model,
			InputTokens:  ev.InputTokens,
			OutputTokens: ev.OutputTokens,
			Cost:         cost,
		})
	case RoleArchitect:
		l.architect.add(model, ev.InputTokens, ev.OutputTokens, cost)
	case RoleImageCurator:
		l.imageCurator.add(model, ev.InputTokens, ev.OutputTokens, cost)
	case RoleReviewer:
		l.reviewer.add(model, ev.InputTokens, ev.OutputTokens, cost)
	default:
		// Unknown roles still count against the run total below.
	}

	l.total.inputTokens += ev.InputTokens
	l.total.outputTokens += ev.OutputTokens
	l.total.cost += cost
}

// RoleSummary is the read-only aggregate for one single-slot role.
type RoleSummary struct {
	Model        router.Tier
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	Cost         float64
}

// WriterSummary aggregates all writer entries.
type WriterSummary struct {
	SectionCount int
	Models       []router.Tier // distinct, in order of first appearance
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	Cost         float64
}

// Summary is a point-in-time snapshot of the run.
type Summary struct {
	ElapsedSeconds float64
	Writer         WriterSummary
	Architect      RoleSummary
	ImageCurator   RoleSummary
	Reviewer       RoleSummary
	Total          RoleSummary
}

// Summary snapshots the ledger without mutating it.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	var w WriterSummary
	seen := map[router.Tier]bool{}
	for _, entry := range l.writers {
		w.SectionCount++
		if !seen[entry.Model] {
			seen[entry.Model] = true
			w.Models = append(w.Models, entry.Model)
		}
		w.InputTokens += entry.InputTokens
		w.OutputTokens += entry.OutputTokens
		w.Cost += entry.Cost
	}
	w.TotalTokens = w.InputTokens + w.OutputTokens

	return Summary{
		ElapsedSeconds: time.Since(l.startedAt).Seconds(),
		Writer:         w,
		Architect:      l.architect.summary(),
		ImageCurator:   l.imageCurator.summary(),
		Reviewer:       l.reviewer.summary(),
		Total:          l.total.summary(),
	}
}

func (b *bucket) summary() RoleSummary {
	return RoleSummary{
		Model:        b.model,
		InputTokens:  b.inputTokens,
		OutputTokens: b.outputTokens,
		TotalTokens:  b.inputTokens + b.outputTokens,
		Cost:         b.cost,
	}
}

// WriterEntries returns a copy of the per-section writer records.
func (l *Ledger) WriterEntries() []WriterEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]WriterEntry, len(l.writers))
	copy(out, l.writers)
	return out
}

// StartedAt returns the ledger creation time.
func (l *Ledger) StartedAt() time.Time { return l.startedAt }

// FormatUSD renders a cost figure the way reports display currency.
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}
