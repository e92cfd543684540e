package ledger

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"docforge/internal/router"
)

func newTestLedger() *Ledger {
	return New(router.New(nil, router.KeywordSets{}))
}

func TestRecordWriterAppendsEntries(t *testing.T) {
	l := newTestLedger()

	l.Record(Event{Role: RoleWriter, SectionTitle: "시장 분석", Model: router.TierOpus, InputTokens: 100, OutputTokens: 200})
	l.Record(Event{Role: RoleWriter, SectionTitle: "시장 분석", Model: router.TierOpus, InputTokens: 50, OutputTokens: 60})
	l.Record(Event{Role: RoleWriter, Model: router.TierSonnet, InputTokens: 10, OutputTokens: 20})

	entries := l.WriterEntries()
	if len(entries) != 3 {
		t.Fatalf("writer entries = %d, want 3 (same-title calls must not merge)", len(entries))
	}
	if entries[2].SectionTitle != "Section 3" {
		t.Fatalf("missing title must default to position, got %q", entries[2].SectionTitle)
	}

	sum := l.Summary()
	if sum.Writer.SectionCount != 3 {
		t.Fatalf("SectionCount = %d, want 3", sum.Writer.SectionCount)
	}
	if len(sum.Writer.Models) != 2 || sum.Writer.Models[0] != router.TierOpus || sum.Writer.Models[1] != router.TierSonnet {
		t.Fatalf("distinct models in first-appearance order, got %v", sum.Writer.Models)
	}
	if sum.Writer.InputTokens != 160 || sum.Writer.OutputTokens != 280 {
		t.Fatalf("writer tokens = (%d, %d), want (160, 280)", sum.Writer.InputTokens, sum.Writer.OutputTokens)
	}
}

func TestRecordBucketsAndTotal(t *testing.T) {
	l := newTestLedger()

	l.Record(Event{Role: RoleArchitect, Model: router.TierSonnet, InputTokens: 1000, OutputTokens: 500})
	l.Record(Event{Role: RoleImageCurator, Model: router.TierHaiku, InputTokens: 300, OutputTokens: 100})
	l.Record(Event{Role: RoleReviewer, Model: router.TierSonnet, InputTokens: 400, OutputTokens: 200})
	l.Record(Event{Role: RoleReviewer, Model: router.TierOpus, InputTokens: 100, OutputTokens: 50})

	sum := l.Summary()
	if sum.Architect.TotalTokens != 1500 {
		t.Fatalf("architect total tokens = %d, want 1500", sum.Architect.TotalTokens)
	}
	if sum.Reviewer.InputTokens != 500 || sum.Reviewer.OutputTokens != 250 {
		t.Fatalf("reviewer bucket must accumulate, got (%d, %d)", sum.Reviewer.InputTokens, sum.Reviewer.OutputTokens)
	}
	if sum.Reviewer.Model != router.TierOpus {
		t.Fatalf("bucket model must reflect the latest event, got %s", sum.Reviewer.Model)
	}
	if sum.Total.InputTokens != 1800 || sum.Total.OutputTokens != 850 {
		t.Fatalf("run total = (%d, %d), want (1800, 850)", sum.Total.InputTokens, sum.Total.OutputTokens)
	}
	if sum.ElapsedSeconds < 0 {
		t.Fatalf("elapsed seconds must be non-negative, got %f", sum.ElapsedSeconds)
	}
}

func TestRecordDefaultsModelToSonnet(t *testing.T) {
	l := newTestLedger()
	l.Record(Event{Role: RoleArchitect, InputTokens: 1000, OutputTokens: 500})

	sum := l.Summary()
	if sum.Architect.Model != router.TierSonnet {
		t.Fatalf("missing model must default to sonnet, got %s", sum.Architect.Model)
	}
	want := 1000*0.000003 + 500*0.000015
	if math.Abs(sum.Architect.Cost-want) > 1e-12 {
		t.Fatalf("architect cost = %f, want %f", sum.Architect.Cost, want)
	}
}

func TestWriterCostIsExactSum(t *testing.T) {
	l := newTestLedger()

	var want float64
	r := router.New(nil, router.KeywordSets{})
	for i := 0; i < 17; i++ {
		in, out := int64(100+i), int64(200+i)
		l.Record(Event{Role: RoleWriter, SectionTitle: fmt.Sprintf("s%d", i), Model: router.TierSonnet, InputTokens: in, OutputTokens: out})
		want += r.EstimateCost(router.TierSonnet, in, out)
	}

	sum := l.Summary()
	if sum.Writer.SectionCount != 17 {
		t.Fatalf("SectionCount = %d, want 17", sum.Writer.SectionCount)
	}
	if sum.Writer.Cost != want {
		t.Fatalf("writer cost = %.12f, want exact sum %.12f", sum.Writer.Cost, want)
	}
}

func TestRecordConcurrent(t *testing.T) {
	l := newTestLedger()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Record(Event{Role: RoleWriter, SectionTitle: fmt.Sprintf("s%d", i), Model: router.TierSonnet, InputTokens: 10, OutputTokens: 20})
			l.Record(Event{Role: RoleReviewer, Model: router.TierSonnet, InputTokens: 1, OutputTokens: 2})
		}(i)
	}
	wg.Wait()

	sum := l.Summary()
	if sum.Writer.SectionCount != workers {
		t.Fatalf("writer entries = %d, want %d", sum.Writer.SectionCount, workers)
	}
	if sum.Total.InputTokens != workers*11 || sum.Total.OutputTokens != workers*22 {
		t.Fatalf("total tokens = (%d, %d), want (%d, %d)",
			sum.Total.InputTokens, sum.Total.OutputTokens, workers*11, workers*22)
	}
}

func TestReportNoFindingsUnderBudget(t *testing.T) {
	l := newTestLedger()
	l.Record(Event{Role: RoleWriter, SectionTitle: "a", Model: router.TierSonnet, InputTokens: 100, OutputTokens: 2000})
	l.Record(Event{Role: RoleWriter, SectionTitle: "b", Model: router.TierSonnet, InputTokens: 100, OutputTokens: 1000})

	rep := l.Report(0)
	for _, s := range rep.Suggestions {
		if s.Kind == SuggestionOverBudget {
			t.Fatalf("no section exceeds 2500 output tokens, got %q", s.Message)
		}
	}
	if len(rep.OverBudgetSections) != 0 {
		t.Fatalf("OverBudgetSections = %v, want empty", rep.OverBudgetSections)
	}
}

func TestReportFlagsOverBudgetAndModelMix(t *testing.T) {
	l := newTestLedger()
	l.Record(Event{Role: RoleWriter, SectionTitle: "시장 분석", Model: router.TierOpus, InputTokens: 100, OutputTokens: 3000})
	l.Record(Event{Role: RoleWriter, SectionTitle: "일정", Model: router.TierSonnet, InputTokens: 100, OutputTokens: 500})

	rep := l.Report(0)
	if len(rep.OverBudgetSections) != 1 || rep.OverBudgetSections[0] != "시장 분석" {
		t.Fatalf("OverBudgetSections = %v, want [시장 분석]", rep.OverBudgetSections)
	}
	if rep.OpusWriterCount != 1 || rep.SonnetWriterCount != 1 {
		t.Fatalf("model mix = (%d opus, %d sonnet), want (1, 1)", rep.OpusWriterCount, rep.SonnetWriterCount)
	}
	var hasMix bool
	for _, s := range rep.Suggestions {
		if s.Kind == SuggestionModelMix {
			hasMix = true
		}
	}
	if !hasMix {
		t.Fatal("opus writer usage must produce a model_mix suggestion")
	}
}

func TestReportImageCuratorDowngrade(t *testing.T) {
	l := newTestLedger()
	l.Record(Event{Role: RoleImageCurator, Model: router.TierSonnet, InputTokens: 10, OutputTokens: 10})

	rep := l.Report(0)
	var found bool
	for _, s := range rep.Suggestions {
		if s.Kind == SuggestionDowngradeImage {
			found = true
		}
	}
	if !found {
		t.Fatal("non-haiku image curator must be flagged for downgrade")
	}

	// On haiku there is no flag and the breakdown counts it.
	l2 := newTestLedger()
	l2.Record(Event{Role: RoleImageCurator, Model: router.TierHaiku, InputTokens: 10, OutputTokens: 10})
	rep2 := l2.Report(0)
	for _, s := range rep2.Suggestions {
		if s.Kind == SuggestionDowngradeImage {
			t.Fatal("haiku image curator must not be flagged")
		}
	}
	if rep2.ModelBreakdown[router.TierHaiku] != 1 {
		t.Fatalf("haiku breakdown = %d, want 1", rep2.ModelBreakdown[router.TierHaiku])
	}
}

func TestReportCostVerdict(t *testing.T) {
	l := newTestLedger()
	l.Record(Event{Role: RoleWriter, SectionTitle: "a", Model: router.TierSonnet, InputTokens: 1000, OutputTokens: 1000})

	rep := l.Report(0)
	if !rep.WithinTarget {
		t.Fatalf("cost %f should be within the default %f target", rep.TotalCost, rep.CostTarget)
	}

	rep = l.Report(0.000001)
	if rep.WithinTarget {
		t.Fatal("tiny target must produce a cost warning")
	}
	var warned bool
	for _, s := range rep.Suggestions {
		if s.Kind == SuggestionCostWarning {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a cost_warning suggestion")
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(0.0105); got != "$0.0105" {
		t.Fatalf("FormatUSD = %q, want $0.0105", got)
	}
	if got := FormatUSD(0); got != "$0.0000" {
		t.Fatalf("FormatUSD(0) = %q, want $0.0000", got)
	}
}
