package router

import (
	"math"
	"testing"
)

func newTestRouter() *Router {
	return New(nil, KeywordSets{})
}

func TestClassifyPrecedence(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		title string
		want  Importance
	}{
		{"시장 분석 보고서", ImportanceCore},
		{"부록 A", ImportanceSimple},
		{"일정 및 마일스톤", ImportanceStandard},
		{"Market Analysis", ImportanceCore},
		{"Appendix B: Reference Tables", ImportanceSimple},
		{"Team Milestones", ImportanceStandard},
		{"", ImportanceStandard},
		{"완전히 새로운 제목", ImportanceStandard},
	}
	for _, tc := range cases {
		if got := r.Classify(tc.title); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.title, got, tc.want)
		}
	}
}

func TestClassifyCoreWinsOverSimple(t *testing.T) {
	r := newTestRouter()
	// Contains both a core keyword (분석) and a simple keyword (부록).
	if got := r.Classify("부록: 시장 분석 상세"); got != ImportanceCore {
		t.Fatalf("core keyword must win over simple, got %s", got)
	}
	if got := r.Classify("Appendix: Financial Analysis"); got != ImportanceCore {
		t.Fatalf("core keyword must win over simple (english), got %s", got)
	}
}

func TestRouteWriterCoreSection(t *testing.T) {
	r := newTestRouter()

	d := r.RouteWriter("시장 분석", 5, 10, false)
	if d.Model != TierSonnet {
		t.Fatalf("core without pro mode must use sonnet, got %s", d.Model)
	}
	if d.MaxTokens != 2000 || d.TargetChars != 1000 {
		t.Fatalf("core budget = (%d, %d), want (2000, 1000)", d.MaxTokens, d.TargetChars)
	}

	d = r.RouteWriter("시장 분석", 5, 10, true)
	if d.Model != TierOpus {
		t.Fatalf("core with pro mode must use opus, got %s", d.Model)
	}
	if d.MaxTokens != 2000 {
		t.Fatalf("budget must not change with pro mode, got %d", d.MaxTokens)
	}
}

func TestRouteWriterSimpleNeverOpus(t *testing.T) {
	r := newTestRouter()
	// Simple sections stay on sonnet even in an executive position under pro mode.
	d := r.RouteWriter("부록 A", 0, 10, true)
	if d.Model != TierSonnet {
		t.Fatalf("simple section must never route to opus, got %s", d.Model)
	}
	if d.MaxTokens != 600 || d.TargetChars != 300 {
		t.Fatalf("simple budget = (%d, %d), want (600, 300)", d.MaxTokens, d.TargetChars)
	}
}

func TestRouteWriterStandardPositionOverride(t *testing.T) {
	r := newTestRouter()

	// First three and last two positions are executive-summary equivalents.
	for _, idx := range []int{0, 1, 2, 8, 9} {
		d := r.RouteWriter("일정", idx, 10, true)
		if d.Model != TierOpus {
			t.Fatalf("index %d should trigger the positional upgrade, got %s", idx, d.Model)
		}
	}
	for _, idx := range []int{3, 4, 7} {
		d := r.RouteWriter("일정", idx, 10, true)
		if d.Model != TierSonnet {
			t.Fatalf("index %d is a middle position, want sonnet, got %s", idx, d.Model)
		}
	}

	// Without pro mode the override never upgrades.
	d := r.RouteWriter("일정", 0, 10, false)
	if d.Model != TierSonnet {
		t.Fatalf("positional override without pro mode must stay sonnet, got %s", d.Model)
	}
	if d.MaxTokens != 1200 || d.TargetChars != 600 {
		t.Fatalf("standard budget = (%d, %d), want (1200, 600)", d.MaxTokens, d.TargetChars)
	}
}

func TestFixedRoleRoutes(t *testing.T) {
	r := newTestRouter()
	if got := r.RouteArchitect(); got != TierSonnet {
		t.Fatalf("RouteArchitect = %s, want sonnet", got)
	}
	if got := r.RouteReviewer(); got != TierSonnet {
		t.Fatalf("RouteReviewer = %s, want sonnet", got)
	}
	if got := r.RouteImageCurator(); got != TierHaiku {
		t.Fatalf("RouteImageCurator = %s, want haiku", got)
	}
}

func TestEstimateCost(t *testing.T) {
	r := newTestRouter()

	got := r.EstimateCost(TierSonnet, 1000, 500)
	want := 1000*0.000003 + 500*0.000015
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("EstimateCost(sonnet, 1000, 500) = %f, want %f", got, want)
	}

	// Unknown models price as sonnet.
	if r.EstimateCost("unknown-model", 1000, 1000) != r.EstimateCost(TierSonnet, 1000, 1000) {
		t.Fatal("unknown model must fall back to sonnet pricing")
	}

	// Zero tokens cost zero for every tier, known or not.
	for _, tier := range []Tier{TierOpus, TierSonnet, TierHaiku, "unknown-model"} {
		if cost := r.EstimateCost(tier, 0, 0); cost != 0 {
			t.Fatalf("EstimateCost(%s, 0, 0) = %f, want 0", tier, cost)
		}
	}
}

func TestEstimateCostCustomPricing(t *testing.T) {
	table := PricingTable{
		TierSonnet: {InputPerToken: 0.001, OutputPerToken: 0.002},
	}
	r := New(table, KeywordSets{})
	got := r.EstimateCost(TierSonnet, 10, 10)
	if math.Abs(got-0.03) > 1e-12 {
		t.Fatalf("custom pricing cost = %f, want 0.03", got)
	}
	// Opus is absent from the custom table, so it prices as sonnet.
	if r.EstimateCost(TierOpus, 10, 10) != got {
		t.Fatal("missing tier must fall back to the sonnet entry")
	}
}
