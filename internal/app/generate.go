package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"docforge/internal/imagery"
	"docforge/internal/integrations/llm"
	"docforge/internal/ledger"
	"docforge/internal/router"
)

// Generator drives one document run through the governance layer: every
// unit of work is routed, invoked, and its usage recorded.
type Generator struct {
	Title    string
	Sections []string
	ProMode  bool

	Router   *router.Router
	Ledger   *ledger.Ledger
	Agent    llm.Agent
	Pipeline *imagery.Pipeline
	Fallback *imagery.Fallback
}

type sectionDraft struct {
	title string
	body  string
	image string // markdown image block, may be empty
}

// Run produces the assembled markdown document.
func (g *Generator) Run(ctx context.Context) (string, error) {
	sections := g.Sections
	if len(sections) == 0 {
		designed, err := g.designOutline(ctx)
		if err != nil {
			return "", fmt.Errorf("designing outline: %w", err)
		}
		sections = designed
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("no sections to generate")
	}

	drafts := make([]sectionDraft, len(sections))
	var wg sync.WaitGroup
	for i, title := range sections {
		wg.Add(1)
		go func(idx int, title string) {
			defer wg.Done()
			drafts[idx] = g.writeSection(ctx, title, idx, len(sections))
		}(i, title)
	}
	wg.Wait()

	doc := g.assemble(sections, drafts)
	g.review(ctx, doc)
	return doc, nil
}

// designOutline asks the architect agent for section titles, one per line.
func (g *Generator) designOutline(ctx context.Context) ([]string, error) {
	tier := g.Router.RouteArchitect()
	resp, err := g.Agent.Invoke(ctx, llm.Request{
		System: "You design the structure of long-form business documents. " +
			"Respond with 6-10 section titles only, one per line, in the document's language. No numbering, no prose.",
		Prompt:    fmt.Sprintf("Document title: %s", g.Title),
		Tier:      tier,
		MaxTokens: 500,
	})
	if err != nil {
		return nil, err
	}
	g.Ledger.Record(ledger.Event{
		Role:         ledger.RoleArchitect,
		Model:        tier,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	})

	var titles []string
	for _, line := range strings.Split(resp.Text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*•0123456789. "))
		if line != "" {
			titles = append(titles, line)
		}
	}
	log.Printf("outline designed sections=%d", len(titles))
	return titles, nil
}

// writeSection routes, generates and illustrates one section.
func (g *Generator) writeSection(ctx context.Context, title string, index, total int) sectionDraft {
	decision := g.Router.RouteWriter(title, index, total, g.ProMode)
	log.Printf("writer routed section=%q index=%d model=%s max_tokens=%d",
		title, index, decision.Model, decision.MaxTokens)

	draft := sectionDraft{title: title}
	resp, err := g.Agent.Invoke(ctx, llm.Request{
		System: fmt.Sprintf("You write one section of a business document. "+
			"Target about %d characters of polished prose in the section's language. Markdown body only, no heading.",
			decision.TargetChars),
		Prompt:    fmt.Sprintf("Document: %s\nSection: %s (position %d of %d)", g.Title, title, index+1, total),
		Tier:      decision.Model,
		MaxTokens: decision.MaxTokens,
	})
	if err != nil {
		log.Printf("writer failed section=%q: %v", title, err)
		draft.body = "_이 섹션은 생성에 실패했습니다._"
		return draft
	}
	g.Ledger.Record(ledger.Event{
		Role:         ledger.RoleWriter,
		SectionTitle: title,
		Model:        decision.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	})
	draft.body = strings.TrimSpace(resp.Text)
	draft.image = g.illustrate(ctx, title, draft.body)
	return draft
}

// illustrate runs the curation pipeline and falls back to the
// deterministic chain when the primary path yields nothing.
func (g *Generator) illustrate(ctx context.Context, title, body string) string {
	if best := g.Pipeline.FindBest(ctx, title, body); best != nil {
		caption := best.Caption
		if caption == "" {
			caption = best.Title
		}
		return fmt.Sprintf("![%s](%s)\n*%s (%s)*", caption, best.URL, caption, best.SourceName)
	}

	photo := g.Fallback.Best(ctx, title)
	if photo.Photographer != "" {
		return fmt.Sprintf("![%s](%s)\n*Photo: %s*", photo.Alt, photo.URL, photo.Photographer)
	}
	return fmt.Sprintf("![%s](%s)", photo.Alt, photo.URL)
}

// review runs one quality pass over the assembled document. Findings are
// logged; they do not block the run.
func (g *Generator) review(ctx context.Context, doc string) {
	tier := g.Router.RouteReviewer()
	resp, err := g.Agent.Invoke(ctx, llm.Request{
		System: "You review business documents. Respond with at most five short findings, one per line.",
		Prompt: truncateForReview(doc),
		Tier:   tier,
		// Findings only; the reviewer never rewrites.
		MaxTokens: 600,
	})
	if err != nil {
		log.Printf("review failed (non-fatal): %v", err)
		return
	}
	g.Ledger.Record(ledger.Event{
		Role:         ledger.RoleReviewer,
		Model:        tier,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	})
	for _, line := range strings.Split(strings.TrimSpace(resp.Text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			log.Printf("review finding: %s", line)
		}
	}
}

func (g *Generator) assemble(sections []string, drafts []sectionDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Title)
	for _, d := range drafts {
		fmt.Fprintf(&b, "## %s\n\n", d.title)
		if d.image != "" {
			b.WriteString(d.image)
			b.WriteString("\n\n")
		}
		b.WriteString(d.body)
		b.WriteString("\n\n")
	}
	return b.String()
}

const maxReviewChars = 6000

func truncateForReview(doc string) string {
	runes := []rune(doc)
	if len(runes) <= maxReviewChars {
		return doc
	}
	return string(runes[:maxReviewChars]) + "\n...(truncated)"
}
