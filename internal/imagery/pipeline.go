package imagery

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/tidwall/gjson"

	"docforge/internal/integrations/imagesearch"
	"docforge/internal/integrations/llm"
	"docforge/internal/ledger"
	"docforge/internal/router"
)

const (
	// defaultTimeout bounds one FindBest call end to end.
	defaultTimeout = 15 * time.Second

	// Candidates below this resolution are discarded at the search
	// boundary and never reach scoring.
	minCandidateWidth  = 800
	minCandidateHeight = 600

	// The scoring prompt asks the model to admit 90+, but the post-filter
	// keeps only 95+. The stricter value is authoritative.
	scorePromptThreshold = 90
	scoreKeepThreshold   = 95

	searchCount       = 10
	maxScoreCands     = 8
	queryContentChars = 500
	scoreContentChars = 400
)

// SearchClient is the slice of the image-search provider the pipeline
// uses.
type SearchClient interface {
	Configured() bool
	Query(ctx context.Context, query string, count int) ([]imagesearch.RawResult, error)
}

// UsageRecorder receives the pipeline's own LLM usage events. The ledger
// satisfies it.
type UsageRecorder interface {
	Record(ev ledger.Event)
}

// Pipeline is the primary curation path: query generation, candidate
// search, relevance scoring, all raced against a wall-clock budget.
type Pipeline struct {
	search  SearchClient
	agent   llm.Agent // nil when no scoring-model key is configured
	router  *router.Router
	usage   UsageRecorder // optional
	timeout time.Duration
}

// NewPipeline assembles the primary path. agent may be nil (scoring
// disabled); usage may be nil (usage not tracked); timeout <= 0 uses the
// default budget.
func NewPipeline(search SearchClient, agent llm.Agent, rt *router.Router, usage UsageRecorder, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Pipeline{search: search, agent: agent, router: rt, usage: usage, timeout: timeout}
}

// Available reports whether the primary path can run at all. Callers
// check this before entering the pipeline.
func (p *Pipeline) Available() bool {
	return p.search != nil && p.search.Configured()
}

// GenerateQuery turns a section into a short image search query. Without a
// scoring model it strips the title down to letters, digits and spaces;
// with one it asks the lightweight tier for a single-line query. Any call
// failure falls back to the raw title. Never returns an error.
func (p *Pipeline) GenerateQuery(ctx context.Context, title, content string) string {
	if p.agent == nil {
		return stripQueryText(title)
	}

	tier := p.router.RouteImageCurator()
	resp, err := p.agent.Invoke(ctx, llm.Request{
		System: "You generate image search queries. Respond with exactly one line: " +
			"a 2-5 word English search query for a stock photo matching the section. " +
			"No quotes, no explanations.",
		Prompt:    fmt.Sprintf("Section title: %s\n\nSection content:\n%s", title, truncateRunes(content, queryContentChars)),
		Tier:      tier,
		MaxTokens: 100,
	})
	if err != nil {
		log.Printf("image query generation failed, using title: %v", err)
		return title
	}
	p.recordUsage(tier, resp)

	query := strings.TrimSpace(resp.Text)
	if idx := strings.IndexByte(query, '\n'); idx >= 0 {
		query = strings.TrimSpace(query[:idx])
	}
	if query == "" {
		return title
	}
	return query
}

// Search runs the provider query and normalizes hits. Unavailable
// providers and any provider failure yield an empty slice, never an
// error. Candidates below 800x600 are dropped here.
func (p *Pipeline) Search(ctx context.Context, query string, count int) []ImageCandidate {
	if !p.Available() {
		return nil
	}
	if count <= 0 {
		count = searchCount
	}

	results, err := p.search.Query(ctx, query, count)
	if err != nil {
		log.Printf("image search failed query=%q: %v", query, err)
		return nil
	}

	var candidates []ImageCandidate
	for _, r := range results {
		if r.OriginalWidth < minCandidateWidth || r.OriginalHeight < minCandidateHeight {
			continue
		}
		candidates = append(candidates, ImageCandidate{
			URL:          r.Original,
			ThumbnailURL: r.Thumbnail,
			Title:        r.Title,
			SourceName:   r.Source,
			SourceURL:    r.Link,
			Width:        r.OriginalWidth,
			Height:       r.OriginalHeight,
		})
	}
	log.Printf("image search query=%q hits=%d candidates=%d", query, len(results), len(candidates))
	return candidates
}

// Score asks the scoring model to rate candidates against the section and
// keeps only entries at or above the hard threshold, sorted by descending
// score. No scoring model or no candidates yields an empty slice.
func (p *Pipeline) Score(ctx context.Context, title, content string, candidates []ImageCandidate) []ScoredImage {
	if p.agent == nil || len(candidates) == 0 {
		return nil
	}
	if len(candidates) > maxScoreCands {
		candidates = candidates[:maxScoreCands]
	}

	var lines strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&lines, "%d. %s | %s | %dx%d\n", i, c.Title, c.SourceName, c.Width, c.Height)
	}

	system := fmt.Sprintf(`You rate stock-image candidates for a business document section.
Scoring rubric: topic match 50%%, document suitability 30%%, quality indicators 20%%.
Return ONLY a JSON array of candidates scoring %d or above:
[{"index": 0, "score": 95, "caption": "one-line caption"}]
Return [] if none qualify. No markdown, no prose.`, scorePromptThreshold)

	tier := p.router.RouteImageCurator()
	resp, err := p.agent.Invoke(ctx, llm.Request{
		System: system,
		Prompt: fmt.Sprintf("Section title: %s\n\nSection excerpt:\n%s\n\nCandidates:\n%s",
			title, truncateRunes(content, scoreContentChars), lines.String()),
		Tier:      tier,
		MaxTokens: 500,
	})
	if err != nil {
		log.Printf("image scoring failed title=%q: %v", title, err)
		return nil
	}
	p.recordUsage(tier, resp)

	return filterScored(resp.Text, candidates)
}

// filterScored leniently parses the model output (first [...] substring)
// and applies the hard threshold and index validation.
func filterScored(text string, candidates []ImageCandidate) []ScoredImage {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return nil
	}
	parsed := gjson.Parse(text[start : end+1])
	if !parsed.IsArray() {
		return nil
	}

	var scored []ScoredImage
	for _, entry := range parsed.Array() {
		idx := int(entry.Get("index").Int())
		score := int(entry.Get("score").Int())
		if score < scoreKeepThreshold || idx < 0 || idx >= len(candidates) {
			continue
		}
		scored = append(scored, ScoredImage{
			ImageCandidate: candidates[idx],
			RelevanceScore: score,
			Caption:        entry.Get("caption").String(),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

// FindBest runs the full chain and races it against the timeout. The
// losing branch is not cancelled: in-flight provider calls may complete
// after nil has been returned, and their results drain into the buffered
// channel. Callers wanting true cancellation wrap ctx themselves.
func (p *Pipeline) FindBest(ctx context.Context, title, content string) *ScoredImage {
	if !p.Available() {
		return nil
	}

	resultCh := make(chan *ScoredImage, 1)
	go func() {
		query := p.GenerateQuery(ctx, title, content)
		candidates := p.Search(ctx, query, searchCount)
		if len(candidates) == 0 {
			resultCh <- nil
			return
		}
		scored := p.Score(ctx, title, content, candidates)
		if len(scored) == 0 {
			resultCh <- nil
			return
		}
		best := scored[0]
		resultCh <- &best
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case result := <-resultCh:
		return result
	case <-timer.C:
		log.Printf("image pipeline timed out after %s title=%q", p.timeout, title)
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (p *Pipeline) recordUsage(tier router.Tier, resp llm.Response) {
	if p.usage == nil {
		return
	}
	p.usage.Record(ledger.Event{
		Role:         ledger.RoleImageCurator,
		Model:        tier,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	})
}

// stripQueryText keeps letters (any script), digits and single spaces.
func stripQueryText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) && !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
