package imagery

import (
	"context"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"html"
	"log"
	"net/url"
	"strings"

	"docforge/internal/integrations/photos"
)

// PhotoClient is the slice of the photo provider the fallback chain uses.
type PhotoClient interface {
	Configured() bool
	Search(ctx context.Context, query string, count int, orientation string) ([]photos.RawPhoto, error)
}

// Fallback is the secondary, always-available image provider: remote photo
// search when a key is configured, deterministic seeded placeholders
// otherwise, and a locally rendered SVG as the last resort.
type Fallback struct {
	photos PhotoClient
}

// NewFallback builds the fallback chain. client may be nil (placeholder
// tiers only).
func NewFallback(client PhotoClient) *Fallback {
	return &Fallback{photos: client}
}

// queryDictionary maps Korean section vocabulary to English photo search
// terms, ordered so that earlier business terms win the three-slot budget.
var queryDictionary = []struct {
	kr string
	en string
}{
	{"시장", "market"},
	{"분석", "analysis"},
	{"전략", "strategy"},
	{"재무", "finance"},
	{"금융", "finance"},
	{"투자", "investment"},
	{"수익", "revenue"},
	{"고객", "customer"},
	{"영업", "sales"},
	{"마케팅", "marketing"},
	{"기술", "technology"},
	{"개발", "development"},
	{"데이터", "data"},
	{"보안", "security"},
	{"조직", "organization"},
	{"인사", "people"},
	{"교육", "training"},
	{"연구", "research"},
	{"실험", "laboratory"},
	{"공공", "public"},
	{"정책", "policy"},
	{"정부", "government"},
	{"산업", "industry"},
	{"제조", "manufacturing"},
	{"물류", "logistics"},
	{"환경", "environment"},
	{"에너지", "energy"},
	{"의료", "healthcare"},
	{"건설", "construction"},
	{"일정", "calendar"},
	{"회의", "meeting"},
	{"보고서", "report"},
}

// genericSeeds backs queries with no dictionary hit; the seed is picked by
// a stable hash so the same input always lands on the same word.
var genericSeeds = []string{
	"business", "office", "meeting", "workspace", "teamwork", "city", "abstract", "documents",
}

// colorPalette for SVG placeholders, indexed by the same stable hash.
var colorPalette = []string{
	"#4F6D8F", "#5B8A72", "#8F6D4F", "#6D4F8F", "#4F8F8A", "#8F4F5B", "#6B7280", "#3E6990",
}

// TranslateQuery derives an English photo-search seed from a section
// query. Pure function: repeated calls yield identical output.
func (f *Fallback) TranslateQuery(text string) string {
	trimmed := strings.TrimSpace(text)
	if isPlainASCII(trimmed) && trimmed != "" {
		return strings.ToLower(trimmed)
	}

	var terms []string
	for _, entry := range queryDictionary {
		if strings.Contains(trimmed, entry.kr) {
			terms = append(terms, entry.en)
			if len(terms) == 3 {
				break
			}
		}
	}
	if len(terms) > 0 {
		return strings.Join(terms, "-")
	}

	return genericSeeds[hash32(trimmed)%uint32(len(genericSeeds))]
}

// FetchPhotos returns count photos for the query: the remote provider
// when configured, seeded placeholders on missing key or any failure.
func (f *Fallback) FetchPhotos(ctx context.Context, query string, count int, orientation string) []Photo {
	if count <= 0 {
		count = 1
	}
	if f.photos == nil || !f.photos.Configured() {
		return f.PlaceholderPhotos(query, count)
	}

	raw, err := f.photos.Search(ctx, f.TranslateQuery(query), count, orientation)
	if err != nil {
		log.Printf("photo search failed query=%q: %v", query, err)
		return f.PlaceholderPhotos(query, count)
	}
	if len(raw) == 0 {
		return f.PlaceholderPhotos(query, count)
	}

	out := make([]Photo, 0, len(raw))
	for _, p := range raw {
		photo := Photo{
			URL:          p.Src.Large,
			ThumbnailURL: p.Src.Tiny,
			Alt:          p.Alt,
			Photographer: p.Photographer,
			SourceURL:    p.URL,
			Width:        p.Width,
			Height:       p.Height,
		}
		if photo.URL == "" {
			photo.URL = p.Src.Original
		}
		out = append(out, photo)
	}
	return out
}

// PlaceholderPhotos builds count deterministic seeded URLs: the same
// (query, count) pair always produces the same list, distinct per index.
func (f *Fallback) PlaceholderPhotos(query string, count int) []Photo {
	seed := f.TranslateQuery(query)
	out := make([]Photo, 0, count)
	for i := 0; i < count; i++ {
		indexed := url.PathEscape(fmt.Sprintf("%s-%d", seed, i))
		out = append(out, Photo{
			URL:          fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", indexed),
			ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/400/267", indexed),
			Alt:          query,
			Width:        1200,
			Height:       800,
		})
	}
	return out
}

// SVGPlaceholder renders a local vector placeholder as a base64 data URI.
// Zero network; always succeeds.
func (f *Fallback) SVGPlaceholder(query string, width, height int) Photo {
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 800
	}
	color := colorPalette[hash32(query)%uint32(len(colorPalette))]
	label := html.EscapeString(truncateRunes(strings.TrimSpace(query), 24))

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="%s"/>`+
		`<rect x="8" y="8" width="%d" height="%d" fill="none" stroke="#FFFFFF" stroke-opacity="0.35" stroke-width="2"/>`+
		`<text x="50%%" y="50%%" fill="#FFFFFF" font-family="sans-serif" font-size="%d" text-anchor="middle" dominant-baseline="middle">%s</text>`+
		`</svg>`,
		width, height, width, height, color, width-16, height-16, height/12, label)

	uri := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
	return Photo{
		URL:          uri,
		ThumbnailURL: uri,
		Alt:          query,
		Width:        width,
		Height:       height,
	}
}

// Best returns one photo for the query, walking the full chain: remote
// provider, seeded placeholder, local SVG. Never returns a zero Photo.
func (f *Fallback) Best(ctx context.Context, query string) Photo {
	if found := f.FetchPhotos(ctx, query, 1, "landscape"); len(found) > 0 {
		return found[0]
	}
	return f.SVGPlaceholder(query, 1200, 800)
}

func isPlainASCII(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
		default:
			return false
		}
	}
	return true
}

// hash32 is FNV-1a so the same query always lands on the same seed,
// across platforms and runs.
func hash32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
