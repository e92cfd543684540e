// Package imagery implements the image curation pipeline: AI-assisted
// search and scoring on the primary path, and a deterministic multi-tier
// fallback chain that always produces an image value.
package imagery

// ImageCandidate is a search hit that survived the resolution filter.
type ImageCandidate struct {
	URL          string
	ThumbnailURL string
	Title        string
	SourceName   string
	SourceURL    string
	Width        int
	Height       int
}

// ScoredImage is a candidate the scoring model admitted, with its
// relevance score (0..100) and a display caption.
type ScoredImage struct {
	ImageCandidate
	RelevanceScore int
	Caption        string
}

// Photo is the normalized shape produced by the fallback chain, carrying
// attribution metadata when the remote tier supplied it.
type Photo struct {
	URL          string
	ThumbnailURL string
	Alt          string
	Photographer string
	SourceURL    string
	Width        int
	Height       int
}
