package media

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// HistoryTurn is the minimal view of a past turn the resolver needs:
// which media handles it carried and in what emission order. The
// agent loop projects Session Store events into HistoryTurns so this
// package never needs to import the session package (no cycle).
type HistoryTurn struct {
	Author string // "user" or "assistant"
	Items  []Handle
}

// LibraryLookup performs the search-index-backed lookup used by
// resolution policy 3 (spec §4.3). Implemented by the Search Index
// Manager (C7); injected here to avoid a package cycle.
type LibraryLookup interface {
	// Lookup returns the best-matching library item for phrase, and
	// the provider's relevance score (pre-clamp), or found=false.
	Lookup(ctx context.Context, brandID, phrase string) (item LibraryItem, score float64, found bool)
}

// Resolver implements C3: resolve(userText, attachments, recentHistory) -> ResolvedSet.
type Resolver struct {
	Library LibraryLookup
}

func NewResolver(lookup LibraryLookup) *Resolver {
	return &Resolver{Library: lookup}
}

var (
	ordinalImageRe  = regexp.MustCompile(`(?i)\b(?:image|photo|picture)\s*(\d+)\b|\bthe\s+(\d+)(?:st|nd|rd|th)\s+image\b`)
	ordinalVideoRe  = regexp.MustCompile(`(?i)\bvideo\s*(\d+)\b|\bthe\s+(\d+)(?:st|nd|rd|th)\s+video\b`)
	singularDeictic = regexp.MustCompile(`(?i)\b(?:the|that|this)\s+(image|video|photo)\b`)
	pluralDeictic   = regexp.MustCompile(`(?i)\b(both|these|all of them)\b`)
)

// Resolve never fails (spec §4.3): ambiguity is represented by lower
// confidence, not an error.
func (r *Resolver) Resolve(ctx context.Context, brandID, userText string, attachments []Handle, history []HistoryTurn) ResolvedSet {
	// Policy 1: explicit attachments win outright.
	if len(attachments) > 0 {
		return ResolvedSet{Items: attachments, Method: MethodExplicitUpload, Confidence: 1.0, UserIntent: userText}
	}

	// Policy 2: deictic phrases over recent history, newest-first
	// chronological walk.
	chronological := flattenChronological(history)

	if set, ok := resolveOrdinal(userText, chronological, ordinalImageRe, KindImage); ok {
		set.UserIntent = userText
		return set
	}
	if set, ok := resolveOrdinal(userText, chronological, ordinalVideoRe, KindVideo); ok {
		set.UserIntent = userText
		return set
	}
	if pluralDeictic.MatchString(userText) {
		if items := lastTurnMedia(history); len(items) > 0 {
			return ResolvedSet{Items: items, Method: MethodIndexedReference, Confidence: 0.5, UserIntent: userText}
		}
	}
	if m := singularDeictic.FindStringSubmatch(userText); m != nil {
		kind := kindFromWord(m[1])
		if h, ok := newestOfKind(chronological, kind); ok {
			return ResolvedSet{Items: []Handle{h}, Method: MethodLastImage, Confidence: 0.75, UserIntent: userText}
		}
	}

	// Policy 3: named library asset.
	if r.Library != nil {
		if phrase := extractLibraryPhrase(userText); phrase != "" {
			if item, score, found := r.Library.Lookup(ctx, brandID, phrase); found {
				confidence := score
				if confidence > 0.95 {
					confidence = 0.95
				}
				if confidence < 0.0 {
					confidence = 0.0
				}
				return ResolvedSet{
					Items: []Handle{{
						ID:         item.MediaID,
						Kind:       item.Kind,
						URI:        item.StorageURI,
						Source:     SourceLibrary,
						Provenance: "resolved from phrase '" + phrase + "'",
					}},
					Method:     MethodLibraryLookup,
					Confidence: confidence,
					UserIntent: userText,
				}
			}
		}
	}

	// Policy 4: nothing matched.
	return ResolvedSet{Method: MethodNone, UserIntent: userText}
}

func kindFromWord(word string) Kind {
	switch strings.ToLower(word) {
	case "video":
		return KindVideo
	default:
		return KindImage
	}
}

// flattenChronological walks history oldest-to-newest (history is
// supplied newest-first by the caller per spec §4.3's "newest to
// oldest" walk direction) and returns every media handle in the
// order it was originally emitted, for ordinal counting.
func flattenChronological(history []HistoryTurn) []Handle {
	var out []Handle
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i].Items...)
	}
	return out
}

func resolveOrdinal(text string, chronological []Handle, re *regexp.Regexp, kind Kind) (ResolvedSet, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ResolvedSet{}, false
	}
	numStr := firstNonEmpty(m[1:])
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return ResolvedSet{}, false
	}
	var ofKind []Handle
	for _, h := range chronological {
		if h.Kind == kind {
			ofKind = append(ofKind, h)
		}
	}
	if n > len(ofKind) {
		return ResolvedSet{}, false
	}
	return ResolvedSet{Items: []Handle{ofKind[n-1]}, Method: MethodIndexedReference, Confidence: 0.9}, true
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

// lastTurnMedia returns every media handle from the most recent
// (newest) user or assistant turn that contained media, per the
// "both/these/all of them" rule.
func lastTurnMedia(history []HistoryTurn) []Handle {
	for _, turn := range history {
		if len(turn.Items) > 0 {
			return turn.Items
		}
	}
	return nil
}

func newestOfKind(chronological []Handle, kind Kind) (Handle, bool) {
	for i := len(chronological) - 1; i >= 0; i-- {
		if chronological[i].Kind == kind {
			return chronological[i], true
		}
	}
	return Handle{}, false
}

var quotedPhraseRe = regexp.MustCompile(`(?i)(?:our|the)\s+([a-z0-9][a-z0-9 \-]{2,40}?)\s+(?:image|photo|video|asset)\b`)

// extractLibraryPhrase pulls a candidate library-asset name out of
// free text ("our summer-campaign hero image" -> "summer-campaign hero").
func extractLibraryPhrase(text string) string {
	m := quotedPhraseRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
