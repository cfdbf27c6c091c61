// Package media defines the media data model (spec §3) and the
// deictic-reference resolver (C3, spec §4.3).
package media

import "time"

// Kind identifies the media type carried by a Handle.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindPDF   Kind = "pdf"
	KindOther Kind = "other"
)

// Source records how a Handle entered scope.
type Source string

const (
	SourceUploaded   Source = "uploaded"
	SourceGenerated  Source = "generated"
	SourceReinjected Source = "reinjected"
	SourceLibrary    Source = "libraryLookup"
	SourceBrandSoul  Source = "brandSoul"
)

// Handle is a concrete, addressable piece of media (spec §3).
// URI is a signed URL or object-store reference; Provenance records
// why the handle is in scope for this turn (e.g. "attached by user",
// "last image in prior turn", "resolved from phrase 'the logo'").
type Handle struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	URI         string `json:"uri"`
	MimeType    string `json:"mimeType"`
	Source      Source `json:"source"`
	Provenance  string `json:"provenance,omitempty"`
}

// LibraryItem is a media asset held in a tenant's searchable library
// (spec §3). Vision fields are populated by an offline analysis step
// and are searchable by the Search Index Manager (C7).
type LibraryItem struct {
	MediaID            string    `json:"mediaId"`
	BrandID            string    `json:"brandId"`
	Kind               Kind      `json:"kind"`
	StorageURI         string    `json:"storageUri"`
	ThumbnailURI       string    `json:"thumbnailUri,omitempty"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	Source             Source    `json:"source"`
	CreatedAt          time.Time `json:"createdAt"`
	CreatedBy          string    `json:"createdBy,omitempty"`
	VisionDescription  string    `json:"visionDescription,omitempty"`
	VisionKeywords     []string  `json:"visionKeywords,omitempty"`
	VisionCategories   []string  `json:"visionCategories,omitempty"`
	EnhancedSearchText string    `json:"enhancedSearchText,omitempty"`
}

// SearchText returns the fields the fallback search (spec §4.7)
// examines, concatenated for substring/fuzzy matching.
func (li LibraryItem) SearchText() string {
	text := li.Title + " " + li.Description
	for _, t := range li.Tags {
		text += " " + t
	}
	text += " " + li.VisionDescription
	for _, k := range li.VisionKeywords {
		text += " " + k
	}
	for _, c := range li.VisionCategories {
		text += " " + c
	}
	return text + " " + li.EnhancedSearchText
}

// ResolveMethod records how a ResolvedSet was produced (spec §3).
type ResolveMethod string

const (
	MethodExplicitUpload    ResolveMethod = "explicit_upload"
	MethodLastImage         ResolveMethod = "last_image"
	MethodIndexedReference  ResolveMethod = "indexed_reference"
	MethodLibraryLookup     ResolveMethod = "library_lookup"
	MethodNone              ResolveMethod = "none"
)

// ResolvedSet is the concrete media set a turn commits to (spec §3),
// produced by the resolver (C3) and consumed by the tool registry
// (C4) and agent loop (C8).
type ResolvedSet struct {
	Items      []Handle      `json:"items"`
	Method     ResolveMethod `json:"method"`
	Confidence float64       `json:"confidence"`
	UserIntent string        `json:"userIntent,omitempty"`
}

// IsAmbiguous reports whether confidence is low enough that the
// runtime should surface a systemNotice (spec §4.3: "below 0.5 and
// the user's message clearly invoked media").
func (r ResolvedSet) IsAmbiguous() bool {
	return r.Method != MethodNone && r.Confidence < 0.5
}
