package models

// SourceKind tags the provenance of a context fragment.
type SourceKind string

const (
	SourceIndicators   SourceKind = "indicators"
	SourcePrice        SourceKind = "price"
	SourceNews         SourceKind = "news"
	SourceWeb          SourceKind = "web"
	SourceEncyclopedia SourceKind = "encyclopedia"
)

// ContextFragment is the unit of grounding text fed to the language model.
// Ref is a stable reference (typically a URL) that citations are built from;
// fragments derived from computed data use a synthetic ref.
type ContextFragment struct {
	Text  string     `json:"text"`
	Kind  SourceKind `json:"source_kind"`
	Ref   string     `json:"source_ref"`
	Title string     `json:"title,omitempty"`
}

// Pinned reports whether the fragment may be dropped under budget pressure.
// Price and indicator fragments are always kept.
func (f ContextFragment) Pinned() bool {
	return f.Kind == SourceIndicators || f.Kind == SourcePrice
}

// Citation points a reader at one grounding source of an answer.
type Citation struct {
	Ref   string `json:"ref"`
	Title string `json:"title,omitempty"`
}
