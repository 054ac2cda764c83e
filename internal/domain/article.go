package domain

import "time"

// Outline is the structured plan driving article generation: a short summary
// plus the ordered sections the body will be generated from.
type Outline struct {
	Summary  string           `json:"summary"`
	Sections []OutlineSection `json:"sections"`
}

// OutlineSection names one body section and what it should cover.
type OutlineSection struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// InfoboxField is a single row of the infobox panel. Fields keep the order
// the model produced them in; there is no fixed schema.
type InfoboxField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Infobox is the field/value summary panel accompanying an article. Image is
// the slug of an optional illustration, empty when the model omitted one.
type Infobox struct {
	Fields   []InfoboxField `json:"fields"`
	Image    string         `json:"image,omitempty"`
	ImageExt string         `json:"image_ext,omitempty"`
	ImageAlt string         `json:"image_alt,omitempty"`
}

// ImageKind distinguishes where an image reference appeared in the markup.
type ImageKind string

const (
	ImageKindFigure     ImageKind = "figure"
	ImageKindStandalone ImageKind = "standalone"
	ImageKindInfobox    ImageKind = "infobox"
)

// ImageReference is one image placeholder discovered in generated markup.
// References are deduplicated by Slug, first occurrence wins.
type ImageReference struct {
	Filename string
	Slug     string
	Ext      string
	Alt      string
	Caption  string
	Aspect   string
	Kind     ImageKind
}

// Article is the fully assembled page: rendered HTML plus the side products
// the pipeline needs afterwards (linked titles for the registry, image
// references for prompt preparation).
type Article struct {
	Slug         string
	Title        string
	HTML         string
	LinkedTitles []string
	Images       []ImageReference
}

// ImagePromptRecord tracks the lifecycle of an image prompt. It is created in
// the generating state when a page discovers a placeholder, and transitions to
// ready exactly once when prompt generation completes. It never goes back.
type ImagePromptRecord struct {
	Slug         string    `json:"image_slug"`
	Prompt       string    `json:"prompt,omitempty"`
	ArticleTitle string    `json:"article_title"`
	Ready        bool      `json:"ready"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchSuggestion is one entry of the search API response.
type SearchSuggestion struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}
