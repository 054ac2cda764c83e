package usecase

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"everpedia/internal/domain"
)

const seeAlsoLimit = 5

// markdown keeps raw HTML because placeholder rewriting injects image
// elements before rendering.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

// AssembleArticle concatenates the opening and the generated sections under
// their outline headings, appends the See also section, extracts
// cross-references and image placeholders, renders the markup to HTML, and
// splices the table of contents after the first paragraph. Sections are
// reassembled in outline order regardless of generation completion order;
// len(sections) must equal len(outline.Sections).
func AssembleArticle(slug, title string, outline *domain.Outline, opening string, sections []string, box *domain.Infobox) (*domain.Article, error) {
	if len(sections) != len(outline.Sections) {
		return nil, fmt.Errorf("section count mismatch: outline has %d, got %d", len(outline.Sections), len(sections))
	}

	var md strings.Builder
	md.WriteString(strings.TrimSpace(opening))
	md.WriteString("\n\n")
	for i, sec := range outline.Sections {
		md.WriteString("## ")
		md.WriteString(sec.Title)
		md.WriteString("\n\n")
		md.WriteString(strings.TrimSpace(sections[i]))
		md.WriteString("\n\n")
	}

	linked := ExtractLinkedTitles(md.String())
	md.WriteString(seeAlsoSection(linked))

	body, refs := RewriteImagePlaceholders(md.String())
	if box != nil && box.Image != "" {
		refs = appendInfoboxRef(refs, box, title)
	}

	toc, entries := BuildTOC(body)
	body = resolveWikiLinks(body)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("failed to render article markup: %w", err)
	}
	rendered := InjectHeadingAnchors(buf.String(), entries)
	rendered = SpliceTOC(rendered, toc)
	if box != nil {
		rendered = renderInfobox(box, title) + rendered
	}

	return &domain.Article{
		Slug:         slug,
		Title:        title,
		HTML:         rendered,
		LinkedTitles: linked,
		Images:       refs,
	}, nil
}

// seeAlsoSection builds the fixed closing section from the first
// cross-references the article itself surfaced.
func seeAlsoSection(linked []string) string {
	var b strings.Builder
	b.WriteString("## See also\n\n")
	n := len(linked)
	if n > seeAlsoLimit {
		n = seeAlsoLimit
	}
	if n == 0 {
		b.WriteString("*Related topics appear as links throughout this article.*\n")
		return b.String()
	}
	for _, title := range linked[:n] {
		fmt.Fprintf(&b, "- [[%s]]\n", title)
	}
	return b.String()
}

// resolveWikiLinks converts [[Title]] and [[Title|label]] into markdown links
// onto the wiki route. Image placeholders were rewritten before this runs.
func resolveWikiLinks(markup string) string {
	return linkRe.ReplaceAllStringFunc(markup, func(match string) string {
		m := linkRe.FindStringSubmatch(match)
		title := strings.TrimSpace(m[1])
		if strings.HasPrefix(title, "Image:") {
			return match
		}
		label := strings.TrimSpace(m[2])
		if label == "" {
			label = title
		}
		return fmt.Sprintf("[%s](/wiki/%s)", label, domain.TitleToSlug(title))
	})
}

func appendInfoboxRef(refs []domain.ImageReference, box *domain.Infobox, title string) []domain.ImageReference {
	for _, r := range refs {
		if r.Slug == box.Image {
			return refs // first occurrence wins
		}
	}
	ext := box.ImageExt
	if ext == "" {
		ext = "webp"
	}
	alt := box.ImageAlt
	if alt == "" {
		alt = title
	}
	return append(refs, domain.ImageReference{
		Filename: box.Image + "." + ext,
		Slug:     box.Image,
		Ext:      ext,
		Alt:      alt,
		Caption:  alt,
		Aspect:   "3:4",
		Kind:     domain.ImageKindInfobox,
	})
}

// renderInfobox produces the summary panel floated alongside the article.
func renderInfobox(box *domain.Infobox, title string) string {
	var b strings.Builder
	b.WriteString(`<aside class="infobox">`)
	fmt.Fprintf(&b, `<div class="infobox-title">%s</div>`, html.EscapeString(title))
	if box.Image != "" {
		ext := box.ImageExt
		if ext == "" {
			ext = "webp"
		}
		alt := box.ImageAlt
		if alt == "" {
			alt = title
		}
		fmt.Fprintf(&b, `<img class="lazy-image infobox-image" loading="lazy" src="/images/%s.%s?aspect=3:4" alt=%q>`,
			box.Image, ext, alt)
	}
	if len(box.Fields) > 0 {
		b.WriteString("<table>")
		for _, f := range box.Fields {
			fmt.Fprintf(&b, "<tr><th>%s</th><td>%s</td></tr>",
				html.EscapeString(f.Name), html.EscapeString(f.Value))
		}
		b.WriteString("</table>")
	}
	b.WriteString("</aside>")
	return b.String()
}
