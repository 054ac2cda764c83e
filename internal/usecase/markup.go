package usecase

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"everpedia/internal/domain"
)

// Generated markup uses two wiki-style bracket forms on top of markdown:
// cross-references [[Title]] / [[Title|label]] and image placeholders
// [[Image:Filename.ext|size|aspect|caption]]. Bold terms are also treated as
// cross-reference candidates.
var (
	boldRe  = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	linkRe  = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
	imageRe = regexp.MustCompile(`\[\[Image:([^\[\]|]+)\|([^\[\]|]*)\|([^\[\]|]*)\|([^\[\]]*)\]\]`)
)

// ExtractLinkedTitles collects cross-reference candidates from bold spans and
// explicit link markup, in document order, deduplicated case-sensitively.
func ExtractLinkedTitles(markup string) []string {
	seen := make(map[string]struct{})
	var titles []string
	add := func(title string) {
		title = strings.TrimSpace(title)
		if title == "" {
			return
		}
		if _, ok := seen[title]; ok {
			return
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	for _, m := range boldRe.FindAllStringSubmatch(markup, -1) {
		add(m[1])
	}
	for _, m := range linkRe.FindAllStringSubmatch(markup, -1) {
		if strings.HasPrefix(m[1], "Image:") {
			continue
		}
		add(m[1])
	}
	return titles
}

// ExtractImageReferences returns every image placeholder in the markup,
// deduplicated by derived slug, first occurrence wins.
func ExtractImageReferences(markup string) []domain.ImageReference {
	seen := make(map[string]struct{})
	var refs []domain.ImageReference
	for _, m := range imageRe.FindAllStringSubmatch(markup, -1) {
		ref := parseImagePlaceholder(m)
		if _, ok := seen[ref.Slug]; ok {
			continue
		}
		seen[ref.Slug] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// RewriteImagePlaceholders replaces every placeholder with a lazy-loading
// image element pointing at the image route. Duplicate placeholders are all
// rewritten; only the reference list is deduplicated.
func RewriteImagePlaceholders(markup string) (string, []domain.ImageReference) {
	refs := ExtractImageReferences(markup)
	rewritten := imageRe.ReplaceAllStringFunc(markup, func(match string) string {
		m := imageRe.FindStringSubmatch(match)
		ref := parseImagePlaceholder(m)
		return imageElement(ref)
	})
	return rewritten, refs
}

func parseImagePlaceholder(m []string) domain.ImageReference {
	filename := strings.TrimSpace(m[1])
	size := strings.TrimSpace(m[2])
	aspect := strings.TrimSpace(m[3])
	caption := strings.TrimSpace(m[4])
	if aspect == "" {
		aspect = "4:3"
	}
	slug, ext := splitImageName(filename)
	kind := domain.ImageKindFigure
	if size == "full" || size == "wide" {
		kind = domain.ImageKindStandalone
	}
	return domain.ImageReference{
		Filename: filename,
		Slug:     slug,
		Ext:      ext,
		Alt:      caption,
		Caption:  caption,
		Aspect:   aspect,
		Kind:     kind,
	}
}

func imageElement(ref domain.ImageReference) string {
	src := fmt.Sprintf("/images/%s.%s?aspect=%s", ref.Slug, ref.Ext, ref.Aspect)
	img := fmt.Sprintf(`<img class="lazy-image" loading="lazy" src="%s" alt="%s" data-aspect="%s">`,
		src, html.EscapeString(ref.Alt), ref.Aspect)
	if ref.Kind == domain.ImageKindStandalone {
		return img
	}
	return fmt.Sprintf(`<figure class="article-figure">%s<figcaption>%s</figcaption></figure>`,
		img, html.EscapeString(ref.Caption))
}

// tocEntry is one heading discovered while scanning assembled markup.
type tocEntry struct {
	Level  int    // 2 or 3
	Title  string
	Number string // positional: "1", "1.1", "2", ...
	Anchor string // id injected into the rendered heading
}

// BuildTOC scans level-2 and level-3 headings in order and assigns positional
// numbers, nesting level-3 entries under the preceding level-2 entry. The
// same traversal order drives InjectHeadingAnchors, so numbers and ids stay
// aligned with the rendered document.
func BuildTOC(markup string) (string, []tocEntry) {
	entries := scanHeadings(markup)
	if len(entries) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(`<nav class="toc"><div class="toc-title">Contents</div><ol>`)
	open := false
	for i, e := range entries {
		if e.Level == 2 {
			if open {
				b.WriteString("</ol></li>")
				open = false
			} else if i > 0 {
				b.WriteString("</li>")
			}
			fmt.Fprintf(&b, `<li><a href="#%s">%s %s</a>`, e.Anchor, e.Number, e.Title)
			if i+1 < len(entries) && entries[i+1].Level == 3 {
				b.WriteString("<ol>")
				open = true
			}
		} else {
			fmt.Fprintf(&b, `<li><a href="#%s">%s %s</a></li>`, e.Anchor, e.Number, e.Title)
		}
	}
	if open {
		b.WriteString("</ol></li>")
	} else {
		b.WriteString("</li>")
	}
	b.WriteString("</ol></nav>")
	return b.String(), entries
}

func scanHeadings(markup string) []tocEntry {
	var entries []tocEntry
	major, minor := 0, 0
	for _, line := range strings.Split(markup, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "):
			if major == 0 {
				continue // a level-3 heading before any level-2 has no slot
			}
			minor++
			entries = append(entries, tocEntry{
				Level:  3,
				Title:  strings.TrimSpace(trimmed[4:]),
				Number: fmt.Sprintf("%d.%d", major, minor),
				Anchor: fmt.Sprintf("section-%d-%d", major, minor),
			})
		case strings.HasPrefix(trimmed, "## "):
			major++
			minor = 0
			entries = append(entries, tocEntry{
				Level:  2,
				Title:  strings.TrimSpace(trimmed[3:]),
				Number: fmt.Sprintf("%d", major),
				Anchor: fmt.Sprintf("section-%d", major),
			})
		}
	}
	return entries
}

// InjectHeadingAnchors adds the anchor ids to rendered <h2>/<h3> tags using
// the same traversal order BuildTOC numbered them in.
func InjectHeadingAnchors(html string, entries []tocEntry) string {
	if len(entries) == 0 {
		return html
	}
	var b strings.Builder
	next := 0
	rest := html
	for next < len(entries) {
		i2 := strings.Index(rest, "<h2>")
		i3 := strings.Index(rest, "<h3>")
		idx, tag := i2, "<h2>"
		if idx < 0 || (i3 >= 0 && i3 < idx) {
			idx, tag = i3, "<h3>"
		}
		if idx < 0 {
			break
		}
		wantLevel := 2
		if tag == "<h3>" {
			wantLevel = 3
		}
		// A heading the scanner skipped (level-3 before any level-2) keeps
		// no anchor; pass it through and stay on the same entry.
		b.WriteString(rest[:idx])
		if entries[next].Level == wantLevel {
			fmt.Fprintf(&b, `<%s id=%q>`, tag[1:3], entries[next].Anchor)
			next++
		} else {
			b.WriteString(tag)
		}
		rest = rest[idx+len(tag):]
	}
	b.WriteString(rest)
	return b.String()
}

// SpliceTOC inserts the table of contents after the first rendered paragraph.
// Documents without a paragraph get the TOC prepended.
func SpliceTOC(html, toc string) string {
	if toc == "" {
		return html
	}
	if idx := strings.Index(html, "</p>"); idx >= 0 {
		return html[:idx+4] + toc + html[idx+4:]
	}
	return toc + html
}
