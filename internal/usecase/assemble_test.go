package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpedia/internal/domain"
	"everpedia/internal/usecase"
)

func TestAssembleArticle(t *testing.T) {
	outline := &domain.Outline{
		Summary: "overview",
		Sections: []domain.OutlineSection{
			{Title: "History", Description: "origins"},
			{Title: "Legacy", Description: "aftermath"},
		},
	}
	opening := "The **Roman Empire** was the post-Republican period of [[Ancient Rome]]."
	sections := []string{
		"It expanded across the [[Mediterranean Sea]].\n\n[[Image:Roman_Forum.webp|thumb|4:3|The Forum]]",
		"Its law shaped [[Europe|European law]].",
	}
	box := &domain.Infobox{
		Fields: []domain.InfoboxField{{Name: "Capital", Value: "Rome"}},
		Image:  "Roman_Standard",
	}

	article, err := usecase.AssembleArticle("Roman_Empire", "Roman Empire", outline, opening, sections, box)

	require.NoError(t, err)
	assert.Equal(t, "Roman_Empire", article.Slug)
	assert.Equal(t, "Roman Empire", article.Title)

	// Sections land under their outline headings, with TOC anchors.
	assert.Contains(t, article.HTML, `<h2 id="section-1">History</h2>`)
	assert.Contains(t, article.HTML, `<h2 id="section-2">Legacy</h2>`)
	assert.Contains(t, article.HTML, `<nav class="toc">`)
	assert.Contains(t, article.HTML, `href="#section-1"`)

	// Cross-references become wiki links; bold survives as emphasis.
	assert.Contains(t, article.HTML, `<a href="/wiki/Ancient_Rome">Ancient Rome</a>`)
	assert.Contains(t, article.HTML, `<a href="/wiki/Europe">European law</a>`)
	assert.Contains(t, article.HTML, "<strong>Roman Empire</strong>")
	assert.NotContains(t, article.HTML, "[[")

	// The See also section lists the extracted cross-references.
	assert.Contains(t, article.HTML, "See also")
	assert.Contains(t, article.HTML, `<a href="/wiki/Mediterranean_Sea">Mediterranean Sea</a>`)

	// Image placeholder rewritten, infobox panel prepended.
	assert.Contains(t, article.HTML, `/images/Roman_Forum.webp?aspect=4:3`)
	assert.True(t, strings.HasPrefix(article.HTML, `<aside class="infobox">`))
	assert.Contains(t, article.HTML, "<th>Capital</th><td>Rome</td>")

	assert.Equal(t, []string{"Roman Empire", "Ancient Rome", "Mediterranean Sea", "Europe"}, article.LinkedTitles)

	// Image list covers the placeholder plus the infobox image.
	require.Len(t, article.Images, 2)
	assert.Equal(t, "Roman_Forum", article.Images[0].Slug)
	assert.Equal(t, domain.ImageKindFigure, article.Images[0].Kind)
	assert.Equal(t, "Roman_Standard", article.Images[1].Slug)
	assert.Equal(t, domain.ImageKindInfobox, article.Images[1].Kind)
	assert.Equal(t, "3:4", article.Images[1].Aspect)
}

func TestAssembleArticle_SectionCountMismatch(t *testing.T) {
	outline := &domain.Outline{
		Sections: []domain.OutlineSection{{Title: "Only"}},
	}

	_, err := usecase.AssembleArticle("X", "X", outline, "opening", nil, nil)

	assert.Error(t, err)
}

func TestAssembleArticle_NoInfoboxNoLinks(t *testing.T) {
	outline := &domain.Outline{
		Sections: []domain.OutlineSection{{Title: "Body", Description: "d"}},
	}

	article, err := usecase.AssembleArticle("Plain_Topic", "Plain Topic", outline,
		"An opening with no markup.", []string{"Section text."}, nil)

	require.NoError(t, err)
	assert.NotContains(t, article.HTML, "infobox")
	assert.Empty(t, article.LinkedTitles)
	assert.Empty(t, article.Images)
	// With nothing to link, See also degrades to a note instead of a list.
	assert.Contains(t, article.HTML, "Related topics appear as links")
}

func TestAssembleArticle_InfoboxImageNotDuplicated(t *testing.T) {
	outline := &domain.Outline{
		Sections: []domain.OutlineSection{{Title: "Body", Description: "d"}},
	}
	box := &domain.Infobox{Image: "Shared_Image", ImageExt: "webp"}

	article, err := usecase.AssembleArticle("T", "T", outline, "opening",
		[]string{"[[Image:Shared_Image.webp|thumb|4:3|caption]]"}, box)

	require.NoError(t, err)
	// The body placeholder already references the infobox image.
	require.Len(t, article.Images, 1)
	assert.Equal(t, domain.ImageKindFigure, article.Images[0].Kind)
}
