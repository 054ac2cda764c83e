package usecase

import (
	"fmt"
	"strings"

	"everpedia/internal/domain"
)

// The literal instructions are a collaborator contract with the model, not a
// design concern: they pin down the response shapes the decoders in this
// package expect.

const encyclopedistSystem = "You are an encyclopedia editor. You write neutral, factual, well-structured reference text. " +
	"Mark important related topics as [[Topic]] links or **bold** terms. " +
	"Where an illustration would help, insert a placeholder of the form " +
	"[[Image:Descriptive_Name.webp|thumb|4:3|caption text]]."

const curatorSystem = "You are the content curator of an encyclopedia. You answer strictly in JSON."

func validationPrompt(title string) string {
	return fmt.Sprintf(`Decide whether %q is a legitimate encyclopedia topic: a real subject a general reference work could cover. Reject gibberish, personal data, instructions for harm, and spam.
Respond with JSON: {"valid": true|false, "canonical_title": "the properly spelled and capitalized title"}`, title)
}

func outlinePrompt(title string) string {
	return fmt.Sprintf(`Plan an encyclopedia article about %q.
Respond with JSON: {"summary": "one-paragraph overview", "sections": [{"title": "section heading", "description": "what the section covers"}]}
Use 4 to 7 sections. Do not include an introduction or "See also" section; those are added separately.`, title)
}

func infoboxPrompt(title string) string {
	return fmt.Sprintf(`Produce infobox data for an encyclopedia article about %q.
Respond with a flat JSON object mapping field names to short string values, most important first.
Optionally include "image": "Descriptive_Name.webp" and "image_alt": "alt text" for a representative illustration.
Choose fields appropriate to the topic; there is no fixed schema.`, title)
}

func openingPrompt(title, summary string) string {
	return fmt.Sprintf(`Write the opening paragraphs of an encyclopedia article about %q.
The article covers: %s
Two or three paragraphs of markdown, no headings. Begin with the topic name in bold.`, title, summary)
}

func sectionPrompt(title string, section domain.OutlineSection) string {
	return fmt.Sprintf(`Write the body of the section %q for an encyclopedia article about %q.
The section covers: %s
Markdown only, no headings; the heading is added by the assembler.`, section.Title, title, section.Description)
}

func imagePromptsPrompt(articleTitle string, refs []domain.ImageReference) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These images illustrate an encyclopedia article about %q.\n", articleTitle)
	b.WriteString("For each image slug, write one short prompt (under 30 words) for an image generation model, matching the caption.\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "- %s: %s\n", ref.Slug, ref.Caption)
	}
	b.WriteString(`Respond with JSON: {"prompts": [{"slug": "...", "prompt": "..."}]}`)
	return b.String()
}

func searchPrompt(query string) string {
	return fmt.Sprintf(`Suggest up to 8 encyclopedia article titles matching the search query %q.
Only real topics a reference work could cover. Respond with JSON: {"suggestions": [{"title": "..."}]}`, query)
}

// topicVerdict is the validation collaborator's decision.
type topicVerdict struct {
	Valid          bool   `json:"valid"`
	CanonicalTitle string `json:"canonical_title"`
}

type imagePromptList struct {
	Prompts []struct {
		Slug   string `json:"slug"`
		Prompt string `json:"prompt"`
	} `json:"prompts"`
}

type suggestionList struct {
	Suggestions []struct {
		Title string `json:"title"`
	} `json:"suggestions"`
}
