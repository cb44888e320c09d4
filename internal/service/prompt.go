package service

import (
	"fmt"
	"strings"

	"github.com/uxlens/uxlens/internal/webpage"
)

const systemPrompt = `You are a senior UX researcher reviewing a product for usability problems.
Answer with a single JSON object and nothing else, using exactly this shape:
{
  "summary": "two or three sentences on the overall experience",
  "problems": [
    {"title": "short name", "description": "what users struggle with and where", "impact": "high | medium | low"}
  ],
  "issues": [
    {"title": "short name", "description": "the concrete defect", "severity": "critical | major | minor", "recommendation": "a specific fix"}
  ]
}
Problems are user-facing pain points; issues are concrete defects that cause them.
List at most 8 problems and 10 issues, most important first. Do not invent features you cannot see evidence for.`

func urlPrompt(rawURL string, page *webpage.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the user experience of the web page at %s.\n", rawURL)

	if page == nil {
		b.WriteString("The page content could not be retrieved. Base the review on the URL and what is typical for this kind of site, and say so in the summary.\n")
		return b.String()
	}

	if page.Title != "" {
		fmt.Fprintf(&b, "\nTitle: %s\n", page.Title)
	}
	if page.Description != "" {
		fmt.Fprintf(&b, "Meta description: %s\n", page.Description)
	}
	if len(page.Headings) > 0 {
		b.WriteString("\nHeadings:\n")
		for _, h := range page.Headings {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	if page.Text != "" {
		b.WriteString("\nVisible text:\n")
		b.WriteString(page.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func filePrompt(fileName, content string) string {
	var b strings.Builder
	b.WriteString("Analyze the user experience evidence in the following ")
	if fileName != "" {
		fmt.Fprintf(&b, "file (%s). ", fileName)
	} else {
		b.WriteString("text. ")
	}
	b.WriteString("It may be survey answers, support tickets, usability test notes or analytics exports.\n\n")
	b.WriteString("-----\n")
	b.WriteString(content)
	b.WriteString("\n-----\n")
	return b.String()
}

func attachmentPrompt(fileName string) string {
	return fmt.Sprintf("Analyze the user experience evidence in the attached document (%s). "+
		"It may be survey answers, support tickets, usability test notes or a product walkthrough.", fileName)
}
