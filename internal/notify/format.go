// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

// MaxMessageRunes is the Bot API limit on message text length.
const MaxMessageRunes = 4096

// Caps on the header fields before escaping. Escaping at most doubles them,
// which leaves room for the body within MaxMessageRunes.
const (
	maxTitleRunes   = 300
	maxAuthorsRunes = 300
)

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// EscapeMarkdown escapes the characters that legacy Markdown parse mode
// treats as entity delimiters.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Format renders rec as a channel post. The AI summary is preferred over the
// abstract; an over-long body is shortened so the post fits one message.
func Format(rec types.CanonicalRecord) string {
	body := rec.AISummary
	label := "Summary"
	if body == "" {
		body = rec.Summary
		label = "Abstract"
	}
	if body == "" {
		body = "No summary available."
	}

	rec.Title = clip(rec.Title, maxTitleRunes)
	post := render(rec, label, body)
	runes := []rune(body)
	for over := utf8.RuneCountInString(post) - MaxMessageRunes; over > 0 && len(runes) > 0; over = utf8.RuneCountInString(post) - MaxMessageRunes {
		runes = runes[:max(len(runes)-over-1, 0)]
		post = render(rec, label, strings.TrimSpace(string(runes))+"…")
	}
	return post
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n-1])) + "…"
}

// authorLine joins authors, ending with "et al." once the line would pass
// maxAuthorsRunes.
func authorLine(authors []string) string {
	line := strings.Join(authors, ", ")
	if utf8.RuneCountInString(line) <= maxAuthorsRunes {
		return line
	}
	const suffix = ", et al."
	var b strings.Builder
	for i, a := range authors {
		next := a
		if i > 0 {
			next = ", " + a
		}
		if utf8.RuneCountInString(b.String()+next)+utf8.RuneCountInString(suffix) > maxAuthorsRunes {
			break
		}
		b.WriteString(next)
	}
	if b.Len() == 0 {
		return clip(authors[0], maxAuthorsRunes)
	}
	return b.String() + suffix
}

func render(rec types.CanonicalRecord, label, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 *Title:* %s\n", EscapeMarkdown(rec.Title))
	fmt.Fprintf(&b, "👥 *Authors:* %s\n\n", EscapeMarkdown(authorLine(rec.Authors)))
	fmt.Fprintf(&b, "🔍 *%s:*\n%s\n\n", label, EscapeMarkdown(body))
	if rec.PrimaryCategory != "" {
		fmt.Fprintf(&b, "🏷 *Category:* %s\n", EscapeMarkdown(rec.PrimaryCategory))
	}
	abs := rec.AbsLink
	if abs == "" {
		abs = "https://arxiv.org/abs/" + rec.ID
	}
	fmt.Fprintf(&b, "🔗 [Abstract](%s) | [PDF](%s)", abs, rec.PDFLink)
	return b.String()
}
