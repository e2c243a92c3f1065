// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"regexp"
	"strconv"
)

var (
	totalPattern   = regexp.MustCompile(`(?i)total of (\d+) entries`)
	titlePattern   = regexp.MustCompile(`<span class=["']descriptor["']>Title:</span>\s*([^\n]*)`)
	commentPattern = regexp.MustCompile(`<span class=["']descriptor["']>Comments:</span>\s*([^\n]*)`)
	authorsPattern = regexp.MustCompile(`(?s)<div class=["']list-authors["']>(.*?)</div>`)
	authorPattern  = regexp.MustCompile(`<a href=["'][^"']*["'][^>]*>(.*?)</a>`)
	entryPattern   = regexp.MustCompile(`(?s)<dt>\s*<a name=["']item\d+["']>\[\d+\]</a>(.*?)</dt>`)
	detailPattern  = regexp.MustCompile(`(?s)<dd>(.*?)</dd>`)
	arxivIDPattern = regexp.MustCompile(`arXiv:(\d+\.\d+)`)
	hrefIDPattern  = regexp.MustCompile(`/abs/(\d+\.\d+)`)
)

// RegexParser extracts the listing by pattern matching on the raw markup.
// Identifiers come from the <dt> blocks; title, authors and comments are
// matched inside each <dd> block, so a field missing from one entry leaves
// that entry's value empty.
type RegexParser struct{}

// Parse implements Parser.
func (RegexParser) Parse(doc string) (*Listing, error) {
	var ids []string
	for _, m := range entryPattern.FindAllStringSubmatch(doc, -1) {
		ids = append(ids, identifierIn(m[1]))
	}

	var (
		titles   []string
		authors  [][]string
		comments []string
	)
	for _, dd := range detailPattern.FindAllStringSubmatch(doc, -1) {
		block := dd[1]

		title := ""
		if m := titlePattern.FindStringSubmatch(block); m != nil {
			title = cleanText(m[1])
		}
		titles = append(titles, title)

		names := []string{}
		if m := authorsPattern.FindStringSubmatch(block); m != nil {
			for _, a := range authorPattern.FindAllStringSubmatch(m[1], -1) {
				names = append(names, cleanText(a[1]))
			}
		}
		authors = append(authors, names)

		if m := commentPattern.FindStringSubmatch(block); m != nil {
			comments = append(comments, cleanText(m[1]))
		}
	}

	return assemble(parseTotal(doc), comments, titles, authors, ids)
}

// identifierIn returns the arXiv id mentioned in an entry block, or "".
func identifierIn(block string) string {
	if m := arxivIDPattern.FindStringSubmatch(block); m != nil {
		return m[1]
	}
	if m := hrefIDPattern.FindStringSubmatch(block); m != nil {
		return m[1]
	}
	return ""
}

func parseTotal(text string) int {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}
