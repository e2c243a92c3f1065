// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DOMParser extracts the listing from the parsed document tree: each <dt>
// carries the identifier and the following <dd> carries title, authors and
// comments.
type DOMParser struct{}

// Parse implements Parser.
func (DOMParser) Parse(doc string) (*Listing, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing listing HTML: %w", err)
	}

	var ids []string
	d.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		ids = append(ids, domIdentifier(dt))
	})

	var (
		titles   []string
		authors  [][]string
		comments []string
	)
	d.Find("dl > dd").Each(func(_ int, dd *goquery.Selection) {
		titles = append(titles, descriptorText(dd.Find("div.list-title").First()))

		names := []string{}
		dd.Find("div.list-authors a").Each(func(_ int, a *goquery.Selection) {
			names = append(names, collapse(a.Text()))
		})
		authors = append(authors, names)

		if c := dd.Find("div.list-comments").First(); c.Length() > 0 {
			comments = append(comments, descriptorText(c))
		}
	})

	return assemble(parseTotal(d.Text()), comments, titles, authors, ids)
}

// descriptorText returns the text of a field block without its
// "Title:"/"Comments:" label.
func descriptorText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	label := sel.Find("span.descriptor").Text()
	return collapse(strings.Replace(sel.Text(), label, "", 1))
}

func domIdentifier(dt *goquery.Selection) string {
	if id := identifierIn(dt.Text()); id != "" {
		return id
	}
	href, ok := dt.Find(`a[href*="/abs/"]`).First().Attr("href")
	if !ok {
		return ""
	}
	return identifierIn(href)
}
