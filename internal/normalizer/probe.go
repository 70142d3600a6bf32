package normalizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseProbeHTML extracts holding categories from the secondary endpoint
// HTML page. The page renders shareholding as a table with the category
// name in the first cell and the percentage in the second; rows feed
// through the same synonym classification as the breakdown shape.
func parseProbeHTML(html string) holdingValues {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return holdingValues{}
	}

	rows := map[string]interface{}{}

	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		category := strings.TrimSpace(cells.Eq(0).Text())
		if category == "" {
			return
		}

		value := strings.TrimSpace(cells.Eq(1).Text())
		if value == "" {
			return
		}

		// Later duplicate rows do not clobber earlier ones
		if _, exists := rows[category]; !exists {
			rows[category] = value
		}
	})

	return parseBreakdown(rows)
}
