package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrPageUnrecognized means the content is not a listings page at all
// (interstitial, login wall, error page). Distinct from a valid page with
// zero results.
var ErrPageUnrecognized = errors.New("page is not a recognizable listings page")

// cardLayout is one known shape of the search results markup. Upwork changes
// its layout often, so layouts are tried in order and the first one that
// matches any cards wins.
type cardLayout struct {
	name     string
	cards    string
	presence string // marker that the layout's results area exists, even when empty
}

var cardLayouts = []cardLayout{
	{
		name:     "job-tile",
		cards:    `article[data-test="JobTile"], div[data-test="job-tile"], section[data-test="job-tile"]`,
		presence: `[data-test="job-tile-list"], [data-test="search-results"]`,
	},
	{
		name:     "air-card",
		cards:    "section.air-card",
		presence: "div.air-card-list",
	},
	{
		name:     "generic",
		cards:    "article.job-tile, section.job-tile",
		presence: "main form[action*='search'], #main form[role='search']",
	},
}

var blockedMarkers = []string{
	"just a moment",
	"attention required",
	"cloudflare",
	"access denied",
	"verify you are a human",
}

var reviewsRe = regexp.MustCompile(`(?i)(\d+)\s+reviews?`)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses one page of search results into candidates, in the order
// the listings appear. A recognizable page with no listings returns an empty
// slice; an unrecognizable page returns ErrPageUnrecognized.
func (e *Extractor) Extract(html string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	title := strings.ToLower(doc.Find("title").First().Text())
	for _, marker := range blockedMarkers {
		if strings.Contains(title, marker) {
			return nil, fmt.Errorf("%w: blocked interstitial (%s)", ErrPageUnrecognized, marker)
		}
	}
	if doc.Find(`input[type="password"], .captcha, .recaptcha, [data-captcha]`).Length() > 0 {
		return nil, fmt.Errorf("%w: login or captcha page", ErrPageUnrecognized)
	}

	for _, layout := range cardLayouts {
		cards := doc.Find(layout.cards)
		if cards.Length() == 0 {
			if doc.Find(layout.presence).Length() > 0 {
				// Results area exists but holds no listings: end of results.
				return []Candidate{}, nil
			}
			continue
		}
		candidates := make([]Candidate, 0, cards.Length())
		cards.Each(func(_ int, card *goquery.Selection) {
			c := parseCard(card)
			if c.JobID == "" && c.Title == "" && c.Description == "" {
				return // too empty to be a listing
			}
			candidates = append(candidates, c)
		})
		return candidates, nil
	}

	return nil, fmt.Errorf("%w: no known results layout found", ErrPageUnrecognized)
}

func parseCard(card *goquery.Selection) Candidate {
	c := Candidate{
		JobID:          cardJobID(card),
		Title:          card.Find(`[data-test="job-title-link"], h4 a, h3 a, h4, h3`).First().Text(),
		Description:    card.Find(`[data-test="job-description-text"], div[class*="description"], p`).First().Text(),
		Duration:       card.Find(`[data-test="job-duration"], [data-test="duration-label"]`).First().Text(),
		ClientLocation: card.Find(`[data-test="client-location"], [data-test="location"]`).First().Text(),
		ClientSpent:    card.Find(`[data-test="client-spent"], [data-test="total-spent"]`).First().Text(),
		Category:       card.Find(`[data-test="job-category"], [data-test="job-subcategory"]`).First().Text(),
	}

	cardText := strings.TrimSpace(card.Text())
	lowerText := strings.ToLower(cardText)

	c.CreatedAt = card.Find(`[data-test="job-posted-on"], [data-test="posted-on"]`).First().Text()
	if c.CreatedAt == "" {
		card.Find("small, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if strings.HasPrefix(strings.ToLower(text), "posted") {
				c.CreatedAt = text
				return false
			}
			return true
		})
	}

	c.JobType = card.Find(`[data-test="job-type"], [data-test="job-type-label"]`).First().Text()
	if c.JobType == "" {
		if strings.Contains(lowerText, "hourly") {
			c.JobType = "Hourly"
		} else if strings.Contains(lowerText, "fixed") {
			c.JobType = "Fixed-price"
		}
	}

	c.Budget = card.Find(`[data-test="job-budget"], [data-test="budget"], [data-test="job-hourly-rate"]`).First().Text()
	if c.Budget == "" {
		card.Find("strong, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if strings.Contains(text, "$") {
				c.Budget = text
				return false
			}
			return true
		})
	}

	if strings.Contains(lowerText, "payment verified") {
		c.ClientPayment = "verified"
	}

	c.ClientReviews = card.Find(`[data-test="client-reviews"]`).First().Text()
	if c.ClientReviews == "" {
		if m := reviewsRe.FindString(cardText); m != "" {
			c.ClientReviews = m
		}
	}

	card.Find(`[data-test="skill-chip"], [data-test="token"] span, a[class*="skill"]`).Each(func(_ int, s *goquery.Selection) {
		c.Skills = append(c.Skills, s.Text())
	})

	return c
}

// cardJobID pulls the listing id from data attributes, falling back to the
// job link. Upwork job URLs look like /jobs/Some-Title_~0123456789/.
func cardJobID(card *goquery.Selection) string {
	for _, attr := range []string{"data-job-id", "data-ev-job-id", "data-test-job-id"} {
		if id, ok := card.Attr(attr); ok && id != "" {
			return id
		}
	}
	link := card.Find(`a[href*="/jobs/"], a[href*="/job/"]`).First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return ""
	}
	if i := strings.Index(href, "~"); i >= 0 {
		id := href[i+1:]
		id = strings.SplitN(id, "/", 2)[0]
		return strings.SplitN(id, "?", 2)[0]
	}
	href = strings.TrimRight(href, "/")
	parts := strings.Split(href, "/")
	id := parts[len(parts)-1]
	return strings.SplitN(id, "?", 2)[0]
}
