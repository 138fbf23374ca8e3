package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const defaultSearchURL = "https://www.upwork.com/nx/search/jobs/"

// Filters are additive search constraints. Zero values mean "not set".
type Filters struct {
	Category  string `yaml:"category"`
	JobType   string `yaml:"job_type"`
	BudgetMin int    `yaml:"budget_min"`
	BudgetMax int    `yaml:"budget_max"`
}

// SearchQuery seeds a run with either a raw search URL or a keyword plus
// filters. Exactly one of URL/Keyword must be set.
type SearchQuery struct {
	URL     string
	Keyword string
	Filters Filters
}

// PageRequest is one fully resolved fetchable unit.
type PageRequest struct {
	URL  string
	Page int
}

type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

var pageParamRe = regexp.MustCompile(`([?&]page=)\d*`)

type QueryBuilder struct {
	baseURL string
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{baseURL: defaultSearchURL}
}

// Build resolves a query into the request for one page. Pages are 1-based.
// A raw URL is authoritative: filters are never re-injected into it, and a
// literal {page} placeholder is substituted when present. Keyword queries
// encode parameters in a fixed order so identical queries always produce
// byte-identical URLs.
func (b *QueryBuilder) Build(q SearchQuery, page int) (PageRequest, error) {
	if err := validate(q, page); err != nil {
		return PageRequest{}, err
	}

	if q.URL != "" {
		return PageRequest{URL: pagedURL(q.URL, page), Page: page}, nil
	}

	var sb strings.Builder
	sb.WriteString(b.baseURL)
	sb.WriteString("?q=")
	sb.WriteString(url.QueryEscape(q.Keyword))
	if q.Filters.Category != "" {
		sb.WriteString("&category=")
		sb.WriteString(url.QueryEscape(q.Filters.Category))
	}
	if q.Filters.JobType != "" {
		sb.WriteString("&job_type=")
		sb.WriteString(url.QueryEscape(strings.ToLower(q.Filters.JobType)))
	}
	if q.Filters.BudgetMin > 0 {
		sb.WriteString("&budget_min=")
		sb.WriteString(strconv.Itoa(q.Filters.BudgetMin))
	}
	if q.Filters.BudgetMax > 0 {
		sb.WriteString("&budget_max=")
		sb.WriteString(strconv.Itoa(q.Filters.BudgetMax))
	}
	sb.WriteString("&page=")
	sb.WriteString(strconv.Itoa(page))

	return PageRequest{URL: sb.String(), Page: page}, nil
}

// pagedURL sets the page on a raw search URL without disturbing the rest of
// it: substitute a {page} template, update an existing page parameter, or
// append one.
func pagedURL(raw string, page int) string {
	p := strconv.Itoa(page)
	if strings.Contains(raw, "{page}") {
		return strings.ReplaceAll(raw, "{page}", p)
	}
	if pageParamRe.MatchString(raw) {
		return pageParamRe.ReplaceAllString(raw, "${1}"+p)
	}
	if strings.Contains(raw, "?") {
		return raw + "&page=" + p
	}
	return raw + "?page=" + p
}

func validate(q SearchQuery, page int) error {
	if q.URL == "" && q.Keyword == "" {
		return &InvalidQueryError{Reason: "either a search URL or a keyword is required"}
	}
	if q.URL != "" && q.Keyword != "" {
		return &InvalidQueryError{Reason: "search URL and keyword are mutually exclusive"}
	}
	if page < 0 {
		return &InvalidQueryError{Reason: fmt.Sprintf("page must be >= 0, got %d", page)}
	}
	f := q.Filters
	if f.BudgetMin < 0 || f.BudgetMax < 0 {
		return &InvalidQueryError{Reason: "budget filters must not be negative"}
	}
	if f.BudgetMin > 0 && f.BudgetMax > 0 && f.BudgetMin > f.BudgetMax {
		return &InvalidQueryError{Reason: "budget_min must not exceed budget_max"}
	}
	if f.JobType != "" {
		switch strings.ToLower(f.JobType) {
		case "hourly", "fixed", "fixed-price":
		default:
			return &InvalidQueryError{Reason: "job_type filter must be hourly or fixed"}
		}
	}
	return nil
}
