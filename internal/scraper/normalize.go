package scraper

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingJobID marks a candidate that cannot be keyed or deduplicated.
// The candidate is rejected; the run continues.
var ErrMissingJobID = errors.New("candidate has no job id")

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	relativeRe   = regexp.MustCompile(`^(\d+)\s+(minutes?|hours?|days?|weeks?)\s+ago$`)
	reviewNumRe  = regexp.MustCompile(`\d+`)
)

// Accepted absolute timestamp formats, tried in order. First match wins.
var createdAtFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
}

var jobTypeLookup = map[string]JobType{
	"hourly":      JobTypeHourly,
	"fixed":       JobTypeFixed,
	"fixed-price": JobTypeFixed,
	"fixed price": JobTypeFixed,
}

type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize converts one candidate into the canonical record. It only fails
// for a missing job id; every optional field degrades to its null value.
func (n *Normalizer) Normalize(c Candidate) (JobRecord, error) {
	jobID := CleanText(c.JobID)
	if jobID == "" {
		return JobRecord{}, ErrMissingJobID
	}

	return JobRecord{
		JobID:                     jobID,
		Title:                     CleanText(c.Title),
		Description:               CleanText(c.Description),
		CreatedAt:                 n.parseCreatedAt(c.CreatedAt),
		JobType:                   parseJobType(c.JobType),
		Duration:                  CleanText(c.Duration),
		Budget:                    CleanText(c.Budget),
		ClientLocation:            CleanText(c.ClientLocation),
		ClientPaymentVerification: parsePaymentVerified(c.ClientPayment),
		ClientSpent:               CleanText(c.ClientSpent),
		ClientReviews:             parseReviews(c.ClientReviews),
		Category:                  CleanText(c.Category),
		Skills:                    normalizeSkills(c.Skills),
	}, nil
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// foldText lowercases and strips diacritics, for accent-insensitive keys.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return strings.ToLower(out)
}

func parseJobType(s string) JobType {
	if jt, ok := jobTypeLookup[strings.ToLower(CleanText(s))]; ok {
		return jt
	}
	return JobTypeUnknown
}

// parseCreatedAt turns "Posted 3 hours ago" snippets and plain dates into a
// timestamp. Unparseable input yields nil, never an error.
func (n *Normalizer) parseCreatedAt(s string) *time.Time {
	text := CleanText(s)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "posted") {
		text = strings.TrimLeft(text[len("posted"):], " ,-")
		lower = strings.ToLower(text)
	}

	if m := relativeRe.FindStringSubmatch(lower); m != nil {
		value, _ := strconv.Atoi(m[1])
		var d time.Duration
		switch {
		case strings.HasPrefix(m[2], "minute"):
			d = time.Duration(value) * time.Minute
		case strings.HasPrefix(m[2], "hour"):
			d = time.Duration(value) * time.Hour
		case strings.HasPrefix(m[2], "day"):
			d = time.Duration(value) * 24 * time.Hour
		case strings.HasPrefix(m[2], "week"):
			d = time.Duration(value) * 7 * 24 * time.Hour
		}
		ts := n.now().UTC().Add(-d)
		return &ts
	}

	if lower == "yesterday" {
		ts := n.now().UTC().Add(-24 * time.Hour)
		return &ts
	}

	for _, format := range createdAtFormats {
		if ts, err := time.Parse(format, text); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

// Absence defaults to false: an unverified claim is treated as unverified.
func parsePaymentVerified(s string) bool {
	switch strings.ToLower(CleanText(s)) {
	case "verified", "payment verified", "yes", "true":
		return true
	}
	return false
}

func parseReviews(s string) *int {
	m := reviewNumRe.FindString(s)
	if m == "" {
		return nil
	}
	count, err := strconv.Atoi(m)
	if err != nil || count < 0 || count >= 10000 {
		return nil
	}
	return &count
}

// normalizeSkills trims each skill, drops empties and collapses duplicates
// (accent- and case-insensitive) keeping first occurrence order.
func normalizeSkills(skills []string) []string {
	if len(skills) == 0 {
		return nil
	}
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, raw := range skills {
		skill := CleanText(raw)
		if skill == "" {
			continue
		}
		key := foldText(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
