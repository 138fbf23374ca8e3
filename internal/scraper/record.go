package scraper

import "time"

type JobType string

const (
	JobTypeHourly  JobType = "Hourly"
	JobTypeFixed   JobType = "Fixed"
	JobTypeUnknown JobType = "Unknown"
)

// JobRecord is the canonical output entity for one listing. Field order here
// is the export order for every format.
type JobRecord struct {
	JobID                     string     `json:"jobId"`
	Title                     string     `json:"title"`
	Description               string     `json:"description"`
	CreatedAt                 *time.Time `json:"createdAt"`
	JobType                   JobType    `json:"jobType"`
	Duration                  string     `json:"duration"`
	Budget                    string     `json:"budget"`
	ClientLocation            string     `json:"clientLocation"`
	ClientPaymentVerification bool       `json:"clientPaymentVerification"`
	ClientSpent               string     `json:"clientSpent"`
	ClientReviews             *int       `json:"clientReviews"`
	Category                  string     `json:"category"`
	Skills                    []string   `json:"skills"`
}

// Candidate is the raw, unvalidated data pulled from one listing card.
// Empty string means the sub-element was not present on the card.
type Candidate struct {
	JobID          string
	Title          string
	Description    string
	CreatedAt      string
	JobType        string
	Duration       string
	Budget         string
	ClientLocation string
	ClientPayment  string
	ClientSpent    string
	ClientReviews  string
	Category       string
	Skills         []string
}
