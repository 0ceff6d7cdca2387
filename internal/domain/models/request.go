package models

import "time"

// RequestType identifies the workflow a request runs through.
type RequestType string

const (
	RequestTypeOverview RequestType = "overview"
	RequestTypeQA       RequestType = "qa"
	RequestTypeHistory  RequestType = "history"
)

// Request is the canonical, validated form of an inbound asset query.
// Symbol is upper-cased and checked against the supported set before any
// provider call; StartDate <= EndDate <= today holds once validated.
type Request struct {
	Symbol    string      `json:"symbol"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Type      RequestType `json:"request_type"`
	Question  string      `json:"question,omitempty"`
}

// DateRange returns the request window formatted as ISO dates.
func (r Request) DateRange() (string, string) {
	return r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02")
}
