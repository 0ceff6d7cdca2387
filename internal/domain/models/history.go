package models

import (
	"encoding/json"
	"time"
)

// HistoryRecord is a completed request and its result, keyed by the request
// fingerprint. Records are immutable once written; the store keeps at most
// one record per fingerprint (last write wins).
type HistoryRecord struct {
	Fingerprint string          `json:"fingerprint"`
	Symbol      string          `json:"symbol"`
	Type        RequestType     `json:"request_type"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Question    string          `json:"question,omitempty"`
	Result      json.RawMessage `json:"result"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewHistoryRecord builds a record from a request and its marshaled result.
func NewHistoryRecord(fingerprint string, req Request, result interface{}) (*HistoryRecord, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	start, end := req.DateRange()
	return &HistoryRecord{
		Fingerprint: fingerprint,
		Symbol:      req.Symbol,
		Type:        req.Type,
		StartDate:   start,
		EndDate:     end,
		Question:    req.Question,
		Result:      raw,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
