package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"AssetBrief/internal/domain/models"
	"AssetBrief/pkg/util"
)

// Fingerprint derives the stable identity of a request. Two requests with the
// same symbol, date range, type, and normalized question always collide, which
// is what makes history writes idempotent.
func Fingerprint(req models.Request) string {
	start, end := req.DateRange()
	parts := []string{
		strings.ToUpper(req.Symbol),
		start,
		end,
		string(req.Type),
		normalizeQuestion(req.Question),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// normalizeQuestion lower-cases and collapses whitespace so trivially
// reworded questions share a fingerprint.
func normalizeQuestion(q string) string {
	return util.NormalizeSpace(strings.ToLower(q))
}
