package usecase

import "github.com/kirillkom/resumind-client/internal/core/domain"

// Dedupe keeps the first record of every identity key, preserving input order.
func Dedupe(records []domain.ResumeRecord) []domain.ResumeRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.ResumeRecord, 0, len(records))
	for _, record := range records {
		key := record.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out
}
