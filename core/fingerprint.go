package core

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeChangeFingerprint computes a deterministic digest of one bid change.
//
// Formula: SHA256(ad_group_id + ":" + criterion_id + "|" + sprintf("%.4f", old) + "|" + sprintf("%.4f", new))
//
// Bids are formatted to exactly 4 decimal places so the digest is consistent
// regardless of how the float is represented in memory.
func ComputeChangeFingerprint(change BidChange) string {
	data := fmt.Sprintf("%s:%s|%.4f|%.4f",
		change.ID.AdGroupID, change.ID.CriterionID, change.OldCpc, change.NewCpc)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputePlanFingerprint computes a deterministic digest of a whole run's
// mutation plan. Changes are sorted by keyword identity first, so the digest
// is independent of the order mutations were applied in.
func ComputePlanFingerprint(changes []BidChange) string {
	sorted := make([]BidChange, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ID.AdGroupID != sorted[j].ID.AdGroupID {
			return sorted[i].ID.AdGroupID < sorted[j].ID.AdGroupID
		}
		return sorted[i].ID.CriterionID < sorted[j].ID.CriterionID
	})

	data := ""
	for _, change := range sorted {
		data += fmt.Sprintf("%s:%s|%.4f|%.4f\n",
			change.ID.AdGroupID, change.ID.CriterionID, change.OldCpc, change.NewCpc)
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
