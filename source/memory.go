package source

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"bidsteer/core"
)

// Record is one keyword row in an account snapshot. It carries both
// impression-share variants; queries project the requested one.
type Record struct {
	AdGroupID                  string             `yaml:"ad_group_id"`
	CriterionID                string             `yaml:"criterion_id"`
	Text                       string             `yaml:"text,omitempty"`
	Status                     core.KeywordStatus `yaml:"status"`
	SearchImpressionShare      float64            `yaml:"search_impression_share"`
	AbsoluteTopImpressionShare float64            `yaml:"absolute_top_impression_share"`
	Impressions                int64              `yaml:"impressions"`
	Cpc                        float64            `yaml:"cpc"`
	FirstPageCpc               float64            `yaml:"first_page_cpc"`
	TopOfPageCpc               float64            `yaml:"top_of_page_cpc"`
}

// Snapshot is an exported account state: a timezone plus keyword rows with
// metrics aggregated over some statistics window.
type Snapshot struct {
	TimeZone string   `yaml:"time_zone"`
	Keywords []Record `yaml:"keywords"`
}

// Memory serves queries from an in-memory snapshot. SetBid mutates the
// snapshot in place and records the mutation order, so tests and dry runs can
// assert the exact write sequence.
type Memory struct {
	loc     *time.Location
	records []Record
	applied []core.BidChange
}

// NewMemory builds a Memory source over the given records.
func NewMemory(loc *time.Location, records []Record) *Memory {
	copied := make([]Record, len(records))
	copy(copied, records)
	return &Memory{loc: loc, records: copied}
}

// LoadSnapshot reads a YAML account snapshot from path.
func LoadSnapshot(path string) (*Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	loc := time.UTC
	if snap.TimeZone != "" {
		loc, err = time.LoadLocation(snap.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot time zone %q: %w", snap.TimeZone, err)
		}
	}

	return NewMemory(loc, snap.Keywords), nil
}

// Keywords filters and sorts the snapshot per q. The snapshot is assumed to
// cover q.Range; the range itself is not re-aggregated here.
func (m *Memory) Keywords(_ context.Context, q Query) ([]core.Keyword, error) {
	matched := make([]core.Keyword, 0, len(m.records))

	for _, rec := range m.records {
		if rec.Status != q.Status {
			continue
		}

		kw := project(rec, q.Metric)
		switch q.Bound {
		case BelowThreshold:
			if kw.ImpressionShare < q.Threshold {
				matched = append(matched, kw)
			}
		case AboveThreshold:
			if kw.ImpressionShare > q.Threshold {
				matched = append(matched, kw)
			}
		default:
			return nil, fmt.Errorf("unknown query bound %q", q.Bound)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Order == Descending {
			return matched[i].ImpressionShare > matched[j].ImpressionShare
		}
		return matched[i].ImpressionShare < matched[j].ImpressionShare
	})

	return matched, nil
}

// SetBid updates the stored bid for the keyword and logs the mutation.
func (m *Memory) SetBid(_ context.Context, id core.KeywordID, cpc float64) error {
	for i := range m.records {
		rec := &m.records[i]
		if rec.AdGroupID == id.AdGroupID && rec.CriterionID == id.CriterionID {
			m.applied = append(m.applied, core.BidChange{ID: id, OldCpc: rec.Cpc, NewCpc: cpc})
			rec.Cpc = cpc
			return nil
		}
	}
	return fmt.Errorf("unknown keyword %s:%s", id.AdGroupID, id.CriterionID)
}

// TimeZone returns the snapshot's account timezone.
func (m *Memory) TimeZone(_ context.Context) (*time.Location, error) {
	return m.loc, nil
}

// Applied returns the bid mutations in the order they were written.
func (m *Memory) Applied() []core.BidChange {
	return m.applied
}

// Snapshot exports the current state, including any applied bid mutations.
func (m *Memory) Snapshot() Snapshot {
	records := make([]Record, len(m.records))
	copy(records, m.records)
	return Snapshot{TimeZone: m.loc.String(), Keywords: records}
}

// WriteSnapshot saves a snapshot as YAML at path.
func WriteSnapshot(path string, snap Snapshot) error {
	raw, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func project(rec Record, metric core.Metric) core.Keyword {
	share := rec.SearchImpressionShare
	if metric == core.MetricAbsoluteTopImpressionShare {
		share = rec.AbsoluteTopImpressionShare
	}

	return core.Keyword{
		ID:              core.KeywordID{AdGroupID: rec.AdGroupID, CriterionID: rec.CriterionID},
		Text:            rec.Text,
		Status:          rec.Status,
		ImpressionShare: share,
		Impressions:     rec.Impressions,
		Cpc:             rec.Cpc,
		FirstPageCpc:    rec.FirstPageCpc,
		TopOfPageCpc:    rec.TopOfPageCpc,
	}
}
