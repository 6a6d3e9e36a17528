package core

// KeywordStatus is the serving state of a keyword criterion.
type KeywordStatus string

const (
	StatusEnabled  KeywordStatus = "ENABLED"
	StatusDisabled KeywordStatus = "DISABLED"
)

// Metric selects which impression-share variant drives bid adjustment.
type Metric string

const (
	MetricImpressionShare            Metric = "SEARCH_IMPRESSION_SHARE"
	MetricAbsoluteTopImpressionShare Metric = "SEARCH_ABSOLUTE_TOP_IMPRESSION_SHARE"
)

// KeywordID identifies a keyword criterion within an ad group.
type KeywordID struct {
	AdGroupID   string `json:"ad_group_id"`
	CriterionID string `json:"criterion_id"`
}

// Keyword is a snapshot of one keyword's performance over the statistics
// window. ImpressionShare holds the configured metric variant, already
// projected by the data source, so the policy has a single code path.
type Keyword struct {
	ID              KeywordID     `json:"id"`
	Text            string        `json:"text,omitempty"`
	Status          KeywordStatus `json:"status"`
	ImpressionShare float64       `json:"impression_share"`
	Impressions     int64         `json:"impressions"`
	Cpc             float64       `json:"cpc"`
	FirstPageCpc    float64       `json:"first_page_cpc"`
	TopOfPageCpc    float64       `json:"top_of_page_cpc"`
}

// BidChange records one applied bid mutation.
type BidChange struct {
	ID     KeywordID `json:"id"`
	OldCpc float64   `json:"old_cpc"`
	NewCpc float64   `json:"new_cpc"`
}
