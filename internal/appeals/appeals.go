// Package appeals is the property-assessment appeal domain plugged into
// the triage pipeline: the payload type, the recommendation strategy, and
// the validators that vote on its results.
package appeals

import (
	"fmt"
	"time"
)

// Recommendations produced by the triage strategy.
const (
	RecommendApprove = "approve-reduction"
	RecommendPartial = "partial-reduction"
	RecommendDeny    = "deny-appeal"
)

// ReasonOverassessment is the appeal reason the strategy treats as
// appeal-worthy when the assessment ratio supports it.
const ReasonOverassessment = "Overassessment"

// AppealCase is the work item payload for one assessment appeal.
type AppealCase struct {
	AppealID       string    `json:"appealId"`
	PropertyID     string    `json:"propertyId"`
	Address        string    `json:"address"`
	OwnerName      string    `json:"ownerName"`
	PropertyType   string    `json:"propertyType"`
	Reason         string    `json:"reason"`
	AssessedValue  int64     `json:"assessedValue"`
	MarketValue    int64     `json:"marketValue"`
	RequestedValue int64     `json:"requestedValue"`
	FiledAt        time.Time `json:"filedAt"`
}

// AssessmentRatio is assessed value over market value. A ratio above 1
// means the property is assessed higher than its estimated market value.
func (a AppealCase) AssessmentRatio() float64 {
	if a.MarketValue <= 0 {
		return 1
	}
	return float64(a.AssessedValue) / float64(a.MarketValue)
}

// RequestedReduction is the requested decrease as a fraction of the
// assessed value.
func (a AppealCase) RequestedReduction() float64 {
	if a.AssessedValue <= 0 {
		return 0
	}
	return float64(a.AssessedValue-a.RequestedValue) / float64(a.AssessedValue)
}

// Measure feeds the pattern analyzer the assessed value.
func (a AppealCase) Measure() float64 {
	return float64(a.AssessedValue)
}

// Fingerprint marks appeals that duplicate the same property and figures.
func (a AppealCase) Fingerprint() string {
	return fmt.Sprintf("%s|%d|%d", a.PropertyID, a.AssessedValue, a.RequestedValue)
}
