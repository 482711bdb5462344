package model

import "time"

// StatsSnapshot holds derived aggregate counts over the current region
// configurations. Advisory only: aggregation failures degrade to a zeroed
// snapshot with Error set instead of propagating.
type StatsSnapshot struct {
	TotalRegions       int       `json:"totalRegions"`
	ActiveRegions      int       `json:"activeRegions"`
	TotalFSAs          int       `json:"totalFSAs"`
	RegionsWithPricing int       `json:"regionsWithPricing"`
	TotalWeightRanges  int       `json:"totalWeightRanges"`
	LastCalculated     time.Time `json:"lastCalculated"`
	Error              string    `json:"error,omitempty"`
}
