package models

// DailyStats holds the number of leads created on one calendar day
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatusCount is a group-by row of leads per status
type StatusCount struct {
	Status LeadStatus `json:"status"`
	Count  int64      `json:"count"`
}

// LeadStats is the dashboard summary of the pipeline
type LeadStats struct {
	Total      int64         `json:"total"`
	Today      int64         `json:"today"`
	Unassigned int64         `json:"unassigned"`
	ByStatus   []StatusCount `json:"by_status"`
	Daily      []DailyStats  `json:"daily"`
}
