package models

// CheckRequest selects the farm, day and addressee of a barn-return check.
// An empty FarmID targets records that carry no farm. A zero Date means today.
// An empty UserID addresses the alert to the farm's admin.
type CheckRequest struct {
	FarmID string
	UserID string
	Date   Date
}

// CheckResult summarizes one evaluation.
type CheckResult struct {
	FarmID          string         `json:"farm_id"`
	Date            Date           `json:"date"`
	MissingAnimals  []string       `json:"missing_animals"`
	AlertsGenerated int            `json:"alerts_generated"`
	Alerts          []Notification `json:"alerts"`
}
