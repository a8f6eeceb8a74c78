package model

import "time"

// Medication is one scheduled dose. A drug taken at three times of day is
// stored as three rows, each with its own HH:MM scheduled time.
type Medication struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	ScheduledTime string    `json:"scheduledTime"`
	Image         string    `json:"image"`
	Taken         bool      `json:"taken"`
	Postponed     bool      `json:"postponed"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ScannedMedication is one entry extracted from a medication handbook scan.
// Time may be a comma-separated list; only the first entry is scheduled.
type ScannedMedication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Time   string `json:"time"`
}

// ManualMedication is one entry from the manual input form. Each time in
// Times becomes its own Medication row.
type ManualMedication struct {
	Name       string   `json:"name"`
	Dosage     string   `json:"dosage"`
	Frequency  string   `json:"frequency"`
	MealTiming string   `json:"mealTiming"`
	Times      []string `json:"times"`
}
