package models

import "time"

// BatchStatus represents the lifecycle stage of a certificate batch.
type BatchStatus string

const (
	BatchStatusEmpty     BatchStatus = "empty"
	BatchStatusData      BatchStatus = "data"
	BatchStatusGenerated BatchStatus = "generated"
)

// BatchSummary is the client view of a batch.
type BatchSummary struct {
	ID              string          `json:"id"`
	Status          BatchStatus     `json:"status"`
	Headers         []string        `json:"headers"`
	RowCount        int             `json:"rowCount"`
	SelectedColumns []string        `json:"selectedColumns"`
	Date            string          `json:"date,omitempty"`
	Preset          string          `json:"preset,omitempty"`
	ElementTypes    []ElementType   `json:"elementTypes"`
	SlideCount      int             `json:"slideCount"`
	Background      *BackgroundInfo `json:"background,omitempty"`
	Selected        ElementType     `json:"selected,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastAccessed    time.Time       `json:"lastAccessed"`
}
