package models

import "time"

// FileInfo represents metadata about a stored file.
type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Status      string    `json:"status"` // "uploaded", "generated"
}

// BackgroundInfo describes the certificate background image of a batch.
type BackgroundInfo struct {
	FileID      string  `json:"fileId"`
	Format      string  `json:"format"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
	Orientation string  `json:"orientation"` // "landscape", "portrait"
}
