package domain

import "time"

// MaxHistory is the largest number of records a history query returns.
const MaxHistory = 50

// ImageRecord represents one completed generation
type ImageRecord struct {
	ID             string    `json:"id"`
	Prompt         string    `json:"prompt"`
	ImageURL       string    `json:"imageUrl"`
	GenerationTime float64   `json:"generationTime"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StoredObject describes an artifact as seen by the artifact store
type StoredObject struct {
	Key          string
	URL          string
	LastModified time.Time
}

// OrphanReport summarises artifacts that no record references
type OrphanReport struct {
	Scanned  int
	Orphaned []StoredObject
}
