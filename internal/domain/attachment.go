package domain

import "time"

// Attachment stores metadata for a file attached to a complaint. The file
// itself lives in external storage; only the reference is kept here.
type Attachment struct {
	ID          string
	ComplaintID string
	URL         string
	Kind        string
	CreatedAt   time.Time
}
