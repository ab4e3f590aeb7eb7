package models

import "time"

// AboutContentKey is the fixed identifier of the singleton about document.
const AboutContentKey = "about"

// SiteContent is a free-text document keyed by a well-known identifier.
// Currently only the "about" page uses it.
type SiteContent struct {
	Key          string    `json:"key"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
}
