package models

import "time"

// Category classifies certificates. Slug is derived from Name.
type Category struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
