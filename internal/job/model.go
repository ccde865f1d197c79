package job

import "time"

// JobPost is a single job listing record as stored. ID, OwnerID, Slug and
// CreatedAt are assigned at insertion and never change afterwards.
type JobPost struct {
	ID             string
	Title          string
	CompanyName    string
	CompanyWebsite string
	Location       string
	Description    string
	OwnerID        string
	Slug           string
	CreatedAt      time.Time
}

// JobRq carries the mutable fields of a posting as submitted by a user. The
// same request type serves both create and update: ownership and identity
// fields are deliberately absent, they are stamped server-side.
type JobRq struct {
	Title          string `json:"title" validate:"required,min=5"`
	CompanyName    string `json:"company_name" validate:"required,min=2"`
	CompanyWebsite string `json:"company_website" validate:"omitempty,url"`
	Location       string `json:"location"`
	Description    string `json:"description" validate:"required,min=20"`
}

// ListQuery is the user-facing query state: page position plus optional
// search text. It is ephemeral, rebuilt on every controller state change.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
}

// ListRequest is the store-facing shape derived from a ListQuery.
type ListRequest struct {
	Offset  int
	Limit   int
	OrderBy string
	// TitleQuery is a tsquery over the title column, empty when the search
	// text was empty or whitespace only.
	TitleQuery string
}
