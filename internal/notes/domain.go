package notes

import "time"

// Note is a user-owned note.
type Note struct {
	ID        string
	UserID    int64
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListItem is the subset of a note shown in the sidebar listing.
type ListItem struct {
	ID    string
	Title string
}
