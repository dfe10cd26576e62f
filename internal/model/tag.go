package model

// TagID identifies a tag.
type TagID int64

// Tag labels recipes. Name, Color and Slug are each unique.
type Tag struct {
	ID    TagID  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}
