package entity

import (
	"github.com/google/uuid"
)

type Title struct {
	BaseNoDelete
	Name        string     `db:"name"`
	Year        int        `db:"year"`
	Description *string    `db:"description"`
	CategoryID  *uuid.UUID `db:"category_id"`
}

// TitleDetail is the read model: the title with its category, genres and
// the average review score. Rating is nil when the title has no reviews.
type TitleDetail struct {
	Title
	Category *Category
	Genres   []*Genre
	Rating   *float64
}

// TitleFilter narrows title listings. Empty fields do not filter.
type TitleFilter struct {
	Name     string
	Year     *int
	Genre    string
	Category string
}
