package request

// TitleRequest references its category and genres by slug.
type TitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=50,slug"`
	Genre       []string `json:"genre,omitempty" validate:"omitempty,dive,max=50,slug"`
}

// TitleUpdateRequest leaves nil fields untouched. An empty category clears it
// and an empty genre list removes every genre.
type TitleUpdateRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=256"`
	Year        *int     `json:"year,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50,slug"`
}

type TitleFilterRequest struct {
	Name     string
	Year     *int
	Genre    string
	Category string
}
