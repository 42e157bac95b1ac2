package response

import "review-catalog/internal/data/entity"

type TitleResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description *string           `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

func TitleToResponse(title *entity.TitleDetail) TitleResponse {
	resp := TitleResponse{
		ID:          title.ID.String(),
		Name:        title.Name,
		Year:        title.Year,
		Rating:      title.Rating,
		Description: title.Description,
		Genre:       make([]GenreResponse, len(title.Genres)),
	}

	for i, genre := range title.Genres {
		resp.Genre[i] = GenreToResponse(genre)
	}

	if title.Category != nil {
		category := CategoryToResponse(title.Category)
		resp.Category = &category
	}

	return resp
}
