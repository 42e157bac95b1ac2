package response

import "review-catalog/internal/data/entity"

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func CategoryToResponse(category *entity.Category) CategoryResponse {
	return CategoryResponse{Name: category.Name, Slug: category.Slug}
}

func GenreToResponse(genre *entity.Genre) GenreResponse {
	return GenreResponse{Name: genre.Name, Slug: genre.Slug}
}
