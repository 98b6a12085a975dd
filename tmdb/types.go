package tmdb

import (
	"strconv"
)

const imageBaseURL = "https://image.tmdb.org/t/p"

// Movie is a single entry of a TMDB movie search
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
}

// Year returns the release year, or 0 when the release date is unknown
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// PosterURL returns the full poster image URL, or "" when there is no poster
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return imageBaseURL + "/w500" + m.PosterPath
}

// BackdropURL returns the full backdrop image URL, or "" when there is none
func (m Movie) BackdropURL() string {
	if m.BackdropPath == "" {
		return ""
	}
	return imageBaseURL + "/original" + m.BackdropPath
}

// ResultPage is one page of search results
type ResultPage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// IsEmpty reports whether the page carries no movies
func (p *ResultPage) IsEmpty() bool {
	return p.TotalResults == 0 || len(p.Results) == 0
}

// Find returns the movie with the given id on this page
func (p *ResultPage) Find(id int64) (Movie, bool) {
	for _, m := range p.Results {
		if m.ID == id {
			return m, true
		}
	}
	return Movie{}, false
}

// searchResponse mirrors the wire shape so that missing mandatory fields can
// be told apart from zero values.
type searchResponse struct {
	Page         *int    `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   *int    `json:"total_pages"`
	TotalResults *int    `json:"total_results"`
}

// errorResponse is the body TMDB sends with non-2xx responses
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
