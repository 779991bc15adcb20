package services

import (
	"errors"
	"fmt"

	"github.com/cinemai/backend/internal/dto"
	"github.com/cinemai/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrIMDBIDTaken = errors.New("a movie with this imdb id already exists")

type MovieService struct {
	db *gorm.DB
}

func NewMovieService(db *gorm.DB) *MovieService {
	return &MovieService{db: db}
}

// Seed creates a catalog entry from admin input.
func (s *MovieService) Seed(req *dto.SeedMovieRequest) (*models.Movie, error) {
	if req.Title == "" {
		return nil, errors.New("title is required")
	}

	if req.IMDBID != nil && *req.IMDBID != "" {
		var existing models.Movie
		if err := s.db.Where("imdb_id = ?", *req.IMDBID).First(&existing).Error; err == nil {
			return nil, ErrIMDBIDTaken
		}
	}

	movie := models.Movie{
		ID:             uuid.New(),
		Title:          req.Title,
		Year:           req.Year,
		Genre:          req.Genre,
		Director:       req.Director,
		Plot:           req.Plot,
		PosterURL:      req.PosterURL,
		IMDBID:         req.IMDBID,
		Rating:         req.Rating,
		RuntimeMinutes: req.RuntimeMinutes,
	}
	if err := s.db.Create(&movie).Error; err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	return &movie, nil
}

// Get looks up a movie by id.
func (s *MovieService) Get(movieID uuid.UUID) (*models.Movie, error) {
	var movie models.Movie
	if err := s.db.First(&movie, "id = ?", movieID).Error; err != nil {
		return nil, ErrMovieNotFound
	}
	return &movie, nil
}
