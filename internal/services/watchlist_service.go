package services

import (
	"errors"
	"fmt"

	"github.com/cinemai/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrNotInWatchlist = errors.New("watchlist entry not found")
)

type WatchlistService struct {
	db *gorm.DB
}

func NewWatchlistService(db *gorm.DB) *WatchlistService {
	return &WatchlistService{db: db}
}

// List returns the user's watchlist, newest first, movies preloaded.
func (s *WatchlistService) List(userID uuid.UUID) ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	err := s.db.Preload("Movie").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&items).Error
	return items, err
}

// Add puts a movie on the user's watchlist. Adding a movie that is already
// there is not an error; alreadyPresent tells the caller which case it was.
func (s *WatchlistService) Add(userID, movieID uuid.UUID) (item *models.WatchlistItem, alreadyPresent bool, err error) {
	var movie models.Movie
	if err := s.db.First(&movie, "id = ?", movieID).Error; err != nil {
		return nil, false, ErrMovieNotFound
	}

	var existing models.WatchlistItem
	if err := s.db.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&existing).Error; err == nil {
		existing.Movie = movie
		return &existing, true, nil
	}

	entry := models.WatchlistItem{
		ID:      uuid.New(),
		UserID:  userID,
		MovieID: movieID,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, false, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	entry.Movie = movie
	return &entry, false, nil
}

// Update sets watched/notes on an entry. The user_id filter doubles as the
// ownership check: another user's entry simply does not resolve.
func (s *WatchlistService) Update(userID, itemID uuid.UUID, watched *bool, notes *string) (*models.WatchlistItem, error) {
	var item models.WatchlistItem
	if err := s.db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		return nil, ErrNotInWatchlist
	}

	updates := map[string]interface{}{}
	if watched != nil {
		updates["watched"] = *watched
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if len(updates) > 0 {
		if err := s.db.Model(&item).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update watchlist entry: %w", err)
		}
	}

	if err := s.db.Preload("Movie").First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes an entry, scoped to the owning user.
func (s *WatchlistService) Remove(userID, itemID uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.WatchlistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotInWatchlist
	}
	return nil
}
