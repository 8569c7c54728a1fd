package rating_models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/shared_models"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrAlreadyRated  = errors.New("you have already rated this package")
	ErrNotBooked     = errors.New("only travellers who booked this package can rate it")
)

type Rating struct {
	ID         uuid.UUID `json:"_id"`
	PackageID  uuid.UUID `json:"packageId"`
	UserID     uuid.UUID `json:"userRef"`
	Username   string    `json:"username"`
	UserAvatar string    `json:"userProfileImg"`
	Rating     int       `json:"rating"`
	Review     string    `json:"review"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Average struct {
	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"totalRatings"`
}

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	shared_models.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	DB Beginner
}

func NewStore(db Beginner) *Store {
	return &Store{DB: db}
}

// Give stores a rating and refreshes the package average in one transaction.
func (s *Store) Give(ctx context.Context, r *Rating) error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	r.Review = strings.TrimSpace(r.Review)

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID for rating: %w", err)
	}
	r.ID = id

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var booked bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE package_id = $1 AND user_id = $2)`,
		r.PackageID, r.UserID).Scan(&booked)
	if err != nil {
		return fmt.Errorf("failed to check bookings: %w", err)
	}
	if !booked {
		return ErrNotBooked
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ratings (id, package_id, user_id, username, user_avatar, rating, review)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		r.ID, r.PackageID, r.UserID, r.Username, r.UserAvatar, r.Rating, r.Review).Scan(&r.CreatedAt)
	if err != nil {
		if shared_models.IsUniqueViolation(err) {
			return ErrAlreadyRated
		}
		logger.ErrorLogger.Errorf("Failed to insert rating for package %s: %v", r.PackageID, err)
		return fmt.Errorf("failed to save rating: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE packages p SET
			rating = agg.avg_rating,
			total_ratings = agg.total,
			updated_at = NOW()
		FROM (SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg_rating, COUNT(*) AS total
		      FROM ratings WHERE package_id = $1) agg
		WHERE p.id = $1`, r.PackageID)
	if err != nil {
		return fmt.Errorf("failed to refresh package rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rating: %w", err)
	}
	logger.InfoLogger.Infof("User %s rated package %s with %d", r.UserID, r.PackageID, r.Rating)
	return nil
}

// Latest returns up to limit ratings for a package, newest first. A
// non-positive limit returns all of them.
func (s *Store) Latest(ctx context.Context, packageID uuid.UUID, limit int) ([]Rating, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, package_id, user_id, username, user_avatar, rating, review, created_at
		FROM ratings WHERE package_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, packageID, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []Rating{}
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ID, &r.PackageID, &r.UserID, &r.Username, &r.UserAvatar, &r.Rating, &r.Review, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func (s *Store) AverageFor(ctx context.Context, packageID uuid.UUID) (*Average, error) {
	avg := &Average{}
	err := s.DB.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM ratings WHERE package_id = $1`,
		packageID).Scan(&avg.Rating, &avg.TotalRatings)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average rating: %w", err)
	}
	return avg, nil
}
