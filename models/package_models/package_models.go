package package_models

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

const DefaultLimit = 9

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrMissingFields   = errors.New("all fields are required")
	ErrInvalidPrice    = errors.New("price should be greater than 0")
	ErrDiscountTooHigh = errors.New("regular price should be greater than discount price")
	ErrInvalidDuration = errors.New("provide days and nights")
	ErrPackageInUse    = errors.New("package has bookings and cannot be deleted")
)

// TravelPackage is a bookable trip in the catalog. Prices are in paise.
type TravelPackage struct {
	ID             uuid.UUID `json:"_id"`
	Name           string    `json:"packageName"`
	Description    string    `json:"packageDescription"`
	Destination    string    `json:"packageDestination"`
	Days           int       `json:"packageDays"`
	Nights         int       `json:"packageNights"`
	Accommodation  string    `json:"packageAccommodation"`
	Transportation string    `json:"packageTransportation"`
	Meals          string    `json:"packageMeals"`
	Activities     string    `json:"packageActivities"`
	Price          int64     `json:"packagePrice"`
	DiscountPrice  int64     `json:"packageDiscountPrice"`
	Offer          bool      `json:"packageOffer"`
	Images         []string  `json:"packageImages"`
	Rating         float64   `json:"packageRating"`
	TotalRatings   int       `json:"packageTotalRatings"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UnitPrice is the per-person price a booking is charged.
func (p *TravelPackage) UnitPrice() int64 {
	if p.Offer && p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// Validate applies the catalog rules for create and update.
func (p *TravelPackage) Validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Description) == "" ||
		strings.TrimSpace(p.Destination) == "" || p.Accommodation == "" || p.Transportation == "" ||
		p.Meals == "" || p.Activities == "" || len(p.Images) == 0 {
		return ErrMissingFields
	}
	if p.Price <= 0 || p.DiscountPrice < 0 {
		return ErrInvalidPrice
	}
	if p.Price < p.DiscountPrice {
		return ErrDiscountTooHigh
	}
	if p.Days <= 0 && p.Nights <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// SearchParams mirrors the catalog query string.
type SearchParams struct {
	SearchTerm string
	OfferOnly  bool
	Sort       string
	Order      string
	Limit      int
	StartIndex int
}

var sortColumns = map[string]string{
	"createdAt":            "created_at",
	"packagePrice":         "price",
	"packageDiscountPrice": "discount_price",
	"packageRating":        "rating",
	"packageTotalRatings":  "total_ratings",
	"packageDays":          "days",
}

// orderBy whitelists the sort column; unknown keys fall back to newest first.
func (s SearchParams) orderBy() string {
	col, ok := sortColumns[s.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(s.Order, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

func (s SearchParams) limit() int {
	if s.Limit <= 0 {
		return DefaultLimit
	}
	return s.Limit
}

type Store struct {
	DB shared_models.DBTX
}

func NewStore(db shared_models.DBTX) *Store {
	return &Store{DB: db}
}

const packageColumns = `id, name, description, destination, days, nights, accommodation, transportation,
	meals, activities, price, discount_price, offer, images, rating::float8, total_ratings, created_at, updated_at`

func scanPackage(row pgx.Row) (*TravelPackage, error) {
	p := &TravelPackage{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Destination, &p.Days, &p.Nights, &p.Accommodation,
		&p.Transportation, &p.Meals, &p.Activities, &p.Price, &p.DiscountPrice, &p.Offer, &p.Images,
		&p.Rating, &p.TotalRatings, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) Create(ctx context.Context, p *TravelPackage) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID for package: %w", err)
	}
	p.ID = id

	err = s.DB.QueryRow(ctx, `
		INSERT INTO packages (id, name, description, destination, days, nights, accommodation, transportation,
			meals, activities, price, discount_price, offer, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Destination, p.Days, p.Nights, p.Accommodation, p.Transportation,
		p.Meals, p.Activities, p.Price, p.DiscountPrice, p.Offer, p.Images,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to create package %q: %v", p.Name, err)
		return fmt.Errorf("failed to create package: %w", err)
	}
	logger.InfoLogger.Infof("Package %s created", p.ID)
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*TravelPackage, error) {
	p, err := scanPackage(s.DB.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrPackageNotFound) {
		return nil, fmt.Errorf("database error fetching package: %w", err)
	}
	return p, err
}

// Update replaces the editable fields. Ratings are maintained by the rating store.
func (s *Store) Update(ctx context.Context, p *TravelPackage) (*TravelPackage, error) {
	updated, err := scanPackage(s.DB.QueryRow(ctx, `
		UPDATE packages SET name = $2, description = $3, destination = $4, days = $5, nights = $6,
			accommodation = $7, transportation = $8, meals = $9, activities = $10, price = $11,
			discount_price = $12, offer = $13, images = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING `+packageColumns,
		p.ID, p.Name, p.Description, p.Destination, p.Days, p.Nights, p.Accommodation, p.Transportation,
		p.Meals, p.Activities, p.Price, p.DiscountPrice, p.Offer, p.Images))
	if err != nil && !errors.Is(err, ErrPackageNotFound) {
		logger.ErrorLogger.Errorf("Failed to update package %s: %v", p.ID, err)
		return nil, fmt.Errorf("failed to update package: %w", err)
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		if shared_models.IsForeignKeyViolation(err) {
			return ErrPackageInUse
		}
		logger.ErrorLogger.Errorf("Failed to delete package %s: %v", id, err)
		return fmt.Errorf("failed to delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	logger.InfoLogger.Infof("Package %s deleted", id)
	return nil
}

// Search matches the term against name and destination.
func (s *Store) Search(ctx context.Context, params SearchParams) ([]TravelPackage, error) {
	query := `SELECT ` + packageColumns + ` FROM packages
		WHERE (name ILIKE '%' || $1 || '%' OR destination ILIKE '%' || $1 || '%')
		  AND ($2 = FALSE OR offer = TRUE)
		ORDER BY ` + params.orderBy() + `
		LIMIT $3 OFFSET $4`

	rows, err := s.DB.Query(ctx, query, params.SearchTerm, params.OfferOnly, params.limit(), max(params.StartIndex, 0))
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to search packages: %v", err)
		return nil, fmt.Errorf("failed to search packages: %w", err)
	}
	defer rows.Close()

	packages := []TravelPackage{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}
