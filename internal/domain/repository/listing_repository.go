package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
)

// ListingSearchFilter narrows a listing search. Zero values mean "no filter".
type ListingSearchFilter struct {
	Query    string // substring matched against title, details and address
	MaxPrice int
	HostID   string
}

type ListingRepository interface {
	CreateListing(ctx context.Context, tx *sql.Tx, listing *model.Listing) error
	UpdateListing(ctx context.Context, listing *model.Listing) error
	DeleteListing(ctx context.Context, id string) error
	FindListingByID(ctx context.Context, id string) (*model.Listing, error)
	SearchListings(ctx context.Context, limit, offset int, filter ListingSearchFilter) ([]model.Listing, int, error)

	AddPhotosToListing(ctx context.Context, tx *sql.Tx, listingID string, photos []model.ListingPhoto) error
	GetPhotosByListingID(ctx context.Context, listingID string) ([]model.ListingPhoto, error)
}

type pgListingRepository struct {
	db *sql.DB
}

func NewPgListingRepository(db *sql.DB) ListingRepository {
	return &pgListingRepository{db: db}
}

func (r *pgListingRepository) CreateListing(ctx context.Context, tx *sql.Tx, l *model.Listing) error {
	query := `INSERT INTO listings (id, title, slug, price, details, address, host_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, l.ID, l.Title, l.Slug, l.Price, l.Details, l.Address, l.HostID)
	} else {
		_, err = r.db.ExecContext(ctx, query, l.ID, l.Title, l.Slug, l.Price, l.Details, l.Address, l.HostID)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("listing with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgListingRepository.CreateListing: %w", err)
	}
	return nil
}

func (r *pgListingRepository) UpdateListing(ctx context.Context, l *model.Listing) error {
	query := `UPDATE listings SET
	            title = $1, price = $2, details = $3, address = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, l.Title, l.Price, l.Details, l.Address, l.ID)
	if err != nil {
		return fmt.Errorf("pgListingRepository.UpdateListing: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgListingRepository) DeleteListing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgListingRepository.DeleteListing: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgListingRepository) FindListingByID(ctx context.Context, id string) (*model.Listing, error) {
	query := `
        SELECT l.id, l.title, l.slug, l.price, l.details, l.address,
               l.host_id, u.username AS host_username, l.created_at, l.updated_at
        FROM listings l
        LEFT JOIN users u ON l.host_id = u.id
        WHERE l.id = $1`

	listing := &model.Listing{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&listing.ID, &listing.Title, &listing.Slug, &listing.Price, &listing.Details,
		&listing.Address, &listing.HostID, &listing.HostUsername,
		&listing.CreatedAt, &listing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgListingRepository.FindListingByID: %w", err)
	}
	return listing, nil
}

func (r *pgListingRepository) SearchListings(ctx context.Context, limit, offset int, filter ListingSearchFilter) ([]model.Listing, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.Query != "" {
		n := strconv.Itoa(len(args) + 1)
		where += " AND (l.title ILIKE '%' || $" + n + " || '%'" +
			" OR l.details ILIKE '%' || $" + n + " || '%'" +
			" OR l.address ILIKE '%' || $" + n + " || '%')"
		args = append(args, filter.Query)
	}
	if filter.MaxPrice > 0 {
		where += " AND l.price <= $" + strconv.Itoa(len(args)+1)
		args = append(args, filter.MaxPrice)
	}
	if filter.HostID != "" {
		where += " AND l.host_id = $" + strconv.Itoa(len(args)+1)
		args = append(args, filter.HostID)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM listings l" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgListingRepository.SearchListings count: %w", err)
	}

	query := `SELECT l.id, l.title, l.slug, l.price, l.details, l.address,
	                 l.host_id, u.username AS host_username, l.created_at, l.updated_at
	          FROM listings l
	          LEFT JOIN users u ON l.host_id = u.id` + where +
		" ORDER BY l.created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) +
		" OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgListingRepository.SearchListings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Slug, &l.Price, &l.Details, &l.Address,
			&l.HostID, &l.HostUsername, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgListingRepository.SearchListings scan: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, total, rows.Err()
}

func (r *pgListingRepository) AddPhotosToListing(ctx context.Context, tx *sql.Tx, listingID string, photos []model.ListingPhoto) error {
	query := `INSERT INTO listing_photos (id, listing_id, url, thumbnail_url, sort_order)
	          VALUES ($1, $2, $3, $4, $5)`
	for _, p := range photos {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, p.ID, listingID, p.URL, p.ThumbnailURL, p.SortOrder)
		} else {
			_, err = r.db.ExecContext(ctx, query, p.ID, listingID, p.URL, p.ThumbnailURL, p.SortOrder)
		}
		if err != nil {
			return fmt.Errorf("pgListingRepository.AddPhotosToListing: %w", err)
		}
	}
	return nil
}

func (r *pgListingRepository) GetPhotosByListingID(ctx context.Context, listingID string) ([]model.ListingPhoto, error) {
	query := `SELECT id, listing_id, url, thumbnail_url, sort_order, created_at
	          FROM listing_photos WHERE listing_id = $1 ORDER BY sort_order, created_at`
	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("pgListingRepository.GetPhotosByListingID: %w", err)
	}
	defer rows.Close()

	var photos []model.ListingPhoto
	for rows.Next() {
		var p model.ListingPhoto
		if err := rows.Scan(&p.ID, &p.ListingID, &p.URL, &p.ThumbnailURL, &p.SortOrder, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgListingRepository.GetPhotosByListingID scan: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
