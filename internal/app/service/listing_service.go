package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
	"sharebnb/internal/domain/repository"
)

// PhotoStorage uploads a photo and returns its public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type ListingService struct {
	listingRepo repository.ListingRepository
	photos      PhotoStorage
	db          *sql.DB // For transactions
}

func NewListingService(listingRepo repository.ListingRepository, photos PhotoStorage, db *sql.DB) *ListingService {
	return &ListingService{listingRepo: listingRepo, photos: photos, db: db}
}

type CreateListingRequest struct {
	Title   string `json:"title"`
	Price   int    `json:"price"`
	Details string `json:"details"`
	Address string `json:"address"`
}

type UpdateListingRequest struct {
	Title   *string `json:"title,omitempty"`
	Price   *int    `json:"price,omitempty"`
	Details *string `json:"details,omitempty"`
	Address *string `json:"address,omitempty"`
}

// PhotoUpload is one multipart file destined for object storage.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func validateListingFields(title, details string, price int) error {
	if title == "" || details == "" {
		return common.Errorf("title and details are required: %w", common.ErrBadRequest)
	}
	if len(title) > model.MaxListingTitleLength {
		return common.Errorf("title must be at most %d characters: %w", model.MaxListingTitleLength, common.ErrValidation)
	}
	if len(details) > model.MaxListingDetailsLength {
		return common.Errorf("details must be at most %d characters: %w", model.MaxListingDetailsLength, common.ErrValidation)
	}
	if price < 0 {
		return common.Errorf("price must not be negative: %w", common.ErrValidation)
	}
	return nil
}

func (s *ListingService) CreateListing(ctx context.Context, hostID string, req CreateListingRequest, photos []PhotoUpload) (*model.Listing, error) {
	if req.Address == "" {
		return nil, common.Errorf("address is required: %w", common.ErrBadRequest)
	}
	if err := validateListingFields(req.Title, req.Details, req.Price); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	listing := &model.Listing{
		ID:      id,
		Title:   req.Title,
		Slug:    slug.Make(req.Title) + "-" + id[:8], // Suffix keeps slugs unique across same-title listings
		Price:   req.Price,
		Details: req.Details,
		Address: req.Address,
		HostID:  hostID,
	}

	uploaded, err := s.uploadPhotos(ctx, listing.ID, photos)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.listingRepo.CreateListing(ctx, tx, listing); err != nil {
		return nil, err
	}
	if len(uploaded) > 0 {
		if err := s.listingRepo.AddPhotosToListing(ctx, tx, listing.ID, uploaded); err != nil {
			return nil, common.Errorf("failed to add photos to listing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	listing.Photos = uploaded
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listingRepo.FindListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	photos, err := s.listingRepo.GetPhotosByListingID(ctx, id)
	if err != nil {
		return nil, err
	}
	listing.Photos = photos
	return listing, nil
}

func (s *ListingService) SearchListings(ctx context.Context, page, pageSize int, filter repository.ListingSearchFilter) ([]model.Listing, int, error) {
	offset := (page - 1) * pageSize
	return s.listingRepo.SearchListings(ctx, pageSize, offset, filter)
}

// UpdateListing applies a partial update. Only the host or an admin may edit.
func (s *ListingService) UpdateListing(ctx context.Context, identity model.Identity, id string, req UpdateListingRequest) (*model.Listing, error) {
	listing, err := s.listingRepo.FindListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.HostID != identity.ID && !identity.IsAdmin {
		return nil, common.ErrForbidden
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Price != nil {
		listing.Price = *req.Price
	}
	if req.Details != nil {
		listing.Details = *req.Details
	}
	if req.Address != nil {
		listing.Address = *req.Address
	}
	if err := validateListingFields(listing.Title, listing.Details, listing.Price); err != nil {
		return nil, err
	}
	if listing.Address == "" {
		return nil, common.Errorf("address is required: %w", common.ErrBadRequest)
	}

	if err := s.listingRepo.UpdateListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) DeleteListing(ctx context.Context, identity model.Identity, id string) error {
	listing, err := s.listingRepo.FindListingByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.HostID != identity.ID && !identity.IsAdmin {
		return common.ErrForbidden
	}
	return s.listingRepo.DeleteListing(ctx, id)
}

// AddPhotos uploads photos for an existing listing. Only the host or an admin
// may add photos.
func (s *ListingService) AddPhotos(ctx context.Context, identity model.Identity, listingID string, photos []PhotoUpload) ([]model.ListingPhoto, error) {
	listing, err := s.listingRepo.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.HostID != identity.ID && !identity.IsAdmin {
		return nil, common.ErrForbidden
	}
	if len(photos) == 0 {
		return nil, common.Errorf("no photos provided: %w", common.ErrBadRequest)
	}

	uploaded, err := s.uploadPhotos(ctx, listingID, photos)
	if err != nil {
		return nil, err
	}
	if err := s.listingRepo.AddPhotosToListing(ctx, nil, listingID, uploaded); err != nil {
		return nil, err
	}
	return uploaded, nil
}

// uploadPhotos streams each photo to object storage twice: once full size and
// once under a thumb/ key the frontend uses for grid views.
func (s *ListingService) uploadPhotos(ctx context.Context, listingID string, photos []PhotoUpload) ([]model.ListingPhoto, error) {
	var uploaded []model.ListingPhoto
	for i, p := range photos {
		photoID := uuid.NewString()
		ext := path.Ext(p.Filename)
		key := fmt.Sprintf("listings/%s/%s%s", listingID, photoID, ext)
		thumbKey := fmt.Sprintf("listings/%s/thumb/%s%s", listingID, photoID, ext)

		url, err := s.photos.Upload(ctx, key, p.ContentType, bytes.NewReader(p.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to upload photo %q: %w", p.Filename, err)
		}
		thumbURL, err := s.photos.Upload(ctx, thumbKey, p.ContentType, bytes.NewReader(p.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to upload thumbnail for %q: %w", p.Filename, err)
		}

		uploaded = append(uploaded, model.ListingPhoto{
			ID:           photoID,
			ListingID:    listingID,
			URL:          url,
			ThumbnailURL: thumbURL,
			SortOrder:    i,
		})
	}
	return uploaded, nil
}
