package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sharebnb/internal/app/service"
	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
	"sharebnb/internal/domain/repository"
)

func newListingFixture() (*service.ListingService, *fakeListingRepo, *fakePhotoStorage) {
	repo := newFakeListingRepo()
	photos := &fakePhotoStorage{}
	// db is only touched by CreateListing's transaction; tests below stay on
	// the repo paths.
	return service.NewListingService(repo, photos, nil), repo, photos
}

func seedListing(repo *fakeListingRepo, id, hostID string, price int) *model.Listing {
	l := &model.Listing{
		ID:      id,
		Title:   "Treehouse",
		Slug:    "treehouse-" + id,
		Price:   price,
		Details: "A treehouse in the backyard",
		Address: "123 Maple St",
		HostID:  hostID,
	}
	repo.listings[id] = l
	return l
}

func TestCreateListingValidation(t *testing.T) {
	svc, _, _ := newListingFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		req  service.CreateListingRequest
		want error
	}{
		{
			name: "missing title",
			req:  service.CreateListingRequest{Details: "details", Address: "addr"},
			want: common.ErrBadRequest,
		},
		{
			name: "missing address",
			req:  service.CreateListingRequest{Title: "Cabin", Details: "details"},
			want: common.ErrBadRequest,
		},
		{
			name: "title too long",
			req: service.CreateListingRequest{
				Title:   strings.Repeat("x", model.MaxListingTitleLength+1),
				Details: "details",
				Address: "addr",
			},
			want: common.ErrValidation,
		},
		{
			name: "details too long",
			req: service.CreateListingRequest{
				Title:   "Cabin",
				Details: strings.Repeat("x", model.MaxListingDetailsLength+1),
				Address: "addr",
			},
			want: common.ErrValidation,
		},
		{
			name: "negative price",
			req:  service.CreateListingRequest{Title: "Cabin", Details: "details", Address: "addr", Price: -5},
			want: common.ErrValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateListing(ctx, "host-1", tc.req, nil)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateListingAuthorization(t *testing.T) {
	svc, repo, _ := newListingFixture()
	seedListing(repo, "l1", "host-1", 100)
	newTitle := "Bigger treehouse"

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := svc.UpdateListing(context.Background(), model.Identity{ID: "stranger"}, "l1",
			service.UpdateListingRequest{Title: &newTitle})
		require.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("host may update", func(t *testing.T) {
		updated, err := svc.UpdateListing(context.Background(), model.Identity{ID: "host-1"}, "l1",
			service.UpdateListingRequest{Title: &newTitle})
		require.NoError(t, err)
		require.Equal(t, newTitle, updated.Title)
	})

	t.Run("admin may update", func(t *testing.T) {
		price := 150
		updated, err := svc.UpdateListing(context.Background(), model.Identity{ID: "admin", IsAdmin: true}, "l1",
			service.UpdateListingRequest{Price: &price})
		require.NoError(t, err)
		require.Equal(t, 150, updated.Price)
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := svc.UpdateListing(context.Background(), model.Identity{ID: "host-1"}, "missing",
			service.UpdateListingRequest{Title: &newTitle})
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestDeleteListingAuthorization(t *testing.T) {
	svc, repo, _ := newListingFixture()
	seedListing(repo, "l1", "host-1", 100)

	require.ErrorIs(t,
		svc.DeleteListing(context.Background(), model.Identity{ID: "stranger"}, "l1"),
		common.ErrForbidden)

	require.NoError(t, svc.DeleteListing(context.Background(), model.Identity{ID: "host-1"}, "l1"))
	_, ok := repo.listings["l1"]
	require.False(t, ok)
}

func TestSearchListings(t *testing.T) {
	svc, repo, _ := newListingFixture()
	seedListing(repo, "l1", "host-1", 100)
	cheap := seedListing(repo, "l2", "host-2", 40)
	cheap.Title = "Cheap boat"
	cheap.Details = "A boat that floats, mostly"

	t.Run("substring match", func(t *testing.T) {
		results, total, err := svc.SearchListings(context.Background(), 1, 20,
			repository.ListingSearchFilter{Query: "boat"})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "l2", results[0].ID)
	})

	t.Run("max price", func(t *testing.T) {
		_, total, err := svc.SearchListings(context.Background(), 1, 20,
			repository.ListingSearchFilter{MaxPrice: 50})
		require.NoError(t, err)
		require.Equal(t, 1, total)
	})

	t.Run("no filter returns all", func(t *testing.T) {
		_, total, err := svc.SearchListings(context.Background(), 1, 20, repository.ListingSearchFilter{})
		require.NoError(t, err)
		require.Equal(t, 2, total)
	})
}

func TestAddPhotos(t *testing.T) {
	svc, repo, photos := newListingFixture()
	seedListing(repo, "l1", "host-1", 100)

	upload := []service.PhotoUpload{{
		Filename:    "cabin.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("fake-jpeg-bytes"),
	}}

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := svc.AddPhotos(context.Background(), model.Identity{ID: "stranger"}, "l1", upload)
		require.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("empty upload is rejected", func(t *testing.T) {
		_, err := svc.AddPhotos(context.Background(), model.Identity{ID: "host-1"}, "l1", nil)
		require.ErrorIs(t, err, common.ErrBadRequest)
	})

	t.Run("host uploads full size and thumbnail", func(t *testing.T) {
		uploaded, err := svc.AddPhotos(context.Background(), model.Identity{ID: "host-1"}, "l1", upload)
		require.NoError(t, err)
		require.Len(t, uploaded, 1)
		require.Contains(t, uploaded[0].URL, "listings/l1/")
		require.Contains(t, uploaded[0].ThumbnailURL, "listings/l1/thumb/")

		// One full-size object and one thumbnail per photo.
		require.Len(t, photos.uploads, 2)
		require.Len(t, repo.photos["l1"], 1)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		photos.failAll = true
		_, err := svc.AddPhotos(context.Background(), model.Identity{ID: "host-1"}, "l1", upload)
		require.Error(t, err)
	})
}
