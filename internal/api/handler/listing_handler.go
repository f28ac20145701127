package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sharebnb/internal/api/middleware"
	"sharebnb/internal/app/service"
	"sharebnb/internal/common"
	"sharebnb/internal/domain/repository"
)

// Photo uploads are capped per request; individual files share the budget.
const maxUploadBytes = 32 << 20 // 32 MiB

type ListingHandler struct {
	listingService *service.ListingService
}

func NewListingHandler(ls *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: ls}
}

func (h *ListingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.searchListings)        // GET /api/v1/listings
	r.Get("/{listingID}", h.getListing) // GET /api/v1/listings/{id}

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/", h.createListing)
		authed.Patch("/{listingID}", h.updateListing)
		authed.Delete("/{listingID}", h.deleteListing)
		authed.Post("/{listingID}/photos", h.addPhotos)
	})
}

func (h *ListingHandler) searchListings(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	maxPrice, _ := strconv.Atoi(r.URL.Query().Get("max_price"))

	filter := repository.ListingSearchFilter{
		Query:    r.URL.Query().Get("q"),
		MaxPrice: maxPrice,
		HostID:   r.URL.Query().Get("host_id"),
	}

	listings, total, err := h.listingService.SearchListings(r.Context(), page, pageSize, filter)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	common.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Items:    listings,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *ListingHandler) getListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listingService.GetListing(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listing)
}

// createListing accepts either a JSON body or a multipart form with a
// "listing" JSON part plus any number of "photos" files.
func (h *ListingHandler) createListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateListingRequest
	var photos []service.PhotoUpload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("listing")), &req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid listing payload: "+err.Error())
			return
		}
		var err error
		photos, err = readPhotoUploads(r)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
			return
		}
	}

	listing, err := h.listingService.CreateListing(r.Context(), identity.ID, req, photos)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, listing)
}

func (h *ListingHandler) updateListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	listing, err := h.listingService.UpdateListing(r.Context(), identity, chi.URLParam(r, "listingID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) deleteListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.listingService.DeleteListing(r.Context(), identity, chi.URLParam(r, "listingID")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) addPhotos(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	photos, err := readPhotoUploads(r)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploaded, err := h.listingService.AddPhotos(r.Context(), identity, chi.URLParam(r, "listingID"), photos)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, uploaded)
}

func readPhotoUploads(r *http.Request) ([]service.PhotoUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var photos []service.PhotoUpload
	for _, header := range r.MultipartForm.File["photos"] {
		file, err := header.Open()
		if err != nil {
			return nil, common.Errorf("failed to open uploaded file %q: %w", header.Filename, common.ErrBadRequest)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, common.Errorf("failed to read uploaded file %q: %w", header.Filename, common.ErrBadRequest)
		}
		photos = append(photos, service.PhotoUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return photos, nil
}
