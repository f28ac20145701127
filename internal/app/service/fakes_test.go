package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
	"sharebnb/internal/domain/repository"
	"sharebnb/internal/platform/queue"
)

// fakeUserRepo is an in-memory UserRepository with the same uniqueness
// semantics as the Postgres implementation: usernames unique
// case-insensitively, emails unique exactly.
type fakeUserRepo struct {
	users map[string]*model.User // keyed by lowercase username
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	key := strings.ToLower(user.Username)
	if _, exists := r.users[key]; exists {
		return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
	}
	copied := *user
	r.users[key] = &copied
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	key := strings.ToLower(user.Username)
	if _, exists := r.users[key]; !exists {
		return common.ErrNotFound
	}
	copied := *user
	r.users[key] = &copied
	return nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := r.users[strings.ToLower(username)]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

// fakeListingRepo stores listings and photos in memory.
type fakeListingRepo struct {
	listings map[string]*model.Listing
	photos   map[string][]model.ListingPhoto
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		listings: make(map[string]*model.Listing),
		photos:   make(map[string][]model.ListingPhoto),
	}
}

func (r *fakeListingRepo) CreateListing(ctx context.Context, tx *sql.Tx, l *model.Listing) error {
	copied := *l
	r.listings[l.ID] = &copied
	return nil
}

func (r *fakeListingRepo) UpdateListing(ctx context.Context, l *model.Listing) error {
	if _, ok := r.listings[l.ID]; !ok {
		return common.ErrNotFound
	}
	copied := *l
	r.listings[l.ID] = &copied
	return nil
}

func (r *fakeListingRepo) DeleteListing(ctx context.Context, id string) error {
	if _, ok := r.listings[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *fakeListingRepo) FindListingByID(ctx context.Context, id string) (*model.Listing, error) {
	if l, ok := r.listings[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeListingRepo) SearchListings(ctx context.Context, limit, offset int, filter repository.ListingSearchFilter) ([]model.Listing, int, error) {
	var matched []model.Listing
	for _, l := range r.listings {
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(l.Title), q) &&
				!strings.Contains(strings.ToLower(l.Details), q) &&
				!strings.Contains(strings.ToLower(l.Address), q) {
				continue
			}
		}
		if filter.MaxPrice > 0 && l.Price > filter.MaxPrice {
			continue
		}
		if filter.HostID != "" && l.HostID != filter.HostID {
			continue
		}
		matched = append(matched, *l)
	}
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeListingRepo) AddPhotosToListing(ctx context.Context, tx *sql.Tx, listingID string, photos []model.ListingPhoto) error {
	r.photos[listingID] = append(r.photos[listingID], photos...)
	return nil
}

func (r *fakeListingRepo) GetPhotosByListingID(ctx context.Context, listingID string) ([]model.ListingPhoto, error) {
	return r.photos[listingID], nil
}

// fakePhotoStorage records uploads and returns deterministic URLs.
type fakePhotoStorage struct {
	uploads []string // keys in upload order
	failAll bool
}

func (f *fakePhotoStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if f.failAll {
		return "", fmt.Errorf("storage unavailable")
	}
	f.uploads = append(f.uploads, key)
	return "https://photos.test/" + key, nil
}

// fakeMessageRepo stores messages in memory.
type fakeMessageRepo struct {
	messages map[string]*model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*model.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *model.Message) error {
	copied := *m
	r.messages[m.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if m, ok := r.messages[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeMessageRepo) ListInbox(ctx context.Context, userID string, limit, offset int) ([]model.Message, int, error) {
	return r.list(userID, true)
}

func (r *fakeMessageRepo) ListOutbox(ctx context.Context, userID string, limit, offset int) ([]model.Message, int, error) {
	return r.list(userID, false)
}

func (r *fakeMessageRepo) list(userID string, inbox bool) ([]model.Message, int, error) {
	var out []model.Message
	for _, m := range r.messages {
		if (inbox && m.ToUserID == userID) || (!inbox && m.FromUserID == userID) {
			out = append(out, *m)
		}
	}
	return out, len(out), nil
}

func (r *fakeMessageRepo) MarkInboxRead(ctx context.Context, userID string) error {
	for _, m := range r.messages {
		if m.ToUserID == userID {
			m.Read = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, m := range r.messages {
		if m.ToUserID == userID && !m.Read {
			count++
		}
	}
	return count, nil
}

// fakeNotifier records enqueued events and unread counters.
type fakeNotifier struct {
	events  []queue.MessageEvent
	unread  map[string]int64
	hasKeys bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{unread: make(map[string]int64)}
}

func (n *fakeNotifier) Enqueue(ctx context.Context, event queue.MessageEvent) error {
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) UnreadCount(ctx context.Context, userID string) (int64, bool, error) {
	if !n.hasKeys {
		return 0, false, nil
	}
	return n.unread[userID], true, nil
}

func (n *fakeNotifier) ResetUnread(ctx context.Context, userID string) error {
	n.unread[userID] = 0
	return nil
}
