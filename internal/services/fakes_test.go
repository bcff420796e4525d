package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

// memBookings is an in-memory BookingStore
type memBookings struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
	updates  []*patch.Set
}

func newMemBookings() *memBookings {
	return &memBookings{bookings: map[uuid.UUID]*models.Booking{}}
}

func clone(b *models.Booking) *models.Booking {
	raw, _ := json.Marshal(b)
	var out models.Booking
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (m *memBookings) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.New()
	m.bookings[b.ID] = clone(b)
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return clone(b), nil
}

func (m *memBookings) filtered(f models.BookingFilter) []models.Booking {
	var out []models.Booking
	for _, b := range m.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && string(b.Status) != f.Status {
			continue
		}
		out = append(out, *clone(b))
	}
	return out
}

func (m *memBookings) List(_ context.Context, f models.BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filtered(f)
	if f.Offset >= len(all) {
		return nil, nil
	}
	return all[f.Offset:lo.Min([]int{len(all), f.Offset + f.Limit})], nil
}

func (m *memBookings) Count(_ context.Context, f models.BookingFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filtered(f)), nil
}

func (m *memBookings) CountActiveForPackage(_ context.Context, packageID uuid.UUID, statuses []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, b := range m.bookings {
		if !lo.Contains(statuses, string(b.Status)) {
			continue
		}
		if lo.ContainsBy(b.Items, func(i models.BookingItem) bool { return i.PackageID == packageID }) {
			count++
		}
	}
	return count, nil
}

func (m *memBookings) Summary(context.Context, models.BookingSummaryFilter) ([]models.BookingSummaryRow, error) {
	return nil, nil
}

func (m *memBookings) Update(_ context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return 0, nil
	}
	m.updates = append(m.updates, set)
	for _, col := range set.Columns() {
		v, _ := set.Get(col)
		switch col {
		case "user_id":
			b.UserID = v.(uuid.UUID)
		case "status":
			b.Status = models.BookingStatus(v.(string))
		case "currency":
			b.Currency = v.(string)
		case "notes":
			b.Notes = v.(string)
		case "items":
			b.Items = v.(models.BookingItems)
		case "amounts":
			b.Amounts = v.(models.Amounts)
		case "payment":
			b.Payment = v.(models.Payment)
		case "travel_window":
			w := v.(models.TravelWindow)
			b.TravelWindow = &w
		case "travelers":
			b.Travelers = v.(models.Travelers)
		case "updated_at":
			b.UpdatedAt = v.(time.Time)
		}
	}
	return 1, nil
}

func (m *memBookings) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return 0, nil
	}
	delete(m.bookings, id)
	return 1, nil
}

// memPackages is an in-memory PackageLookup
type memPackages map[uuid.UUID]*models.Package

func (m memPackages) GetByID(_ context.Context, id uuid.UUID) (*models.Package, error) {
	p, ok := m[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

// recordingPublisher captures published routing keys
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return r.err
}
