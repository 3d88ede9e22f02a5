package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/tutor_booking/database"
	"github.com/anjiri1684/tutor_booking/events"
	"github.com/anjiri1684/tutor_booking/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "booking_test.db") + "?_busy_timeout=5000"
	db, err := database.Connect(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedCountry(t *testing.T, db *gorm.DB, currency string, taxExclusive bool, taxRate float64) models.Country {
	t.Helper()
	country := models.Country{
		ID:           uuid.New(),
		Name:         "Country-" + uuid.NewString()[:8],
		CurrencyCode: currency,
		TaxExclusive: taxExclusive,
		TaxRate:      taxRate,
	}
	if err := db.Create(&country).Error; err != nil {
		t.Fatalf("seed country: %v", err)
	}
	return country
}

func seedUser(t *testing.T, db *gorm.DB, countryID uuid.UUID) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.New(),
		FullName:  "Test Student",
		Email:     uuid.NewString() + "@example.com",
		Role:      "student",
		CountryID: &countryID,
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCourse(t *testing.T, db *gorm.DB) models.Course {
	t.Helper()
	course := models.Course{
		ID:       uuid.New(),
		Name:     "Course-" + uuid.NewString()[:8],
		IsActive: true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}

func seedSlot(t *testing.T, db *gorm.DB, capacity int) models.AvailabilitySlot {
	t.Helper()
	slot := models.AvailabilitySlot{
		ID:        uuid.New(),
		TeacherID: uuid.New(),
		StartTime: time.Now().Add(24 * time.Hour),
		EndTime:   time.Now().Add(25 * time.Hour),
		Status:    models.SlotStatusOpen,
		Capacity:  capacity,
	}
	if err := db.Create(&slot).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return slot
}

type pricingParams struct {
	base           float64
	discounted     *float64
	discountActive bool
	currency       string
	from           time.Time
	until          *time.Time
	createdAt      time.Time
}

func seedPricing(t *testing.T, db *gorm.DB, courseID, countryID uuid.UUID, p pricingParams) models.RegionalPricing {
	t.Helper()
	row := models.RegionalPricing{
		ID:              uuid.New(),
		CourseID:        courseID,
		CountryID:       countryID,
		Currency:        p.currency,
		BasePrice:       p.base,
		DiscountedPrice: p.discounted,
		DiscountActive:  p.discountActive,
		EffectiveFrom:   p.from,
		EffectiveUntil:  p.until,
		CreatedAt:       p.createdAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed pricing: %v", err)
	}
	return row
}

func floatPtr(v float64) *float64 { return &v }

// fakeGateway records capture and refund calls in memory.
type fakeGateway struct {
	mu         sync.Mutex
	captures   []string
	refunds    []string
	captureErr error
}

func (g *fakeGateway) Capture(ctx context.Context, amount float64, currency string, metadata map[string]string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return "", g.captureErr
	}
	txn := fmt.Sprintf("txn-%s", uuid.NewString())
	g.captures = append(g.captures, txn)
	return txn, nil
}

func (g *fakeGateway) Refund(ctx context.Context, transactionID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, transactionID)
	return "re-" + transactionID, nil
}

func (g *fakeGateway) Provider() string { return "fake" }

func (g *fakeGateway) refundCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunds)
}

// recordingPublisher captures published booking events.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []events.BookingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == key {
			n++
		}
	}
	return n
}

type engine struct {
	db           *gorm.DB
	gateway      *fakeGateway
	publisher    *recordingPublisher
	currency     *CurrencyService
	pricing      *PricingService
	registry     *SlotRegistry
	ledger       *EnrollmentService
	reservations *ReservationService
	bookings     *BookingService
}

type staticRates map[string]float64

func (r staticRates) Fetch(ctx context.Context) (map[string]float64, error) { return r, nil }

func newEngine(t *testing.T, db *gorm.DB) *engine {
	t.Helper()

	gateway := &fakeGateway{}
	publisher := &recordingPublisher{}
	currency := NewCurrencyService(staticRates{"USD": 1, "KES": 130, "EUR": 0.9}, time.Hour)
	pricing := NewPricingService(db, currency)
	registry := NewSlotRegistry(db, 10*time.Minute)
	ledger := NewEnrollmentService(db)
	reservations := NewReservationService(db, registry, ledger, gateway, publisher)
	bookings := NewBookingService(db, pricing, registry, reservations, gateway)

	return &engine{
		db:           db,
		gateway:      gateway,
		publisher:    publisher,
		currency:     currency,
		pricing:      pricing,
		registry:     registry,
		ledger:       ledger,
		reservations: reservations,
		bookings:     bookings,
	}
}

func (e *engine) reloadSlot(t *testing.T, id uuid.UUID) models.AvailabilitySlot {
	t.Helper()
	var slot models.AvailabilitySlot
	if err := e.db.First(&slot, "id = ?", id).Error; err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	return slot
}

func (e *engine) reloadReservation(t *testing.T, id uuid.UUID) models.Reservation {
	t.Helper()
	var resv models.Reservation
	if err := e.db.First(&resv, "id = ?", id).Error; err != nil {
		t.Fatalf("reload reservation: %v", err)
	}
	return resv
}

func (e *engine) enrollmentCount(t *testing.T, reservationID uuid.UUID) int64 {
	t.Helper()
	count, err := e.ledger.CountForReservation(context.Background(), reservationID)
	if err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	return count
}
