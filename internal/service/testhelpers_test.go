package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/timegrid"
)

// Схема для in-memory sqlite: типы постгреса (uuid, jsonb, tstz) здесь
// не работают, поэтому таблицы создаются вручную.
var testSchema = []string{
	`CREATE TABLE branches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		time_zone TEXT NOT NULL DEFAULT 'UTC',
		platform_fee_pct NUMERIC NOT NULL DEFAULT 10,
		cancel_window_hours INTEGER,
		is_active NUMERIC NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE stylists (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		description TEXT,
		commission_pct NUMERIC NOT NULL DEFAULT 50,
		is_active NUMERIC NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		display_name TEXT,
		contact_phone TEXT,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		duration_min INTEGER NOT NULL,
		addon_min INTEGER NOT NULL DEFAULT 0,
		price NUMERIC NOT NULL,
		requires_confirmation NUMERIC NOT NULL DEFAULT 0,
		is_active NUMERIC NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE stylist_services (
		stylist_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		PRIMARY KEY (stylist_id, service_id)
	)`,
	`CREATE TABLE weekly_schedule_entries (
		id TEXT PRIMARY KEY,
		stylist_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		is_available NUMERIC NOT NULL DEFAULT 1,
		break_start TEXT,
		break_end TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (stylist_id, day_of_week)
	)`,
	`CREATE TABLE time_blocks (
		id TEXT PRIMARY KEY,
		stylist_id TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		reason TEXT NOT NULL DEFAULT 'other',
		is_all_day NUMERIC NOT NULL DEFAULT 0,
		is_recurring NUMERIC NOT NULL DEFAULT 0,
		recurrence TEXT,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE branch_closures (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		is_recurring NUMERIC NOT NULL DEFAULT 0,
		closure_type TEXT NOT NULL DEFAULT 'full_day',
		partial_start TEXT,
		partial_end TEXT,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE reservations (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		stylist_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		service_price NUMERIC NOT NULL,
		discount_amount NUMERIC NOT NULL DEFAULT 0,
		tip NUMERIC NOT NULL DEFAULT 0,
		total_price NUMERIC NOT NULL,
		platform_fee NUMERIC NOT NULL DEFAULT 0,
		branch_amount NUMERIC NOT NULL DEFAULT 0,
		stylist_earnings NUMERIC NOT NULL DEFAULT 0,
		cancellable_until DATETIME NOT NULL,
		requires_confirmation NUMERIC NOT NULL DEFAULT 0,
		cancellation_penalty NUMERIC NOT NULL DEFAULT 0,
		confirmed_at DATETIME,
		confirmed_by TEXT,
		cancelled_at DATETIME,
		cancelled_by TEXT,
		completed_at DATETIME,
		cancel_reason TEXT,
		reminder_24h_sent NUMERIC NOT NULL DEFAULT 0,
		reminder_1h_sent NUMERIC NOT NULL DEFAULT 0,
		parent_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE commission_records (
		id TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL UNIQUE,
		service_amount NUMERIC NOT NULL,
		commission_rate NUMERIC NOT NULL,
		platform_fee NUMERIC NOT NULL,
		branch_amount NUMERIC NOT NULL,
		stylist_amount NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE waiting_list_entries (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		stylist_id TEXT,
		service_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		preferred_date DATETIME NOT NULL,
		preferred_time TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		priority INTEGER NOT NULL DEFAULT 0,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		created_at DATETIME,
		reservation_id TEXT,
		actor_role TEXT,
		details TEXT
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	// Одно соединение, иначе каждый коннект пула получит свою пустую базу.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts.UTC()
}

func strPtr(s string) *string { return &s }

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// testClock — передвигаемые часы для проверки граничных моментов.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

// salonFixture — минимальный филиал: один мастер, один клиент, одна
// услуга (60 минут, 100.00) и рабочий понедельник 09:00–17:00.
type salonFixture struct {
	branch  *model.Branch
	stylist *model.Stylist
	client  *model.Client
	service *model.Service
}

func seedSalon(t *testing.T, db *gorm.DB) *salonFixture {
	t.Helper()

	branch := &model.Branch{
		Name:           "Центральный",
		TimeZone:       "UTC",
		PlatformFeePct: 10,
		IsActive:       true,
	}
	if err := db.Create(branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}

	stylist := &model.Stylist{
		BranchID:      branch.ID,
		DisplayName:   "Анна",
		CommissionPct: 60,
		IsActive:      true,
	}
	if err := db.Create(stylist).Error; err != nil {
		t.Fatalf("seed stylist: %v", err)
	}

	client := &model.Client{DisplayName: "Иван", ContactPhone: "+70000000001"}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}

	svc := &model.Service{
		Name:        "Стрижка",
		DurationMin: 60,
		Price:       decimal.NewFromInt(100),
		IsActive:    true,
	}
	if err := db.Create(svc).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	link := &model.StylistService{StylistID: stylist.ID, ServiceID: svc.ID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("seed stylist_service: %v", err)
	}

	seedScheduleDay(t, db, stylist.ID, 1, "09:00", "17:00")

	return &salonFixture{branch: branch, stylist: stylist, client: client, service: svc}
}

func seedScheduleDay(t *testing.T, db *gorm.DB, stylistID uuid.UUID, weekday int, start, end string) *model.WeeklyScheduleEntry {
	t.Helper()
	entry := &model.WeeklyScheduleEntry{
		StylistID:   stylistID,
		DayOfWeek:   weekday,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed schedule day %d: %v", weekday, err)
	}
	return entry
}

// seedReservation вставляет бронь напрямую, минуя BookingService:
// тестам жизненного цикла нужен произвольный стартовый статус.
func seedReservation(t *testing.T, db *gorm.DB, fx *salonFixture, status model.ReservationStatus, startsAt time.Time) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		ClientID:         fx.client.ID,
		StylistID:        fx.stylist.ID,
		ServiceID:        fx.service.ID,
		BranchID:         fx.branch.ID,
		StartsAt:         startsAt,
		EndsAt:           startsAt.Add(time.Hour),
		Status:           status,
		ServicePrice:     fx.service.Price,
		DiscountAmount:   decimal.Zero,
		Tip:              decimal.Zero,
		TotalPrice:       fx.service.Price,
		CancellableUntil: startsAt.Add(-24 * time.Hour),
		Version:          1,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	return r
}

func reloadReservation(t *testing.T, db *gorm.DB, id uuid.UUID) *model.Reservation {
	t.Helper()
	var r model.Reservation
	if err := db.First(&r, "id = ?", id).Error; err != nil {
		t.Fatalf("reload reservation %s: %v", id, err)
	}
	return &r
}

// recordingNotifier пишет все вызовы в память; доставку листу ожидания
// можно заставить падать первые failWaitlist раз.
type recordingNotifier struct {
	confirmed    []uuid.UUID
	cancelled    []uuid.UUID
	reminders    []reminderCall
	waitlist     []uuid.UUID
	failWaitlist int
}

type reminderCall struct {
	reservationID uuid.UUID
	kind          ReminderKind
}

func (n *recordingNotifier) ReservationConfirmed(_ context.Context, r *model.Reservation) {
	n.confirmed = append(n.confirmed, r.ID)
}

func (n *recordingNotifier) ReservationCancelled(_ context.Context, r *model.Reservation, _ decimal.Decimal) {
	n.cancelled = append(n.cancelled, r.ID)
}

func (n *recordingNotifier) ReservationReminder(_ context.Context, r *model.Reservation, kind ReminderKind) {
	n.reminders = append(n.reminders, reminderCall{reservationID: r.ID, kind: kind})
}

func (n *recordingNotifier) WaitlistSlotAvailable(_ context.Context, entry *model.WaitingListEntry, _ timegrid.TimeRange) error {
	if n.failWaitlist > 0 {
		n.failWaitlist--
		return context.DeadlineExceeded
	}
	n.waitlist = append(n.waitlist, entry.ID)
	return nil
}

type paymentStub struct {
	captured bool
}

func (p paymentStub) Captured(context.Context, string) (bool, error) {
	return p.captured, nil
}

func newLifecycleService(db *gorm.DB, clk *testClock, n Notifier, p PaymentVerifier) *ReservationService {
	return NewReservationService(
		db,
		repository.NewGormReservationRepository(db),
		repository.NewGormCommissionRepository(db),
		repository.NewGormWaitingListRepository(db),
		repository.NewGormEventRepository(db),
		repository.NewGormStylistRepository(db),
		repository.NewGormBranchRepository(db),
		n, p, clk, DefaultPolicy(),
	)
}

func newAvailability(db *gorm.DB) *AvailabilityService {
	return NewAvailabilityService(
		repository.NewGormStylistRepository(db),
		repository.NewGormServiceRepository(db),
		repository.NewGormScheduleRepository(db),
		repository.NewGormTimeBlockRepository(db),
		repository.NewGormClosureRepository(db),
		repository.NewGormReservationRepository(db),
		DefaultPolicy(),
	)
}
