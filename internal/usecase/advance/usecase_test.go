package advance

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentadvance-backend/internal/adapter/repository/gormstore"
	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/notification"
	"rentadvance-backend/internal/domain/review"
	"rentadvance-backend/internal/domain/uow"
	"rentadvance-backend/internal/testutil/advancemock"
	"rentadvance-backend/internal/testutil/reviewmock"
	"rentadvance-backend/internal/testutil/uowmock"
	"rentadvance-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	pmID    = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	ownerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	adminID = "cccccccccccccccccccccccccccccccc"
)

var admin = AdminIdentity{AdminID: adminID, Email: "ops@example.com"}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int { return &n }

type recorder struct {
	events []notification.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, ev notification.Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) last(t *testing.T) notification.Event {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatalf("no notification dispatched")
	}
	return r.events[len(r.events)-1]
}

type fixture struct {
	uc       *Usecase
	db       *gorm.DB
	advances *gormstore.AdvanceRepository
	reviews  *gormstore.ReviewRepository
	notes    *recorder
	now      time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// newFixture wires the usecase to an in-memory sqlite store and a fixed clock.
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.Advance{}, &review.AdminReview{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	if cfg.PortalBaseURL == "" {
		cfg.PortalBaseURL = "https://portal.example.com/"
	}

	f := &fixture{
		db:       db,
		advances: gormstore.NewAdvanceRepository(db),
		reviews:  gormstore.NewReviewRepository(db),
		notes:    &recorder{},
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.uc = NewUsecase(f.advances, gormstore.NewGormUoW(db), f.notes, zerolog.Nop(), cfg).
		WithClock(func() time.Time { return f.now })
	return f
}

func threeProperties() []PropertyRequest {
	return []PropertyRequest{
		{PropertyID: "prop-1", Amount: dec("10000"), TermMonths: 10, MonthlyRent: dec("1111.11")},
		{PropertyID: "prop-2", Amount: dec("8000"), TermMonths: 8, MonthlyRent: dec("1111.11")},
		{PropertyID: "prop-3", Amount: dec("5000.50"), TermMonths: 5, MonthlyRent: dec("1111.22")},
	}
}

func (f *fixture) request(t *testing.T, props ...PropertyRequest) *RequestResult {
	t.Helper()
	res, err := f.uc.CreateAdvanceRequest(context.Background(), CreateRequestInput{
		PropertyManagerID: pmID,
		OwnerID:           ownerID,
		CommissionRate:    dec("0.02"),
		Properties:        props,
	})
	if err != nil {
		t.Fatalf("CreateAdvanceRequest: %v", err)
	}
	return res
}

func (f *fixture) row(propertyID string, status domain.Status, amount string, term int) *domain.Advance {
	return &domain.Advance{
		AdvanceID:         id.NewID32(),
		Token:             id.NewToken(),
		PropertyID:        propertyID,
		OwnerID:           ownerID,
		PropertyManagerID: pmID,
		Status:            status,
		Amount:            dec(amount),
		RequestedAmount:   dec(amount),
		TermMonths:        term,
		MonthlyRentAmount: dec("1000"),
		CommissionRate:    dec("0.02"),
		CommissionAmount:  domain.Commission(dec(amount), dec("0.02")),
		RemainingBalance:  dec(amount),
		RequestedAt:       f.now,
		ExpiresAt:         f.now.Add(domain.ResponseWindow),
	}
}

// seed inserts a row through the repository, bypassing the lifecycle.
func (f *fixture) seed(t *testing.T, propertyID string, status domain.Status, amount string, term int) *domain.Advance {
	t.Helper()
	a := f.row(propertyID, status, amount, term)
	if err := f.advances.Create(context.Background(), a); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return a
}

// seedLegacy inserts a row without an active-property claim, as rows written
// before the claim column existed.
func (f *fixture) seedLegacy(t *testing.T, propertyID string, status domain.Status, amount string, term int) *domain.Advance {
	t.Helper()
	a := f.row(propertyID, status, amount, term)
	if err := f.db.Create(a).Error; err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	return a
}

func (f *fixture) reload(t *testing.T, advanceID string) *domain.Advance {
	t.Helper()
	a, err := f.advances.GetByAdvanceID(context.Background(), advanceID)
	if err != nil {
		t.Fatalf("reload %s: %v", advanceID, err)
	}
	return a
}

func (f *fixture) statuses(t *testing.T, ids []string) []domain.Status {
	t.Helper()
	out := make([]domain.Status, 0, len(ids))
	for _, aid := range ids {
		out = append(out, f.reload(t, aid).Status)
	}
	return out
}

func TestUsecase_NilUoW(t *testing.T) {
	uc := NewUsecase(nil, nil, nil, zerolog.Nop(), Config{})
	ctx := context.Background()

	if _, err := uc.CreateAdvanceRequest(ctx, CreateRequestInput{}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("CreateAdvanceRequest: want ErrInvalidTransition, got %v", err)
	}
	if _, err := uc.RespondToAdvanceRequest(ctx, RespondInput{}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Respond: want ErrInvalidTransition, got %v", err)
	}
	if _, err := uc.AdminApproveAdvance(ctx, admin, "x", ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Approve: want ErrInvalidTransition, got %v", err)
	}
	if _, err := uc.ExpireOverdue(ctx); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ExpireOverdue: want ErrInvalidTransition, got %v", err)
	}
}

func TestUsecase_NotifierFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, Config{})
	f.notes.err = errors.New("broker down")

	res := f.request(t, threeProperties()[0])
	if len(res.AdvanceIDs) != 1 {
		t.Fatalf("request should succeed despite notifier failure, got %+v", res)
	}
	if len(f.notes.events) != 1 {
		t.Fatalf("want one dispatch attempt, got %d", len(f.notes.events))
	}
}

func TestUsecase_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("db down")
	advs := &advancemock.Repo{
		GetActiveByPropertyIDFn: func(context.Context, string) (*domain.Advance, error) { return nil, boom },
	}
	tx := uowmock.Passthrough(uow.Repos{Advances: advs, Reviews: &reviewmock.Repo{}})
	uc := NewUsecase(advs, tx, nil, zerolog.Nop(), Config{DefaultCommissionRate: dec("0.02")})

	_, err := uc.CreateBulkAdvances(context.Background(), BulkInput{
		PropertyManagerID: pmID,
		Advances: []BulkAdvanceInput{
			{PropertyID: "p1", OwnerID: ownerID, Amount: dec("1000"), TermMonths: 3, MonthlyRent: dec("400")},
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("bulk: want store error, got %v", err)
	}

	_, err = uc.CreateAdvanceRequest(context.Background(), CreateRequestInput{
		PropertyManagerID: pmID,
		OwnerID:           ownerID,
		CommissionRate:    dec("0.02"),
		Properties:        threeProperties(),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("request: want store error, got %v", err)
	}
}
