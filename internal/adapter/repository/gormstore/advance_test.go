package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/review"
	"rentadvance-backend/internal/domain/uow"
	"rentadvance-backend/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB with the advance and review tables.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection, so every query sees the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&advance.Advance{}, &review.AdminReview{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeAdvance(propertyID string, status advance.Status, groupID *string, token string) *advance.Advance {
	now := time.Now().UTC()
	return &advance.Advance{
		AdvanceID:         id.NewID32(),
		GroupID:           groupID,
		Token:             token,
		PropertyID:        propertyID,
		OwnerID:           "oooooooooooooooooooooooooooooooo",
		PropertyManagerID: "mmmmmmmmmmmmmmmmmmmmmmmmmmmmmmmm",
		Status:            status,
		Amount:            decimal.NewFromInt(10000),
		RequestedAmount:   decimal.NewFromInt(10000),
		TermMonths:        10,
		MonthlyRentAmount: decimal.NewFromInt(1200),
		CommissionRate:    decimal.RequireFromString("0.02"),
		CommissionAmount:  decimal.NewFromInt(200),
		RemainingBalance:  decimal.NewFromInt(10000),
		RequestedAt:       now,
		ExpiresAt:         now.Add(advance.ResponseWindow),
	}
}

func strPtr(s string) *string { return &s }

func createAll(ctx context.Context, repo *AdvanceRepository, rows []*advance.Advance) error {
	for _, a := range rows {
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func TestCreateAndGetByAdvanceID(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	gid := strPtr(id.NewGroupID())
	tok := id.NewToken()
	rows := []*advance.Advance{
		makeAdvance("p1", advance.StatusPending, gid, tok),
		makeAdvance("p2", advance.StatusPending, gid, tok),
	}
	if err := createAll(ctx, repo, rows); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, r := range rows {
		if r.ID == 0 {
			t.Fatalf("Create did not set auto-increment ID")
		}
	}

	got, err := repo.GetByAdvanceID(ctx, rows[1].AdvanceID)
	if err != nil {
		t.Fatalf("GetByAdvanceID: %v", err)
	}
	if got.PropertyID != "p2" || got.GroupKey() != *gid || got.Token != tok {
		t.Errorf("unexpected advance: %+v", got)
	}
	if !got.Amount.Equal(decimal.NewFromInt(10000)) || !got.CommissionRate.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("money round-trip mismatch: amount=%s rate=%s", got.Amount, got.CommissionRate)
	}
}

func TestGetByAdvanceID_NotFound(t *testing.T) {
	repo := NewAdvanceRepository(openTestDB(t))
	_, err := repo.GetByAdvanceID(context.Background(), "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if !errors.Is(err, advance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveUpdatesPointerFields(t *testing.T) {
	repo := NewAdvanceRepository(openTestDB(t))
	ctx := context.Background()

	a := makeAdvance("p1", advance.StatusPending, nil, id.NewToken())
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	counter := decimal.RequireFromString("9000.50")
	term := 8
	resp := advance.ResponseCounter
	a.Status = advance.StatusCountered
	a.CounterAmount = &counter
	a.CounterTermMonths = &term
	a.OwnerResponseType = &resp
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByAdvanceID(ctx, a.AdvanceID)
	if err != nil {
		t.Fatalf("GetByAdvanceID: %v", err)
	}
	if got.Status != advance.StatusCountered || got.CounterAmount == nil || !got.CounterAmount.Equal(counter) {
		t.Fatalf("counter not persisted: %+v", got)
	}
	if got.CounterTermMonths == nil || *got.CounterTermMonths != 8 || got.OwnerResponseType == nil || *got.OwnerResponseType != resp {
		t.Fatalf("counter term/response not persisted: %+v", got)
	}
	if got.GroupID != nil {
		t.Fatalf("group id should stay NULL, got %q", *got.GroupID)
	}
}

func TestListByGroupForUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	gid := strPtr(id.NewGroupID())
	tok := id.NewToken()
	grouped := []*advance.Advance{
		makeAdvance("p1", advance.StatusPending, gid, tok),
		makeAdvance("p2", advance.StatusPending, gid, tok),
		makeAdvance("p3", advance.StatusPending, gid, tok),
	}
	single := makeAdvance("p4", advance.StatusRequested, nil, id.NewToken())
	if err := createAll(ctx, repo, append(grouped, single)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.ListByGroupForUpdate(ctx, *gid)
	if err != nil {
		t.Fatalf("ListByGroupForUpdate: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("group size = %d, want 3", len(got))
	}

	alone, err := repo.ListByGroupForUpdate(ctx, single.AdvanceID)
	if err != nil {
		t.Fatalf("ListByGroupForUpdate(single): %v", err)
	}
	if len(alone) != 1 || alone[0].AdvanceID != single.AdvanceID {
		t.Fatalf("ungrouped lookup = %+v", alone)
	}

	byToken, err := repo.ListByTokenForUpdate(ctx, tok)
	if err != nil || len(byToken) != 3 {
		t.Fatalf("ListByTokenForUpdate = %d rows, err=%v", len(byToken), err)
	}
}

func TestListOverdueTokens(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	overdueTok := id.NewToken()
	gid := strPtr(id.NewGroupID())
	a1 := makeAdvance("p1", advance.StatusPending, gid, overdueTok)
	a2 := makeAdvance("p2", advance.StatusPending, gid, overdueTok)
	a1.ExpiresAt = now.Add(-time.Hour)
	a2.ExpiresAt = now.Add(-time.Hour)

	fresh := makeAdvance("p3", advance.StatusPending, nil, id.NewToken())
	answered := makeAdvance("p4", advance.StatusApproved, nil, id.NewToken())
	answered.ExpiresAt = now.Add(-time.Hour)

	if err := createAll(ctx, repo, []*advance.Advance{a1, a2, fresh, answered}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.ListOverdueTokens(ctx, now)
	if err != nil {
		t.Fatalf("ListOverdueTokens: %v", err)
	}
	if len(got) != 1 || got[0] != overdueTok {
		t.Fatalf("overdue tokens = %v, want [%s]", got, overdueTok)
	}
}

func TestGetActiveByPropertyID(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, makeAdvance("p1", advance.StatusRepaid, nil, id.NewToken())); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, makeAdvance("p1", advance.StatusDenied, nil, id.NewToken())); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetActiveByPropertyID(ctx, "p1"); !errors.Is(err, advance.ErrNotFound) {
		t.Fatalf("terminal advances must not count as active, got %v", err)
	}

	live := makeAdvance("p1", advance.StatusDisbursed, nil, id.NewToken())
	if err := repo.Create(ctx, live); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetActiveByPropertyID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetActiveByPropertyID: %v", err)
	}
	if got.AdvanceID != live.AdvanceID {
		t.Fatalf("active = %s, want %s", got.AdvanceID, live.AdvanceID)
	}
}

func TestListByPropertyManager_IncludeRepaid(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	rows := []*advance.Advance{
		makeAdvance("p1", advance.StatusRepaid, nil, id.NewToken()),
		makeAdvance("p2", advance.StatusDisbursed, nil, id.NewToken()),
		makeAdvance("p3", advance.StatusPending, nil, id.NewToken()),
	}
	if err := createAll(ctx, repo, rows); err != nil {
		t.Fatal(err)
	}
	pm := rows[0].PropertyManagerID

	without, err := repo.ListByPropertyManager(ctx, pm, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(without) != 2 {
		t.Fatalf("without repaid = %d, want 2", len(without))
	}
	with, err := repo.ListByPropertyManager(ctx, pm, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(with) != 3 {
		t.Fatalf("with repaid = %d, want 3", len(with))
	}
}

func TestListByStatuses(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	rows := []*advance.Advance{
		makeAdvance("p1", advance.StatusPending, nil, id.NewToken()),
		makeAdvance("p2", advance.StatusCountered, nil, id.NewToken()),
		makeAdvance("p3", advance.StatusExpired, nil, id.NewToken()),
	}
	if err := createAll(ctx, repo, rows); err != nil {
		t.Fatal(err)
	}
	got, err := repo.ListByStatuses(ctx, []advance.Status{advance.StatusPending, advance.StatusCountered})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
}

func TestActivePropertyClaim_SecondActiveRowConflicts(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	first := makeAdvance("p1", advance.StatusPending, nil, id.NewToken())
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.ActivePropertyID == nil || *first.ActivePropertyID != "p1" {
		t.Fatalf("active row must claim its property, got %v", first.ActivePropertyID)
	}

	err := repo.Create(ctx, makeAdvance("p1", advance.StatusDisbursed, nil, id.NewToken()))
	if !errors.Is(err, advance.ErrConflict) {
		t.Fatalf("second active create err = %v, want ErrConflict", err)
	}

	// terminal rows carry no claim and never collide
	for _, s := range []advance.Status{advance.StatusDenied, advance.StatusRepaid, advance.StatusExpired} {
		if err := repo.Create(ctx, makeAdvance("p1", s, nil, id.NewToken())); err != nil {
			t.Fatalf("terminal %s create: %v", s, err)
		}
	}
	var n int64
	if err := db.Model(&advance.Advance{}).Where("property_id = ?", "p1").Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("rows for p1 = %d, want 4", n)
	}
}

func TestActivePropertyClaim_ReleasedOnTerminalSave(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	first := makeAdvance("p1", advance.StatusPending, nil, id.NewToken())
	if err := repo.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	first.Status = advance.StatusDenied
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save denied: %v", err)
	}
	reloaded, err := repo.GetByAdvanceID(ctx, first.AdvanceID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ActivePropertyID != nil {
		t.Fatalf("denied row still claims %q", *reloaded.ActivePropertyID)
	}

	if err := repo.Create(ctx, makeAdvance("p1", advance.StatusPending, nil, id.NewToken())); err != nil {
		t.Fatalf("create after release: %v", err)
	}
}

func TestActivePropertyClaim_ReopenConflicts(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdvanceRepository(db)
	ctx := context.Background()

	old := makeAdvance("p1", advance.StatusDenied, nil, id.NewToken())
	if err := repo.Create(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, makeAdvance("p1", advance.StatusPending, nil, id.NewToken())); err != nil {
		t.Fatal(err)
	}
	old.Status = advance.StatusPending
	if err := repo.Save(ctx, old); !errors.Is(err, advance.ErrConflict) {
		t.Fatalf("save err = %v, want ErrConflict", err)
	}
}

func TestActivePropertyClaim_ConflictKeepsTxUsable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := makeAdvance("p1", advance.StatusPending, nil, id.NewToken())
	b := makeAdvance("p1", advance.StatusPending, nil, id.NewToken())
	c := makeAdvance("p2", advance.StatusPending, nil, id.NewToken())
	err := NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Advances.Create(ctx, a); err != nil {
			return err
		}
		if err := r.Advances.Create(ctx, b); !errors.Is(err, advance.ErrConflict) {
			t.Errorf("conflicting create err = %v, want ErrConflict", err)
		}
		return r.Advances.Create(ctx, c)
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	repo := NewAdvanceRepository(db)
	for _, want := range []*advance.Advance{a, c} {
		if _, err := repo.GetByAdvanceID(ctx, want.AdvanceID); err != nil {
			t.Fatalf("%s not committed: %v", want.PropertyID, err)
		}
	}
	if _, err := repo.GetByAdvanceID(ctx, b.AdvanceID); !errors.Is(err, advance.ErrNotFound) {
		t.Fatalf("conflicting row must not persist, got %v", err)
	}
}
