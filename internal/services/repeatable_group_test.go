package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
)

func seedDebtQuestions(t *testing.T, e *testEnv) (lender, balance *checklist.RequiredItem) {
	t.Helper()
	cat := e.category(t, "debts")
	table := checklist.TableDebt
	e.item(t, &checklist.RequiredItem{
		CategoryID:                 cat.ID,
		ItemName:                   "debts",
		ItemType:                   checklist.ItemTypeRepeatableGroup,
		Subcategory:                ptr("debt"),
		RepeatableGroupTargetTable: &table,
	})
	lender = e.item(t, &checklist.RequiredItem{CategoryID: cat.ID, ItemName: "lender", Subcategory: ptr("debt"), Priority: 1})
	balance = e.item(t, &checklist.RequiredItem{CategoryID: cat.ID, ItemName: "balance", ItemType: checklist.ItemTypeNumber, Subcategory: ptr("debt"), Priority: 2})
	return lender, balance
}

func TestGroupIndexMonotonicity(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.project(t, "purchase", checklist.TwoApplicants)
	seedDebtQuestions(t, e)
	scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: checklist.ApplicantOne}

	if next, err := e.manager.NextGroupIndex(ctx, scope); err != nil || next != 1 {
		t.Fatalf("NextGroupIndex on empty scope=%d err=%v", next, err)
	}
	for want := 1; want <= 3; want++ {
		got, err := e.manager.CreateGroup(ctx, scope, "debt")
		if err != nil {
			t.Fatalf("CreateGroup: %v", err)
		}
		if got != want {
			t.Fatalf("CreateGroup index=%d want %d", got, want)
		}
	}
	if err := e.manager.DeleteGroup(ctx, scope, 2); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	got, err := e.manager.CreateGroup(ctx, scope, "debt")
	if err != nil || got != 4 {
		t.Fatalf("CreateGroup after delete=%d err=%v, want 4", got, err)
	}

	groups, err := e.manager.LoadAllGroups(ctx, scope)
	if err != nil {
		t.Fatalf("LoadAllGroups: %v", err)
	}
	var indices []int
	for _, g := range groups {
		indices = append(indices, g.GroupIndex)
		if g.TotalQuestions != 2 {
			t.Fatalf("group %d has %d questions, want 2 (repeatable item excluded)", g.GroupIndex, g.TotalQuestions)
		}
	}
	if len(indices) != 3 || indices[0] != 1 || indices[1] != 3 || indices[2] != 4 {
		t.Fatalf("indices=%v want [1 3 4]", indices)
	}

	// Another participant starts at 1.
	other := scope
	other.Designation = checklist.ApplicantTwo
	if got, err := e.manager.CreateGroup(ctx, other, "debt"); err != nil || got != 1 {
		t.Fatalf("other scope CreateGroup=%d err=%v", got, err)
	}
}

func TestGroupSaveAnswerAndCleanup(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.project(t, "purchase", checklist.OneApplicant)
	lender, balance := seedDebtQuestions(t, e)
	scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: checklist.SoloApplicant}

	for i := 0; i < 2; i++ {
		if _, err := e.manager.CreateGroup(ctx, scope, "debt"); err != nil {
			t.Fatalf("CreateGroup: %v", err)
		}
	}
	if err := e.manager.SaveAnswer(ctx, scope, balance.ID, 2, "1500", checklist.ItemTypeNumber); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if err := e.manager.SaveAnswer(ctx, scope, lender.ID, 2, "Bank", ""); err != nil {
		t.Fatalf("SaveAnswer with catalog type lookup: %v", err)
	}

	err := e.manager.SaveAnswer(ctx, scope, lender.ID, 7, "Bank", checklist.ItemTypeText)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found for missing slot, got %v", err)
	}

	groups, err := e.manager.LoadAllGroups(ctx, scope)
	if err != nil {
		t.Fatalf("LoadAllGroups: %v", err)
	}
	if len(groups) != 2 || groups[1].CompletedQuestions != 2 || groups[0].CompletedQuestions != 0 {
		t.Fatalf("unexpected summaries: %+v", groups)
	}

	has, err := e.manager.GroupHasAnswers(ctx, scope, 1)
	if err != nil || has {
		t.Fatalf("GroupHasAnswers(1)=%v err=%v", has, err)
	}

	deleted, err := e.manager.CleanupEmptyGroups(ctx, scope)
	if err != nil {
		t.Fatalf("CleanupEmptyGroups: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != 1 {
		t.Fatalf("deleted=%v want [1]", deleted)
	}
	groups, err = e.manager.LoadAllGroups(ctx, scope)
	if err != nil || len(groups) != 1 || groups[0].GroupIndex != 2 {
		t.Fatalf("after cleanup groups=%+v err=%v", groups, err)
	}
}

func TestGroupScopeValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.project(t, "purchase", checklist.OneApplicant)

	_, err := e.manager.CreateGroup(ctx, checklist.GroupScope{ProjectID: p.ID, Table: "pets_item"}, "debt")
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error for unknown table, got %v", err)
	}
	_, err = e.manager.CreateGroup(ctx, checklist.GroupScope{ProjectID: uuid.New(), Table: checklist.TableDebt}, "debt")
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found for unknown project, got %v", err)
	}
	_, err = e.manager.CreateGroup(ctx, checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt}, "nothing-here")
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error for empty subcategory, got %v", err)
	}
	for _, who := range []checklist.Designation{checklist.ApplicantTwo, "nobody"} {
		scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: who}
		if _, err := e.manager.NextGroupIndex(ctx, scope); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("NextGroupIndex as %q: expected validation, got %v", who, err)
		}
	}
}

func TestGroupBlankAnswerIsSubmittedButEmpty(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.project(t, "purchase", checklist.OneApplicant)
	lender, _ := seedDebtQuestions(t, e)
	scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: checklist.SoloApplicant}

	if _, err := e.manager.CreateGroup(ctx, scope, "debt"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := e.manager.SaveAnswer(ctx, scope, lender.ID, 1, "   ", checklist.ItemTypeText); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	groups, err := e.manager.LoadAllGroups(ctx, scope)
	if err != nil || len(groups) != 1 {
		t.Fatalf("LoadAllGroups=%+v err=%v", groups, err)
	}
	for _, row := range groups[0].Items {
		if row.ItemID == lender.ID && row.Status != checklist.StatusSubmitted {
			t.Fatalf("blank answer status=%q want submitted", row.Status)
		}
	}
	if groups[0].CompletedQuestions != 0 {
		t.Fatalf("blank answer counted as completed: %+v", groups[0])
	}
	deleted, err := e.manager.CleanupEmptyGroups(ctx, scope)
	if err != nil || len(deleted) != 1 {
		t.Fatalf("CleanupEmptyGroups=%v err=%v", deleted, err)
	}
}

func TestCleanupOfUntickedCheckboxGroup(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.project(t, "purchase", checklist.OneApplicant)
	cat := e.category(t, "debts")
	table := checklist.TableDebt
	e.item(t, &checklist.RequiredItem{CategoryID: cat.ID, ItemName: "debts", ItemType: checklist.ItemTypeRepeatableGroup, Subcategory: ptr("debt"), RepeatableGroupTargetTable: &table})
	kinds := e.item(t, &checklist.RequiredItem{CategoryID: cat.ID, ItemName: "kinds", ItemType: checklist.ItemTypeMultipleChoiceCheckbox, Subcategory: ptr("debt")})
	scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: checklist.SoloApplicant}

	if _, err := e.manager.CreateGroup(ctx, scope, "debt"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := e.manager.SaveAnswer(ctx, scope, kinds.ID, 1, []any{"card"}, ""); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if err := e.manager.SaveAnswer(ctx, scope, kinds.ID, 1, []any{}, ""); err != nil {
		t.Fatalf("SaveAnswer untick: %v", err)
	}
	if has, err := e.manager.GroupHasAnswers(ctx, scope, 1); err != nil || has {
		t.Fatalf("GroupHasAnswers=%v err=%v", has, err)
	}
	deleted, err := e.manager.CleanupEmptyGroups(ctx, scope)
	if err != nil || len(deleted) != 1 || deleted[0] != 1 {
		t.Fatalf("CleanupEmptyGroups=%v err=%v", deleted, err)
	}
}

// collidingGroups fails the first n batch inserts with a duplicate key, as a concurrent
// creator would.
type collidingGroups struct {
	repos.GroupItemRepo
	remaining int
	calls     int
}

func (c *collidingGroups) CreateBatch(dbc dbctx.Context, scope checklist.GroupScope, rows []*checklist.RepeatableGroupItem) error {
	c.calls++
	if c.remaining > 0 {
		c.remaining--
		return gorm.ErrDuplicatedKey
	}
	return c.GroupItemRepo.CreateBatch(dbc, scope, rows)
}

func TestCreateGroupRetriesOnCollision(t *testing.T) {
	cases := []struct {
		name       string
		collisions int
		wantErr    bool
	}{
		{"recovers", 2, false},
		{"gives_up", 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			ctx := context.Background()
			p := e.project(t, "purchase", checklist.OneApplicant)
			seedDebtQuestions(t, e)

			groups := &collidingGroups{GroupItemRepo: e.groups, remaining: tc.collisions}
			mgr := NewRepeatableGroupManager(e.db, e.log, e.tx, e.projects, e.items, groups, e.catalog, nil, 3)
			scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: checklist.SoloApplicant}

			idx, err := mgr.CreateGroup(ctx, scope, "debt")
			if tc.wantErr {
				if !domainagg.IsCode(err, domainagg.CodeConflict) {
					t.Fatalf("expected conflict, got idx=%d err=%v", idx, err)
				}
				return
			}
			if err != nil || idx != 1 {
				t.Fatalf("CreateGroup=%d err=%v", idx, err)
			}
			if groups.calls != tc.collisions+1 {
				t.Fatalf("calls=%d want %d", groups.calls, tc.collisions+1)
			}
		})
	}
}

var errReplay = errors.New("replay")

// replayTx runs fn once in a transaction that is rolled back, then again for real, the way
// a retrying runner does after a lock timeout.
type replayTx struct {
	aggregates.TxRunner
}

func (r replayTx) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	err := r.TxRunner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		return errReplay
	})
	if err != nil && !errors.Is(err, errReplay) {
		return err
	}
	return r.TxRunner.InTx(ctx, fn)
}

func TestCleanupEmptyGroupsReportsOnceAcrossRetries(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.project(t, "purchase", checklist.OneApplicant)
	seedDebtQuestions(t, e)
	scope := checklist.GroupScope{ProjectID: p.ID, Table: checklist.TableDebt, Designation: checklist.SoloApplicant}

	for i := 0; i < 2; i++ {
		if _, err := e.manager.CreateGroup(ctx, scope, "debt"); err != nil {
			t.Fatalf("CreateGroup: %v", err)
		}
	}
	mgr := NewRepeatableGroupManager(e.db, e.log, replayTx{e.tx}, e.projects, e.items, e.groups, e.catalog, nil, 3)
	deleted, err := mgr.CleanupEmptyGroups(ctx, scope)
	if err != nil {
		t.Fatalf("CleanupEmptyGroups: %v", err)
	}
	if len(deleted) != 2 || deleted[0] != 1 || deleted[1] != 2 {
		t.Fatalf("deleted=%v want [1 2]", deleted)
	}
}
