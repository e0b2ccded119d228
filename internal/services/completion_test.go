package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
)

type completionFixture struct {
	project  *checklist.Project
	category *checklist.Category
	main     *checklist.RequiredItem
	perHead  *checklist.RequiredItem
	starter  *checklist.RequiredItem
	cond     *checklist.RequiredItem
}

// seedCompletion builds a two-applicant purchase project whose countable items are main,
// perHead and starter. cond stays unmaterialized until a test unlocks it.
func seedCompletion(t *testing.T, e *testEnv) completionFixture {
	t.Helper()
	ctx := context.Background()
	f := completionFixture{
		project:  e.project(t, "purchase", checklist.TwoApplicants),
		category: e.category(t, "income"),
	}
	table := checklist.TableSecondaryIncome
	f.main = e.item(t, &checklist.RequiredItem{CategoryID: f.category.ID, ItemName: "employer", Priority: 1})
	f.perHead = e.item(t, &checklist.RequiredItem{CategoryID: f.category.ID, ItemName: "salary", Scope: checklist.ScopeParticipant, ItemType: checklist.ItemTypeNumber, Priority: 2})
	f.starter = e.item(t, &checklist.RequiredItem{
		CategoryID:            f.category.ID,
		ItemName:              "pay stubs",
		ItemType:              checklist.ItemTypeDocumentUpload,
		Subcategory:           ptr("self_employed"),
		Subcategory1Initiator: true,
		Priority:              3,
	})
	f.cond = e.item(t, &checklist.RequiredItem{
		CategoryID:  f.category.ID,
		ItemName:    "business name",
		Scope:       checklist.ScopeParticipant,
		Subcategory: ptr("self_employed"),
		Priority:    4,
	})
	e.item(t, &checklist.RequiredItem{
		CategoryID:             f.category.ID,
		ItemName:               "current lender",
		ProjectTypesApplicable: datatypes.JSONSlice[string]{"refinance"},
		Priority:               5,
	})
	e.item(t, &checklist.RequiredItem{
		CategoryID:                 f.category.ID,
		ItemName:                   "other income",
		ItemType:                   checklist.ItemTypeRepeatableGroup,
		RepeatableGroupTargetTable: &table,
		Priority:                   6,
	})

	if _, err := e.generator.Generate(ctx, f.project.ID, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return f
}

func TestCompletionFastAndFallbackAgree(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := seedCompletion(t, e)
	projectSvc := NewProjectService(e.db, e.log, e.brokerages, e.projects, e.items, e.docs, nil)

	type want struct{ completed, total, pct int }
	check := func(t *testing.T, stage string, who checklist.Designation, w want) {
		t.Helper()
		ids := []uuid.UUID{f.category.ID}
		fast, err := e.progress.fastPath(ctx, f.project, ids, who)
		if err != nil {
			t.Fatalf("%s: fastPath: %v", stage, err)
		}
		slow, err := e.progress.fallback(ctx, f.project, ids, who)
		if err != nil {
			t.Fatalf("%s: fallback: %v", stage, err)
		}
		if !reflect.DeepEqual(fast[0], slow[0]) {
			t.Fatalf("%s who=%q: fast=%+v fallback=%+v", stage, who, fast[0], slow[0])
		}
		got := fast[0]
		if got.CompletedItems != w.completed || got.TotalItems != w.total || got.CompletionPercentage != w.pct {
			t.Fatalf("%s who=%q: got %+v want %+v", stage, who, got, w)
		}
		if got.IsComplete != (w.pct == 100) {
			t.Fatalf("%s who=%q: IsComplete=%v", stage, who, got.IsComplete)
		}
	}

	check(t, "fresh", checklist.ApplicantOne, want{0, 3, 0})

	if _, err := e.answers.SaveAnswer(ctx, f.project.ID, f.main.ID, checklist.DesignationNone, "Acme"); err != nil {
		t.Fatalf("SaveAnswer main: %v", err)
	}
	if _, err := e.answers.SaveAnswer(ctx, f.project.ID, f.perHead.ID, checklist.ApplicantOne, "85000"); err != nil {
		t.Fatalf("SaveAnswer salary: %v", err)
	}
	check(t, "answered", checklist.ApplicantOne, want{2, 3, 67})
	check(t, "answered", checklist.ApplicantTwo, want{1, 3, 33})
	check(t, "answered", checklist.DesignationNone, want{2, 3, 67})

	if _, err := projectSvc.RegisterDocument(ctx, RegisterDocumentInput{
		ProjectID:        f.project.ID,
		ItemID:           f.starter.ID,
		StorageReference: "s3://docs/stub.pdf",
	}); err != nil {
		t.Fatalf("RegisterDocument: %v", err)
	}
	check(t, "documented", checklist.ApplicantOne, want{3, 3, 100})

	res := e.generator.Materialize(ctx, f.project, []*checklist.RequiredItem{f.cond}, checklist.ApplicantOne)
	if res.ItemsCreated != 1 {
		t.Fatalf("Materialize: %+v", res)
	}
	check(t, "unlocked", checklist.ApplicantOne, want{3, 4, 75})
	check(t, "unlocked", checklist.ApplicantTwo, want{2, 3, 67})
}

func TestCompletionPendingDocumentDoesNotCount(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := seedCompletion(t, e)
	projectSvc := NewProjectService(e.db, e.log, e.brokerages, e.projects, e.items, e.docs, nil)

	if _, err := projectSvc.RegisterDocument(ctx, RegisterDocumentInput{
		ProjectID: f.project.ID,
		ItemID:    f.starter.ID,
		Status:    checklist.StatusPending,
	}); err != nil {
		t.Fatalf("RegisterDocument: %v", err)
	}
	out, err := e.progress.Completion(ctx, f.project.ID, []uuid.UUID{f.category.ID}, checklist.ApplicantOne)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if out[0].CompletedItems != 0 {
		t.Fatalf("pending document counted: %+v", out[0])
	}
}

func TestCompletionVacuousAndOrdering(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := seedCompletion(t, e)
	empty := e.category(t, "empty")

	out, err := e.progress.Completion(ctx, f.project.ID, []uuid.UUID{empty.ID, f.category.ID, empty.ID}, checklist.ApplicantOne)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected duplicates collapsed, got %d entries", len(out))
	}
	if out[0].CategoryID != empty.ID || out[1].CategoryID != f.category.ID {
		t.Fatalf("order not preserved: %+v", out)
	}
	if out[0].TotalItems != 0 || out[0].CompletionPercentage != 100 || !out[0].IsComplete {
		t.Fatalf("empty category should be vacuously complete: %+v", out[0])
	}

	none, err := e.progress.Completion(ctx, f.project.ID, nil, checklist.ApplicantOne)
	if err != nil || len(none) != 0 {
		t.Fatalf("Completion(nil)=%v err=%v", none, err)
	}

	_, err = e.progress.Completion(ctx, uuid.New(), []uuid.UUID{f.category.ID}, checklist.ApplicantOne)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

type failingBatch struct{ calls int }

func (b *failingBatch) BatchItemFlags(dbc dbctx.Context, projectID uuid.UUID, categoryIDs []uuid.UUID, who checklist.Designation) ([]repos.ItemFlags, error) {
	b.calls++
	return nil, errors.New("batch query unavailable")
}

func TestCompletionFallsBackWhenBatchFails(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := seedCompletion(t, e)
	if _, err := e.answers.SaveAnswer(ctx, f.project.ID, f.main.ID, checklist.DesignationNone, "Acme"); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	batch := &failingBatch{}
	agg := NewCompletionAggregator(e.db, e.log, e.projects, e.rows, e.docs, batch, e.catalog, nil, 1)
	out, err := agg.Completion(ctx, f.project.ID, []uuid.UUID{f.category.ID}, checklist.ApplicantOne)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if batch.calls != 1 {
		t.Fatalf("batch calls=%d", batch.calls)
	}
	if out[0].CompletedItems != 1 || out[0].TotalItems != 3 || out[0].CompletionPercentage != 33 {
		t.Fatalf("fallback result %+v", out[0])
	}
}

func TestNewCompletionInfoRounding(t *testing.T) {
	cases := []struct {
		completed, total, pct int
	}{
		{0, 0, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{199, 200, 100},
		{3, 3, 100},
	}
	for _, tc := range cases {
		got := newCompletionInfo(uuid.Nil, tc.completed, tc.total)
		if got.CompletionPercentage != tc.pct {
			t.Fatalf("%d/%d: pct=%d want %d", tc.completed, tc.total, got.CompletionPercentage, tc.pct)
		}
	}
}

// flakyRows fails every ChecklistItem lookup for one item.
type flakyRows struct {
	repos.ChecklistItemRepo
	failItem uuid.UUID
}

func (r *flakyRows) ExistsForScope(dbc dbctx.Context, projectID, itemID uuid.UUID, scope checklist.ItemScope, who checklist.Designation, statuses []checklist.ItemStatus) (bool, error) {
	if itemID == r.failItem {
		return false, errors.New("connection reset")
	}
	return r.ChecklistItemRepo.ExistsForScope(dbc, projectID, itemID, scope, who, statuses)
}

func TestCompletionFallbackKeepsFailedItemsInTotal(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := seedCompletion(t, e)
	if _, err := e.answers.SaveAnswer(ctx, f.project.ID, f.main.ID, checklist.DesignationNone, "Acme"); err != nil {
		t.Fatalf("SaveAnswer main: %v", err)
	}
	if _, err := e.answers.SaveAnswer(ctx, f.project.ID, f.perHead.ID, checklist.ApplicantOne, "85000"); err != nil {
		t.Fatalf("SaveAnswer salary: %v", err)
	}

	healthy := NewCompletionAggregator(e.db, e.log, e.projects, e.rows, e.docs, &failingBatch{}, e.catalog, nil, 2)
	out, err := healthy.Completion(ctx, f.project.ID, []uuid.UUID{f.category.ID}, checklist.ApplicantOne)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if out[0].CompletedItems != 2 || out[0].TotalItems != 3 || len(out[0].Errors) != 0 {
		t.Fatalf("healthy fallback=%+v", out[0])
	}

	rows := &flakyRows{ChecklistItemRepo: e.rows, failItem: f.perHead.ID}
	flaky := NewCompletionAggregator(e.db, e.log, e.projects, rows, e.docs, &failingBatch{}, e.catalog, nil, 2)
	out, err = flaky.Completion(ctx, f.project.ID, []uuid.UUID{f.category.ID}, checklist.ApplicantOne)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	got := out[0]
	if got.TotalItems != 3 || got.CompletedItems != 1 || got.CompletionPercentage != 33 || got.IsComplete {
		t.Fatalf("failed item should stay in the total as unsatisfied: %+v", got)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("expected the failed item to be reported, got %v", got.Errors)
	}
}

func TestCompletionRejectsUnknownCategoryAndDesignation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	f := seedCompletion(t, e)

	cases := []struct {
		name       string
		categories []uuid.UUID
		who        checklist.Designation
		code       domainagg.ErrorCode
	}{
		{"unknown_category", []uuid.UUID{uuid.New()}, checklist.ApplicantOne, domainagg.CodeNotFound},
		{"one_of_many_unknown", []uuid.UUID{f.category.ID, uuid.New()}, checklist.DesignationNone, domainagg.CodeNotFound},
		{"solo_on_two_applicants", []uuid.UUID{f.category.ID}, checklist.SoloApplicant, domainagg.CodeValidation},
		{"unknown_role", []uuid.UUID{f.category.ID}, "nobody", domainagg.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := e.progress.Completion(ctx, f.project.ID, tc.categories, tc.who)
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got out=%+v err=%v", tc.code, out, err)
			}
		})
	}
}
