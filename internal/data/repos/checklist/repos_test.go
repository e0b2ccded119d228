package checklist

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
)

func TestRequiredItemRepoOrderingAndFilters(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRequiredItemRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	cat := testutil.SeedCategory(t, db, "income")
	other := testutil.SeedCategory(t, db, "assets")

	late := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, ItemName: "late", Priority: 5})
	early := testutil.SeedItem(t, db, &domain.RequiredItem{
		CategoryID:      cat.ID,
		ItemName:        "early",
		Priority:        1,
		ValidationRules: datatypes.JSON(`{"pets":[{"type":"equals","value":"yes"}]}`),
	})
	pet := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: other.ID, ItemName: "pet", Subcategory: testutil.Ptr("pets")})

	all, err := repo.ListAll(dbc)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 || all[0].ID != early.ID {
		t.Fatalf("expected priority ordering, got %+v", all)
	}

	byCat, err := repo.GetByCategoryIDs(dbc, []uuid.UUID{cat.ID})
	if err != nil {
		t.Fatalf("GetByCategoryIDs: %v", err)
	}
	if len(byCat) != 2 || byCat[0].ID != early.ID || byCat[1].ID != late.ID {
		t.Fatalf("unexpected category items: %+v", byCat)
	}

	withRules, err := repo.GetWithRulesByCategory(dbc, cat.ID)
	if err != nil {
		t.Fatalf("GetWithRulesByCategory: %v", err)
	}
	if len(withRules) != 1 || withRules[0].ID != early.ID {
		t.Fatalf("expected only the ruled item, got %+v", withRules)
	}

	bySub, err := repo.GetBySubcategory(dbc, "pets")
	if err != nil {
		t.Fatalf("GetBySubcategory: %v", err)
	}
	if len(bySub) != 1 || bySub[0].ID != pet.ID {
		t.Fatalf("unexpected subcategory items: %+v", bySub)
	}

	found, err := repo.GetByCategoryAndName(dbc, cat.ID, "late")
	if err != nil || found == nil || found.ID != late.ID {
		t.Fatalf("GetByCategoryAndName: %v %+v", err, found)
	}
	missing, err := repo.GetByCategoryAndName(dbc, cat.ID, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing item, got %v %+v", err, missing)
	}
}

func TestChecklistItemRepoUniqueScope(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChecklistItemRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	p := testutil.SeedProject(t, db, "purchase", domain.OneApplicant)
	cat := testutil.SeedCategory(t, db, "general")
	item := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID})

	if _, err := repo.Create(dbc, &domain.ChecklistItem{ProjectID: p.ID, ItemID: item.ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(dbc, &domain.ChecklistItem{ProjectID: p.ID, ItemID: item.ID})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
	if _, err := repo.Create(dbc, &domain.ChecklistItem{ProjectID: p.ID, ItemID: item.ID, ParticipantDesignation: domain.SoloApplicant}); err != nil {
		t.Fatalf("participant row should not collide with project row: %v", err)
	}

	rows, err := repo.ListByProject(dbc, p.ID, domain.DesignationNone)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	n, err := repo.DeleteByProject(dbc, p.ID)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByProject: n=%d err=%v", n, err)
	}
}

func TestChecklistItemRepoUpsertAnswer(t *testing.T) {
	db := testutil.DB(t)
	repo := NewChecklistItemRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	p := testutil.SeedProject(t, db, "purchase", domain.TwoApplicants)
	cat := testutil.SeedCategory(t, db, "general")
	item := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, Scope: domain.ScopeParticipant})

	if _, err := repo.Create(dbc, &domain.ChecklistItem{ProjectID: p.ID, ItemID: item.ID, ParticipantDesignation: domain.ApplicantOne}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := repo.UpsertAnswer(dbc, &domain.ChecklistItem{
		ProjectID:              p.ID,
		ItemID:                 item.ID,
		ParticipantDesignation: domain.ApplicantOne,
		TypedValue:             domain.TypedValue{TextValue: testutil.Ptr("hello")},
	})
	if err != nil {
		t.Fatalf("UpsertAnswer: %v", err)
	}
	// A second upsert switches slots and must clear the text.
	err = repo.UpsertAnswer(dbc, &domain.ChecklistItem{
		ProjectID:              p.ID,
		ItemID:                 item.ID,
		ParticipantDesignation: domain.ApplicantOne,
		TypedValue:             domain.TypedValue{NumericValue: testutil.Ptr(4.5)},
	})
	if err != nil {
		t.Fatalf("UpsertAnswer: %v", err)
	}

	row, err := repo.Get(dbc, p.ID, item.ID, domain.ApplicantOne)
	if err != nil || row == nil {
		t.Fatalf("Get: %v %+v", err, row)
	}
	if row.TextValue != nil || row.NumericValue == nil || *row.NumericValue != 4.5 {
		t.Fatalf("unexpected typed value: %+v", row.TypedValue)
	}
	if row.Status != domain.StatusSubmitted {
		t.Fatalf("status=%q want submitted", row.Status)
	}

	ok, err := repo.ExistsForScope(dbc, p.ID, item.ID, domain.ScopeParticipant, domain.ApplicantOne, domain.SatisfiedStatuses)
	if err != nil || !ok {
		t.Fatalf("ExistsForScope applicant_one: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ExistsForScope(dbc, p.ID, item.ID, domain.ScopeParticipant, domain.ApplicantTwo, domain.SatisfiedStatuses)
	if err != nil || ok {
		t.Fatalf("ExistsForScope applicant_two: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ExistsForScope(dbc, p.ID, item.ID, domain.ScopeParticipant, domain.DesignationNone, domain.SatisfiedStatuses)
	if err != nil || !ok {
		t.Fatalf("ExistsForScope any participant: ok=%v err=%v", ok, err)
	}
}

func TestGroupItemRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	repo := NewGroupItemRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())

	p := testutil.SeedProject(t, db, "purchase", domain.OneApplicant)
	cat := testutil.SeedCategory(t, db, "debts")
	a := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, ItemName: "lender", Subcategory: testutil.Ptr("debt")})
	b := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, ItemName: "balance", Subcategory: testutil.Ptr("debt")})

	scope := domain.GroupScope{ProjectID: p.ID, Table: domain.TableDebt, Designation: domain.SoloApplicant}
	for idx := 1; idx <= 2; idx++ {
		rows := []*domain.RepeatableGroupItem{
			{ItemID: a.ID, GroupIndex: idx},
			{ItemID: b.ID, GroupIndex: idx},
		}
		if err := repo.CreateBatch(dbc, scope, rows); err != nil {
			t.Fatalf("CreateBatch %d: %v", idx, err)
		}
	}
	err := repo.CreateBatch(dbc, scope, []*domain.RepeatableGroupItem{{ItemID: a.ID, GroupIndex: 1}})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate slot, got %v", err)
	}

	idx, err := repo.ListIndices(dbc, scope)
	if err != nil || len(idx) != 2 || idx[0] != 1 || idx[1] != 2 {
		t.Fatalf("ListIndices: %v %v", idx, err)
	}

	// Other tables and participants are isolated.
	otherTable := scope
	otherTable.Table = domain.TableDependent
	if rows, err := repo.ListByScope(dbc, otherTable); err != nil || len(rows) != 0 {
		t.Fatalf("expected empty dependent table, got %d %v", len(rows), err)
	}

	n, err := repo.UpdateAnswer(dbc, scope, b.ID, 2, domain.TypedValue{NumericValue: testutil.Ptr(1200.0)}, domain.StatusSubmitted)
	if err != nil || n != 1 {
		t.Fatalf("UpdateAnswer: n=%d err=%v", n, err)
	}
	n, err = repo.UpdateAnswer(dbc, scope, b.ID, 9, domain.TypedValue{NumericValue: testutil.Ptr(1.0)}, domain.StatusSubmitted)
	if err != nil || n != 0 {
		t.Fatalf("UpdateAnswer on missing slot: n=%d err=%v", n, err)
	}

	has, err := repo.HasValue(dbc, scope, 2)
	if err != nil || !has {
		t.Fatalf("HasValue(2): %v %v", has, err)
	}
	has, err = repo.HasValue(dbc, scope, 1)
	if err != nil || has {
		t.Fatalf("HasValue(1): %v %v", has, err)
	}

	n, err = repo.DeleteGroup(dbc, scope, 1)
	if err != nil || n != 2 {
		t.Fatalf("DeleteGroup: n=%d err=%v", n, err)
	}
	rows, err := repo.ListByScope(dbc, scope)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByScope after delete: %d %v", len(rows), err)
	}

	if _, err := repo.ListByScope(dbc, domain.GroupScope{ProjectID: p.ID, Table: "nope"}); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}

func TestCompletionRepoBatchItemFlags(t *testing.T) {
	db := testutil.DB(t)
	logg := testutil.Logger(t)
	repo := NewCompletionRepo(db, logg)
	items := NewChecklistItemRepo(db, logg)
	docs := NewProjectDocumentRepo(db, logg)
	dbc := dbctx.Of(context.Background())

	p := testutil.SeedProject(t, db, "purchase", domain.TwoApplicants)
	cat := testutil.SeedCategory(t, db, "identity")
	projItem := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, ItemName: "address", Priority: 1})
	partItem := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, ItemName: "id", Scope: domain.ScopeParticipant, Priority: 2})
	docItem := testutil.SeedItem(t, db, &domain.RequiredItem{CategoryID: cat.ID, ItemName: "passport", ItemType: domain.ItemTypeDocumentUpload, Scope: domain.ScopeParticipant, Priority: 3})

	if _, err := items.Create(dbc, &domain.ChecklistItem{ProjectID: p.ID, ItemID: projItem.ID, Status: domain.StatusApproved}); err != nil {
		t.Fatalf("seed project row: %v", err)
	}
	if _, err := items.Create(dbc, &domain.ChecklistItem{ProjectID: p.ID, ItemID: partItem.ID, ParticipantDesignation: domain.ApplicantOne}); err != nil {
		t.Fatalf("seed participant row: %v", err)
	}
	if _, err := docs.Create(dbc, &domain.ProjectDocument{ProjectID: p.ID, ItemID: docItem.ID, ParticipantDesignation: domain.ApplicantTwo}); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	flags, err := repo.BatchItemFlags(dbc, p.ID, []uuid.UUID{cat.ID}, domain.ApplicantOne)
	if err != nil {
		t.Fatalf("BatchItemFlags: %v", err)
	}
	if len(flags) != 3 {
		t.Fatalf("expected 3 flag rows, got %d", len(flags))
	}
	want := map[uuid.UUID]ItemFlags{
		projItem.ID: {Materialized: true, Answered: true},
		partItem.ID: {Materialized: true},
		docItem.ID:  {},
	}
	for _, f := range flags {
		w := want[f.ItemID]
		if f.Materialized != w.Materialized || f.Answered != w.Answered || f.Documented != w.Documented {
			t.Fatalf("item %s flags=%+v want %+v", f.ItemID, f, w)
		}
		if f.CategoryID != cat.ID {
			t.Fatalf("unexpected category %s", f.CategoryID)
		}
	}

	flags, err = repo.BatchItemFlags(dbc, p.ID, []uuid.UUID{cat.ID}, domain.DesignationNone)
	if err != nil {
		t.Fatalf("BatchItemFlags any: %v", err)
	}
	for _, f := range flags {
		if f.ItemID == docItem.ID && !f.Documented {
			t.Fatalf("expected document to count for any participant")
		}
	}
}
