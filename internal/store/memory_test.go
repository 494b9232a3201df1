package store

import (
	"context"
	"testing"
)

func TestSaveUser_InsertsNewUser(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	out, err := m.SaveUser(ctx, Document{"email": "a@b.c", "name": "A"})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if out.Existing != nil {
		t.Fatal("SaveUser returned existing doc for a fresh email")
	}
	if out.Result == nil || out.Result.UpsertedCount != 1 {
		t.Fatalf("SaveUser result = %+v, want upsertedCount 1", out.Result)
	}

	stored, err := m.FindUser(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if stored == nil {
		t.Fatal("user not stored")
	}
	if _, ok := stored[timestampField]; !ok {
		t.Error("stored user has no write timestamp")
	}

	users, err := m.FindAll(ctx, Users)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("stored %d users, want exactly 1", len(users))
	}
}

func TestSaveUser_RequestedTransitionKeepsOtherFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.SaveUser(ctx, Document{"email": "a@b.c", "name": "A", "role": "student"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	before, _ := m.FindUser(ctx, "a@b.c")

	out, err := m.SaveUser(ctx, Document{"email": "a@b.c", "name": "CHANGED", "status": StatusRequested})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if out.Result == nil || out.Result.ModifiedCount != 1 {
		t.Fatalf("SaveUser result = %+v, want modifiedCount 1", out.Result)
	}

	after, _ := m.FindUser(ctx, "a@b.c")
	if after["status"] != StatusRequested {
		t.Errorf("status = %v, want %q", after["status"], StatusRequested)
	}
	if after["name"] != "A" {
		t.Errorf("name = %v, the transition must not touch other fields", after["name"])
	}
	if after["role"] != before["role"] {
		t.Errorf("role changed: %v -> %v", before["role"], after["role"])
	}
}

func TestSaveUser_RepeatSaveIsNoOp(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.SaveUser(ctx, Document{"email": "a@b.c", "name": "A", "role": "teacher"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	before, _ := m.FindUser(ctx, "a@b.c")

	out, err := m.SaveUser(ctx, Document{"email": "a@b.c", "name": "B", "role": "admin"})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if out.Existing == nil {
		t.Fatal("repeat save without requested status must return the stored doc")
	}
	if out.Existing["name"] != "A" {
		t.Errorf("returned doc name = %v, want the stored A", out.Existing["name"])
	}

	after, _ := m.FindUser(ctx, "a@b.c")
	if len(after) != len(before) {
		t.Fatalf("stored doc changed shape: %v -> %v", before, after)
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("field %q changed: %v -> %v", k, v, after[k])
		}
	}
}

func TestInsertMany_StoresAllRecords(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	res, err := m.InsertMany(ctx, Attendances, []Document{
		{"student": "s1", "session": "mon"},
		{"student": "s2", "session": "mon"},
		{"student": "s3", "session": "mon"},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if len(res.InsertedIDs) != 3 {
		t.Errorf("inserted %d ids, want 3", len(res.InsertedIDs))
	}

	all, err := m.FindAll(ctx, Attendances)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("stored %d records, want 3", len(all))
	}
}

func TestInsertMany_RejectsEmptyBatch(t *testing.T) {
	m := NewMemory()
	if _, err := m.InsertMany(context.Background(), Attendances, nil); err == nil {
		t.Error("InsertMany accepted an empty batch")
	}
}

func TestFindAll_EmptyCollectionIsEmptySlice(t *testing.T) {
	m := NewMemory()
	docs, err := m.FindAll(context.Background(), Courses)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if docs == nil {
		t.Fatal("FindAll returned nil, want empty slice")
	}
	if len(docs) != 0 {
		t.Errorf("FindAll returned %d docs from empty collection", len(docs))
	}
}

func TestFindUser_AbsentIsNilNotError(t *testing.T) {
	m := NewMemory()
	doc, err := m.FindUser(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if doc != nil {
		t.Errorf("FindUser = %v, want nil", doc)
	}
}

func TestUpdateUser_MergesAndRestamps(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.SaveUser(ctx, Document{"email": "a@b.c", "role": "student"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	res, err := m.UpdateUser(ctx, "a@b.c", Document{"role": "admin"})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if res.MatchedCount != 1 || res.ModifiedCount != 1 {
		t.Errorf("UpdateUser result = %+v, want matched and modified 1", res)
	}

	doc, _ := m.FindUser(ctx, "a@b.c")
	if doc["role"] != "admin" {
		t.Errorf("role = %v, want admin", doc["role"])
	}
}

func TestUpdateUser_AbsentMatchesNothing(t *testing.T) {
	m := NewMemory()
	res, err := m.UpdateUser(context.Background(), "nobody@example.com", Document{"role": "admin"})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if res.MatchedCount != 0 {
		t.Errorf("matchedCount = %d, want 0", res.MatchedCount)
	}
}

func TestFindAll_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.InsertOne(ctx, Courses, Document{"title": "Algebra"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	docs, _ := m.FindAll(ctx, Courses)
	docs[0]["title"] = "mutated"

	again, _ := m.FindAll(ctx, Courses)
	if again[0]["title"] != "Algebra" {
		t.Error("mutating a returned document leaked into the store")
	}
}
