package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
)

func newSession(owner, id string, created time.Time) *model.Session {
	return &model.Session{
		ID:        id,
		Owner:     owner,
		Title:     "title " + id,
		CreatedAt: created,
		UpdatedAt: created,
		Turns: []model.Turn{
			{Role: model.RoleUser, Text: "hi"},
			{Role: model.RoleAssistant, Text: "hello"},
		},
	}
}

func TestMemoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s := newSession("alice", "s1", time.Now())
	if err := m.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := m.Create(ctx, s); !errors.Is(err, ErrConflict) {
		t.Errorf("second Create() error = %v, want ErrConflict", err)
	}

	got, err := m.Get(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Turns) != 2 {
		t.Errorf("len(Turns) = %d, want 2", len(got.Turns))
	}

	// Mutating the returned copy must not affect the stored session.
	got.Turns[0].Text = "changed"
	again, _ := m.Get(ctx, "alice", "s1")
	if again.Turns[0].Text != "hi" {
		t.Errorf("stored turn was mutated through Get result")
	}
}

func TestMemoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Create(ctx, newSession("alice", "s1", time.Now())); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Get(ctx, "bob", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() by other owner error = %v, want ErrNotFound", err)
	}
	if err := m.Append(ctx, "bob", "s1", model.Turn{Role: model.RoleUser, Text: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Append() by other owner error = %v, want ErrNotFound", err)
	}
	if err := m.Delete(ctx, "bob", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() by other owner error = %v, want ErrNotFound", err)
	}

	list, _ := m.List(ctx, "bob")
	if len(list) != 0 {
		t.Errorf("List(bob) = %d sessions, want 0", len(list))
	}
}

func TestMemoryListOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := m.Create(ctx, newSession("alice", id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	m.now = func() time.Time { return base.Add(time.Hour) }
	if err := m.Append(ctx, "alice", "a", model.Turn{Role: model.RoleUser, Text: "again"}); err != nil {
		t.Fatal(err)
	}

	list, err := m.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "c", "b"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
	if list[0].TurnCount != 3 {
		t.Errorf("TurnCount = %d, want 3", list[0].TurnCount)
	}
}

func TestMemoryConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Create(ctx, newSession("alice", "s1", time.Now())); err != nil {
		t.Fatal(err)
	}

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Append(ctx, "alice", "s1",
				model.Turn{Role: model.RoleUser, Text: fmt.Sprintf("q%d", i)},
				model.Turn{Role: model.RoleAssistant, Text: fmt.Sprintf("a%d", i)},
			)
		}(i)
	}
	wg.Wait()

	s, _ := m.Get(ctx, "alice", "s1")
	if len(s.Turns) != 2+2*writers {
		t.Fatalf("len(Turns) = %d, want %d", len(s.Turns), 2+2*writers)
	}
	// Pairs appended together stay adjacent.
	for i := 2; i < len(s.Turns); i += 2 {
		q, a := s.Turns[i].Text, s.Turns[i+1].Text
		if q[1:] != a[1:] {
			t.Errorf("turns %d/%d interleaved: %q %q", i, i+1, q, a)
		}
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Create(ctx, newSession("alice", "s1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, "alice", "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(ctx, "alice", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryProfileIDForms(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var p model.Profile
	if err := p.ID.UnmarshalJSON([]byte("1700000000000")); err != nil {
		t.Fatal(err)
	}
	p.Owner = "alice"
	p.Name = "Me"
	if err := m.SaveProfile(ctx, &p); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetProfile(ctx, "alice", model.NewProfileID("1700000000000"))
	if err != nil {
		t.Fatalf("GetProfile() with string id error = %v", err)
	}
	if got.Name != "Me" {
		t.Errorf("Name = %q, want Me", got.Name)
	}

	p.Name = "Updated"
	if err := m.SaveProfile(ctx, &p); err != nil {
		t.Fatal(err)
	}
	list, _ := m.ListProfiles(ctx, "alice")
	if len(list) != 1 || list[0].Name != "Updated" {
		t.Errorf("ListProfiles() = %+v, want one updated profile", list)
	}

	if _, err := m.GetProfile(ctx, "bob", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfile() other owner error = %v, want ErrNotFound", err)
	}

	if err := m.DeleteProfile(ctx, "alice", model.NewProfileID("1700000000000")); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	if err := m.DeleteProfile(ctx, "alice", p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteProfile() error = %v, want ErrNotFound", err)
	}
}
