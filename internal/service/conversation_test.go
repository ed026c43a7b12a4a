package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/store"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
)

func TestConversationListPaging(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	base := time.Now()
	for i := 0; i < 5; i++ {
		s := &model.Session{
			ID:        fmt.Sprintf("s%d", i),
			Owner:     "alice",
			Title:     "t",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := mem.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewConversationService(mem, logger.NewNop())

	resp, err := svc.List(ctx, "alice", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 5 || len(resp.Sessions) != 2 {
		t.Fatalf("got total=%d len=%d, want 5 and 2", resp.Total, len(resp.Sessions))
	}
	if resp.Sessions[0].ID != "s3" || resp.Sessions[1].ID != "s2" {
		t.Errorf("page = %s,%s, want s3,s2", resp.Sessions[0].ID, resp.Sessions[1].ID)
	}

	empty, err := svc.List(ctx, "bob", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Sessions == nil || len(empty.Sessions) != 0 {
		t.Errorf("empty list = %#v, want non-nil empty slice", empty.Sessions)
	}
}

func TestConversationDelete(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_ = mem.Create(ctx, &model.Session{ID: "s1", Owner: "alice"})
	svc := NewConversationService(mem, logger.NewNop())

	if err := svc.Delete(ctx, "bob", "s1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete() by other owner error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "alice", "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, "alice", "s1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
}

func TestProfileServiceDualIDs(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(store.NewMemory())

	var p model.Profile
	if err := p.ID.UnmarshalJSON([]byte("1712345678901")); err != nil {
		t.Fatal(err)
	}
	p.Name = "Everyday"
	p.Owner = "mallory"
	if err := svc.Save(ctx, "alice", &p); err != nil {
		t.Fatal(err)
	}
	if p.Owner != "alice" {
		t.Errorf("Owner = %q, want caller identity", p.Owner)
	}

	got, err := svc.Get(ctx, "alice", "1712345678901")
	if err != nil {
		t.Fatalf("Get() by string id error = %v", err)
	}
	if got.Name != "Everyday" {
		t.Errorf("Name = %q", got.Name)
	}

	if err := svc.Save(ctx, "alice", &model.Profile{Name: "no id"}); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Save() without id error = %v, want ErrInvalidProfile", err)
	}

	list, _ := svc.List(ctx, "alice")
	if len(list.Profiles) != 1 {
		t.Errorf("List() = %d profiles, want 1", len(list.Profiles))
	}
	if err := svc.Delete(ctx, "alice", "1712345678901"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
