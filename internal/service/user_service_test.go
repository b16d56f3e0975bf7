package service

import (
	"context"
	"testing"

	"collab-notes-server/internal/domain"
)

func TestUserService_LoginOrCreate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()

	first, err := svc.LoginOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if first.ID == "" {
		t.Error("expected generated user id")
	}
	if first.Username != "alice" {
		t.Errorf("expected username alice, got %s", first.Username)
	}

	second, err := svc.LoginOrCreate(ctx, "alice")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same user on repeat login, got %s and %s", first.ID, second.ID)
	}

	if len(repo.users) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(repo.users))
	}
}

func TestUserService_LoginOrCreate_EmptyUsername(t *testing.T) {
	svc := NewUserService(newMockUserRepo())

	if _, err := svc.LoginOrCreate(context.Background(), ""); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUserService_List(t *testing.T) {
	repo := newMockUserRepo(
		&domain.User{ID: "u1", Type: domain.DocTypeUser, Username: "alice"},
		&domain.User{ID: "u2", Type: domain.DocTypeUser, Username: "bob"},
	)
	svc := NewUserService(repo)

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}
