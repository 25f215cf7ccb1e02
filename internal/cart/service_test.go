package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/summercamp/internal/model"
)

// --- モック ---

type mockCartRepo struct {
	createFn        func(ctx context.Context, entry *model.CartEntry) error
	findByIDFn      func(ctx context.Context, id string) (*model.CartEntry, error)
	listByStudentFn func(ctx context.Context, email string) ([]*model.CartEntry, error)
	deleteByIDFn    func(ctx context.Context, id string) (int64, error)
}

func (m *mockCartRepo) Create(ctx context.Context, entry *model.CartEntry) error {
	return m.createFn(ctx, entry)
}
func (m *mockCartRepo) FindByID(ctx context.Context, id string) (*model.CartEntry, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockCartRepo) ListByStudent(ctx context.Context, email string) ([]*model.CartEntry, error) {
	return m.listByStudentFn(ctx, email)
}
func (m *mockCartRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	return m.deleteByIDFn(ctx, id)
}

type mockClassFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Class, error)
}

func (m *mockClassFinder) FindByID(ctx context.Context, id string) (*model.Class, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.Class{ID: id, Name: "Watercolor", InstructorEmail: "ian@example.com", Price: 50}, nil
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}

var student = model.Identity{Email: "s@example.com"}

// --- テスト ---

func TestService_Add_FillsFromClass(t *testing.T) {
	var stored *model.CartEntry
	repo := &mockCartRepo{
		createFn: func(ctx context.Context, entry *model.CartEntry) error {
			entry.ID = "k1"
			stored = entry
			return nil
		},
	}

	result, err := NewService(repo, &mockClassFinder{}).Add(context.Background(), student, model.CartEntry{ClassID: "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.InsertedID != "k1" {
		t.Errorf("InsertedID = %q", result.InsertedID)
	}
	if stored.StudentEmail != student.Email {
		t.Errorf("StudentEmail = %q, want caller", stored.StudentEmail)
	}
	if stored.Name != "Watercolor" || stored.Price != 50 {
		t.Errorf("entry not filled from class: %+v", stored)
	}
}

func TestService_Add_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		entry    model.CartEntry
		classes  *mockClassFinder
		wantCode string
	}{
		{"other student", model.CartEntry{StudentEmail: "x@example.com", ClassID: "c1"}, &mockClassFinder{}, model.ErrCodeForbidden},
		{"missing class id", model.CartEntry{}, &mockClassFinder{}, model.ErrCodeInvalidArgument},
		{"negative price", model.CartEntry{ClassID: "c1", Price: -5}, &mockClassFinder{}, model.ErrCodeInvalidArgument},
		{"unknown class", model.CartEntry{ClassID: "c404"}, &mockClassFinder{
			findByIDFn: func(ctx context.Context, id string) (*model.Class, error) { return nil, nil },
		}, model.ErrCodeClassNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCartRepo{
				createFn: func(ctx context.Context, entry *model.CartEntry) error {
					t.Fatal("Create should not be called")
					return nil
				},
			}
			_, err := NewService(repo, tt.classes).Add(context.Background(), student, tt.entry)
			assertAPIErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestService_Remove(t *testing.T) {
	tests := []struct {
		name       string
		entry      *model.CartEntry
		wantCode   string
		wantDelete bool
	}{
		{"own entry", &model.CartEntry{ID: "k1", StudentEmail: student.Email}, "", true},
		{"foreign entry", &model.CartEntry{ID: "k1", StudentEmail: "x@example.com"}, model.ErrCodeForbidden, false},
		{"missing entry", nil, model.ErrCodeCartEntryNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleteCalled := false
			repo := &mockCartRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.CartEntry, error) { return tt.entry, nil },
				deleteByIDFn: func(ctx context.Context, id string) (int64, error) {
					deleteCalled = true
					return 1, nil
				},
			}

			result, err := NewService(repo, &mockClassFinder{}).Remove(context.Background(), student, "k1")
			if deleteCalled != tt.wantDelete {
				t.Errorf("delete called = %v, want %v", deleteCalled, tt.wantDelete)
			}
			if tt.wantCode != "" {
				assertAPIErrorCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.DeletedCount != 1 {
				t.Errorf("DeletedCount = %d, want 1", result.DeletedCount)
			}
		})
	}
}

func TestService_ListByStudent(t *testing.T) {
	repo := &mockCartRepo{
		listByStudentFn: func(ctx context.Context, email string) ([]*model.CartEntry, error) {
			return []*model.CartEntry{{ID: "k1", StudentEmail: email}, {ID: "k2", StudentEmail: email}}, nil
		},
	}
	entries, err := NewService(repo, &mockClassFinder{}).ListByStudent(context.Background(), student.Email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len = %d, want 2", len(entries))
	}
}
