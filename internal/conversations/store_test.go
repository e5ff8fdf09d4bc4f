package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStore_CreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(sqlmock.AnyArg(), "user-1", "Budget question").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	conv, err := store.Create(context.Background(), "user-1", "Budget question")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if conv.ID == "" || conv.Title != "Budget question" {
		t.Errorf("unexpected conversation: %+v", conv)
	}

	mock.ExpectQuery("SELECT id, owner_id, title, created_at, updated_at").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "created_at", "updated_at"}).
			AddRow(conv.ID, "user-1", "Budget question", now, now))

	convs, err := store.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != conv.ID {
		t.Errorf("unexpected list: %+v", convs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT id, owner_id, title").
		WithArgs("missing", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "created_at", "updated_at"}))

	if _, err := store.Get(context.Background(), "missing", "user-1"); err != ErrConversationNotFound {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestStore_AppendMessageBumpsConversation(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(sqlmock.AnyArg(), "conv-1", "user", "Show me my pipeline").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("UPDATE conversations SET updated_at").
		WithArgs(sqlmock.AnyArg(), "conv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg, err := store.AppendMessage(context.Background(), "conv-1", "user", "Show me my pipeline")
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if msg.Role != "user" || msg.ConversationID != "conv-1" {
		t.Errorf("unexpected message: %+v", msg)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_DeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("DELETE FROM conversations").
		WithArgs("gone", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Delete(context.Background(), "gone", "user-1"); err != ErrConversationNotFound {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestTitleFromMessage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"short message kept whole", "Show my pipeline", "Show my pipeline"},
		{"empty falls back", "   ", "New conversation"},
		{
			"long message cut on word boundary",
			"Please update the lead from Acme Corporation with the new proposal value",
			"Please update the lead from Acme Corporation with...",
		},
		{"whitespace collapsed", "hello\n\nworld", "hello world"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TitleFromMessage(tc.in); got != tc.want {
				t.Errorf("TitleFromMessage(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStore_Rename(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)
	now := time.Now()

	mock.ExpectExec("UPDATE conversations").
		WithArgs("Quarterly pipeline", sqlmock.AnyArg(), "conv-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, owner_id, title").
		WithArgs("conv-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "created_at", "updated_at"}).
			AddRow("conv-1", "user-1", "Quarterly pipeline", now, now))

	conv, err := store.Rename(context.Background(), "conv-1", "user-1", "Quarterly pipeline")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if conv.Title != "Quarterly pipeline" {
		t.Errorf("unexpected title: %q", conv.Title)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_RenameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("UPDATE conversations").
		WithArgs("anything", sqlmock.AnyArg(), "missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := store.Rename(context.Background(), "missing", "user-1", "anything"); err != ErrConversationNotFound {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}
