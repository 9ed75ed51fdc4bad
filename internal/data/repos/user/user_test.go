package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/newsboy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/newsboy-backend/internal/domain"
	"github.com/yungbote/newsboy-backend/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{
			Username: "userrepo",
			Email:    "userrepo@example.com",
			Password: "pw",
			IsActive: true,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: expected 1 user with an id, got %+v", created)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByNames, err := repo.GetByUsernames(dbc, []string{"userrepo"})
	if err != nil {
		t.Fatalf("GetByUsernames: %v", err)
	}
	if len(gotByNames) != 1 || gotByNames[0].Email != created[0].Email {
		t.Fatalf("GetByUsernames: unexpected result: %+v", gotByNames)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{created[0].Email})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(gotByEmails) != 1 || gotByEmails[0].Username != "userrepo" {
		t.Fatalf("GetByEmails: unexpected result: %+v", gotByEmails)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: want=true got=%v err=%v", exists, err)
	}
	exists, err = repo.UsernameExists(dbc, "nobody")
	if err != nil || exists {
		t.Fatalf("UsernameExists (missing): want=false got=%v err=%v", exists, err)
	}

	if err := repo.SetActive(dbc, created[0].ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	gotByIDs, err = repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(gotByIDs) != 1 || gotByIDs[0].IsActive {
		t.Fatalf("SetActive: want inactive user, got %+v err=%v", gotByIDs, err)
	}
}
