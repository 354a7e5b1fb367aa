package storage

import (
	"errors"
	"testing"
)

func TestUserLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateUser("ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a user id")
	}

	t.Run("duplicate email rejected", func(t *testing.T) {
		if _, err := db.CreateUser("ada@example.com", "other"); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("error = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("authenticate with correct password", func(t *testing.T) {
		got, err := db.Authenticate("ada@example.com", "correct horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got != id {
			t.Errorf("user id = %d, want %d", got, id)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		if _, err := db.Authenticate("ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		if _, err := db.Authenticate("nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestSessions(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateUser("ada@example.com", "pw")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	token, err := db.CreateSession(id)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	got, err := db.UserForToken(token)
	if err != nil {
		t.Fatalf("UserForToken failed: %v", err)
	}
	if got != id {
		t.Errorf("user id = %d, want %d", got, id)
	}

	if err := db.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := db.UserForToken(token); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound after delete", err)
	}
}

func TestLibraryAndHype(t *testing.T) {
	db := openTestDB(t)

	u1, _ := db.CreateUser("u1@example.com", "pw")
	u2, _ := db.CreateUser("u2@example.com", "pw")

	var ids []int64
	for _, aid := range []string{"2001.00001", "2001.00002"} {
		p := testPaper(aid, 1)
		if _, err := db.UpsertPaper(p); err != nil {
			t.Fatalf("UpsertPaper failed: %v", err)
		}
		ids = append(ids, p.ID)
	}

	// Both users save paper 0, only u1 saves paper 1.
	for _, save := range []struct{ user, paper int64 }{
		{u1, ids[0]}, {u2, ids[0]}, {u1, ids[1]},
	} {
		if err := db.AddToLibrary(save.user, save.paper); err != nil {
			t.Fatalf("AddToLibrary failed: %v", err)
		}
	}

	t.Run("double save is idempotent", func(t *testing.T) {
		if err := db.AddToLibrary(u1, ids[0]); err != nil {
			t.Fatalf("AddToLibrary failed: %v", err)
		}
		lib, err := db.LibraryIDs(u1)
		if err != nil {
			t.Fatalf("LibraryIDs failed: %v", err)
		}
		if len(lib) != 2 {
			t.Errorf("library size = %d, want 2", len(lib))
		}
	})

	t.Run("hype orders by save count", func(t *testing.T) {
		entries, err := db.TopSaved(10)
		if err != nil {
			t.Fatalf("TopSaved failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].PaperID != ids[0] || entries[0].Saves != 2 {
			t.Errorf("top entry = %+v, want paper %d with 2 saves", entries[0], ids[0])
		}
	})

	t.Run("remove updates library", func(t *testing.T) {
		if err := db.RemoveFromLibrary(u1, ids[1]); err != nil {
			t.Fatalf("RemoveFromLibrary failed: %v", err)
		}
		lib, err := db.LibraryIDs(u1)
		if err != nil {
			t.Fatalf("LibraryIDs failed: %v", err)
		}
		if len(lib) != 1 || lib[0] != ids[0] {
			t.Errorf("library = %v, want [%d]", lib, ids[0])
		}
	})
}
