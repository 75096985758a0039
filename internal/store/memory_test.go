package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestUser(t *testing.T, m *Memory, email string) *User {
	t.Helper()
	u := &User{Email: email, PasswordHash: "hash"}
	if err := m.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestCreateUserEmailTaken(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	newTestUser(t, m, "a@x.com")

	err := m.CreateUser(ctx, &User{Email: "A@X.COM", PasswordHash: "other"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("CreateUser() error = %v, want ErrEmailTaken", err)
	}
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := newTestUser(t, m, "Mixed@Case.com")

	got, err := m.GetUserByEmail(ctx, "mixed@case.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("GetUserByEmail() ID = %q, want %q", got.ID, u.ID)
	}
}

func TestSessionLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := newTestUser(t, m, "a@x.com")

	sess := &Session{
		UserID:           u.ID,
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		AccessExpiresAt:  time.Now().Add(time.Hour),
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}
	if err := m.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := m.GetSessionByAccessToken(ctx, "access-1")
	if err != nil {
		t.Fatalf("GetSessionByAccessToken() error = %v", err)
	}
	if got.UserID != u.ID {
		t.Fatalf("session UserID = %q, want %q", got.UserID, u.ID)
	}

	got.AccessToken = "access-2"
	if err := m.UpdateSession(ctx, got); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}
	if _, err := m.GetSessionByAccessToken(ctx, "access-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old access token still resolves, error = %v", err)
	}
	if _, err := m.GetSessionByAccessToken(ctx, "access-2"); err != nil {
		t.Fatalf("new access token lookup error = %v", err)
	}
	if _, err := m.GetSessionByRefreshToken(ctx, "refresh-1"); err != nil {
		t.Fatalf("refresh token lookup error = %v", err)
	}

	if err := m.DeleteSessionByAccessToken(ctx, "access-2"); err != nil {
		t.Fatalf("DeleteSessionByAccessToken() error = %v", err)
	}
	if _, err := m.GetSessionByRefreshToken(ctx, "refresh-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("refresh token survives session delete, error = %v", err)
	}

	// deleting again is a no-op
	if err := m.DeleteSessionByAccessToken(ctx, "access-2"); err != nil {
		t.Fatalf("repeat delete error = %v", err)
	}
}

func TestItemPatchSemantics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := newTestUser(t, m, "a@x.com")

	item := &Item{Type: ItemTypeLogin, Name: "Site", Username: "bob", Password: "pw"}
	if err := m.CreateItem(ctx, u.ID, item); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	created := item.LastModified

	fav := true
	got, err := m.UpdateItem(ctx, u.ID, item.ID, ItemPatch{Favorite: &fav})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if got.Name != "Site" || got.Username != "bob" || got.Password != "pw" {
		t.Fatalf("patch clobbered untouched fields: %+v", got)
	}
	if !got.Favorite {
		t.Fatal("favorite not applied")
	}
	if got.LastModified.Before(created) {
		t.Fatalf("LastModified went backwards: %v -> %v", created, got.LastModified)
	}

	// empty patch still bumps LastModified
	before := got.LastModified
	got, err = m.UpdateItem(ctx, u.ID, item.ID, ItemPatch{})
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if got.LastModified.Before(before) {
		t.Fatal("empty patch did not refresh LastModified")
	}

	if _, err := m.UpdateItem(ctx, u.ID, "missing", ItemPatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateItem(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteFolderCascadesToNull(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := newTestUser(t, m, "a@x.com")

	folder := &Folder{Name: "Work"}
	if err := m.CreateFolder(ctx, u.ID, folder); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	keep := &Folder{Name: "Personal"}
	if err := m.CreateFolder(ctx, u.ID, keep); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	inFolder := &Item{Type: ItemTypeLogin, Name: "A", FolderID: folder.ID}
	loose := &Item{Type: ItemTypeNote, Name: "B"}
	for _, it := range []*Item{inFolder, loose} {
		if err := m.CreateItem(ctx, u.ID, it); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}
	}

	if err := m.DeleteFolder(ctx, u.ID, folder.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	folders, err := m.ListFolders(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListFolders() error = %v", err)
	}
	if len(folders) != 1 || folders[0].ID != keep.ID {
		t.Fatalf("folders after delete = %+v, want only %q", folders, keep.ID)
	}

	items, err := m.ListItems(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	for _, it := range items {
		if it.FolderID == folder.ID {
			t.Fatalf("item %q still references deleted folder", it.ID)
		}
	}

	if err := m.DeleteFolder(ctx, u.ID, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat DeleteFolder() error = %v, want ErrNotFound", err)
	}
}

func TestUserIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	alice := newTestUser(t, m, "alice@x.com")
	bob := newTestUser(t, m, "bob@x.com")

	if err := m.CreateItem(ctx, alice.ID, &Item{Type: ItemTypeLogin, Name: "Alice's"}); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if err := m.CreateFolder(ctx, alice.ID, &Folder{Name: "Private"}); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	items, err := m.ListItems(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("bob sees %d of alice's items", len(items))
	}
	folders, err := m.ListFolders(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListFolders() error = %v", err)
	}
	if len(folders) != 0 {
		t.Fatalf("bob sees %d of alice's folders", len(folders))
	}

	aliceItems, _ := m.ListItems(ctx, alice.ID)
	if err := m.DeleteItem(ctx, bob.ID, aliceItems[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user delete error = %v, want ErrNotFound", err)
	}
}

func TestListCopiesDoNotAlias(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := newTestUser(t, m, "a@x.com")

	if err := m.CreateItem(ctx, u.ID, &Item{Type: ItemTypeLogin, Name: "Original"}); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	items, _ := m.ListItems(ctx, u.ID)
	items[0].Name = "Mutated"

	again, _ := m.ListItems(ctx, u.ID)
	if again[0].Name != "Original" {
		t.Fatalf("store state mutated through returned slice: %q", again[0].Name)
	}
}
