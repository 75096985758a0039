package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSeedDemoDefaultDataset(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := SeedDemo(ctx, m, DefaultSeedDataset()); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	user, err := m.GetUserByEmail(ctx, DemoEmail)
	if err != nil {
		t.Fatalf("demo user missing: %v", err)
	}
	if user.PasswordHash != DemoPasswordHash {
		t.Fatalf("demo hash = %q, want %q", user.PasswordHash, DemoPasswordHash)
	}
	if !user.EmailVerified {
		t.Fatal("demo account should be verified")
	}

	if _, err := m.GetUserKeys(ctx, user.ID); err != nil {
		t.Fatalf("demo keys missing: %v", err)
	}

	folders, _ := m.ListFolders(ctx, user.ID)
	if len(folders) != 3 {
		t.Fatalf("seeded %d folders, want 3", len(folders))
	}
	items, _ := m.ListItems(ctx, user.ID)
	if len(items) != 4 {
		t.Fatalf("seeded %d items, want 4", len(items))
	}

	byName := make(map[string]Item, len(items))
	for _, it := range items {
		byName[it.Name] = it
	}
	google, ok := byName["Google"]
	if !ok {
		t.Fatal("Google item missing")
	}
	if google.Type != ItemTypeLogin || google.TOTPSecret == "" || google.FolderID == "" {
		t.Fatalf("Google item malformed: %+v", google)
	}
	if card := byName["Visa ending 4242"]; card.Type != ItemTypeCard {
		t.Fatalf("card item type = %q", card.Type)
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := SeedDemo(ctx, m, DefaultSeedDataset()); err != nil {
		t.Fatalf("first SeedDemo() error = %v", err)
	}
	if err := SeedDemo(ctx, m, DefaultSeedDataset()); err != nil {
		t.Fatalf("second SeedDemo() error = %v", err)
	}

	user, _ := m.GetUserByEmail(ctx, DemoEmail)
	items, _ := m.ListItems(ctx, user.ID)
	if len(items) != 4 {
		t.Fatalf("reseeding duplicated items: got %d", len(items))
	}
}

func TestLoadSeedDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	raw := `folders:
  - name: Servers
items:
  - type: login
    name: Router
    username: admin
    password: hunter2
    folder: Servers
    favorite: true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ds, err := LoadSeedDataset(path)
	if err != nil {
		t.Fatalf("LoadSeedDataset() error = %v", err)
	}
	if len(ds.Folders) != 1 || ds.Folders[0].Name != "Servers" {
		t.Fatalf("folders = %+v", ds.Folders)
	}
	if len(ds.Items) != 1 || ds.Items[0].Name != "Router" || !ds.Items[0].Favorite {
		t.Fatalf("items = %+v", ds.Items)
	}

	if _, err := LoadSeedDataset(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
