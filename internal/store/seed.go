package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DemoEmail is the account seeded in demo mode. Login accepts any master
// password hash for this account, and only when demo mode is enabled.
const DemoEmail = "demo@voltvault.dev"

// DemoPasswordHash is the seeded account's stored hash.
const DemoPasswordHash = "demo123"

// SeedDataset describes the demo vault contents. Loadable from a yaml
// file so demos can ship their own fixture data.
type SeedDataset struct {
	Folders []SeedFolder `yaml:"folders"`
	Items   []SeedItem   `yaml:"items"`
}

type SeedFolder struct {
	Name string `yaml:"name"`
}

type SeedItem struct {
	Type       string `yaml:"type"`
	Name       string `yaml:"name"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	URL        string `yaml:"url"`
	Notes      string `yaml:"notes"`
	Folder     string `yaml:"folder"`
	Favorite   bool   `yaml:"favorite"`
	TOTPSecret string `yaml:"totp_secret"`
}

// DefaultSeedDataset mirrors the dataset the demo front-end expects.
func DefaultSeedDataset() SeedDataset {
	return SeedDataset{
		Folders: []SeedFolder{
			{Name: "Work"},
			{Name: "Personal"},
			{Name: "Finance"},
		},
		Items: []SeedItem{
			{
				Type:       "login",
				Name:       "Google",
				Username:   "user@gmail.com",
				Password:   "password123",
				URL:        "https://google.com",
				Folder:     "Personal",
				Favorite:   true,
				TOTPSecret: "JBSWY3DPEHPK3PXP",
			},
			{
				Type:     "login",
				Name:     "GitHub",
				Username: "dev-user",
				Password: "secure-password-456",
				URL:      "https://github.com",
				Folder:   "Work",
				Favorite: true,
			},
			{
				Type:   "card",
				Name:   "Visa ending 4242",
				Notes:  "Exp: 12/25, CVV: 123",
				Folder: "Finance",
			},
			{
				Type:   "note",
				Name:   "WiFi Password",
				Notes:  "Home: SuperSecretWiFi\nOffice: GuestNetwork123",
				Folder: "Personal",
			},
		},
	}
}

// LoadSeedDataset reads a yaml seed file.
func LoadSeedDataset(path string) (SeedDataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedDataset{}, fmt.Errorf("read seed file: %w", err)
	}
	var ds SeedDataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return SeedDataset{}, fmt.Errorf("parse seed file: %w", err)
	}
	return ds, nil
}

// SeedDemo creates the demo account, its key record, and the dataset's
// folders and items. Seeding an already-registered demo account is a no-op
// so restarts against a durable backend stay clean.
func SeedDemo(ctx context.Context, s Store, ds SeedDataset) error {
	user := &User{
		Email:            DemoEmail,
		PasswordHash:     DemoPasswordHash,
		TwoFactorEnabled: false,
		EmailVerified:    true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("seed demo user: %w", err)
	}

	keys := &UserKeys{
		UserID:                user.ID,
		EncryptedSymmetricKey: "2.nQxVo8hJIz...",
		EncryptedPrivateKey:   "2.7yXGkZ9Pp...",
		PublicKey:             "MIIBIjANBgkqhk...",
		KDFIterations:         100000,
	}
	if err := s.PutUserKeys(ctx, keys); err != nil {
		return fmt.Errorf("seed demo keys: %w", err)
	}

	folderIDs := make(map[string]string, len(ds.Folders))
	for _, sf := range ds.Folders {
		f := &Folder{Name: sf.Name}
		if err := s.CreateFolder(ctx, user.ID, f); err != nil {
			return fmt.Errorf("seed folder %q: %w", sf.Name, err)
		}
		folderIDs[sf.Name] = f.ID
	}

	for _, si := range ds.Items {
		it := &Item{
			Type:       seedItemType(si.Type),
			Name:       si.Name,
			Username:   si.Username,
			Password:   si.Password,
			URL:        si.URL,
			Notes:      si.Notes,
			FolderID:   folderIDs[si.Folder],
			Favorite:   si.Favorite,
			TOTPSecret: si.TOTPSecret,
		}
		if err := s.CreateItem(ctx, user.ID, it); err != nil {
			return fmt.Errorf("seed item %q: %w", si.Name, err)
		}
	}
	return nil
}

func seedItemType(t string) ItemType {
	switch t {
	case "login":
		return ItemTypeLogin
	case "card":
		return ItemTypeCard
	default:
		return ItemTypeNote
	}
}
