// Package store defines the vault storage contract and its backends.
//
// The default backend keeps everything in process memory; state is lost on
// restart, which is acceptable for the demo deployment. A Postgres backend
// implements the same interface for durable installs.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested entity does not exist for
	// the given user.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned by CreateUser when the email is already
	// registered (case-insensitive).
	ErrEmailTaken = errors.New("email already registered")
)

// ItemType classifies a vault item.
type ItemType string

const (
	ItemTypeLogin ItemType = "login"
	ItemTypeCard  ItemType = "card"
	ItemTypeNote  ItemType = "note"
)

// User is a registered account. PasswordHash is the client-supplied master
// password hash; the server never derives or verifies real key material.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	EmailVerified    bool      `json:"emailVerified"`
	CreatedAt        time.Time `json:"createdAt"`
}

// UserKeys holds the client-provided key blobs, one record per user,
// immutable after registration.
type UserKeys struct {
	UserID                string
	EncryptedSymmetricKey string
	EncryptedPrivateKey   string
	PublicKey             string
	KDFIterations         int
}

// Session is an issued login. Access and refresh tokens are distinct
// opaque strings with independent expiries. Expired sessions stay in
// storage and are filtered at the policy layer; there is no sweep.
type Session struct {
	ID               string
	UserID           string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	CreatedAt        time.Time
}

// Folder groups vault items. Folders carry no stored revision date; the
// sync payload stamps them per call.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a single stored secret. The JSON tags define the serialized
// form used as the encrypted_data stand-in on the wire.
type Item struct {
	ID           string    `json:"id"`
	Type         ItemType  `json:"type"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	Password     string    `json:"password,omitempty"`
	URL          string    `json:"url,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	FolderID     string    `json:"folderId,omitempty"`
	Favorite     bool      `json:"favorite"`
	TOTPSecret   string    `json:"totpSecret,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// ItemPatch carries a partial item update. Nil fields are left untouched;
// LastModified is refreshed on every successful update regardless.
type ItemPatch struct {
	Name     *string
	Username *string
	Password *string
	URL      *string
	Notes    *string
	FolderID *string
	Favorite *bool
}

// Store is the storage boundary injected into the HTTP layer. All item and
// folder operations are scoped to a single owning user; implementations
// must never let one user's data leak into another's results.
type Store interface {
	// CreateUser assigns an ID and creation time, failing with
	// ErrEmailTaken when the email already exists (case-insensitive).
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	// PutUserKeys stores the one-to-one key record for a user.
	PutUserKeys(ctx context.Context, k *UserKeys) error
	GetUserKeys(ctx context.Context, userID string) (*UserKeys, error)

	CreateSession(ctx context.Context, s *Session) error
	GetSessionByAccessToken(ctx context.Context, token string) (*Session, error)
	GetSessionByRefreshToken(ctx context.Context, token string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	// DeleteSessionByAccessToken is idempotent; deleting a missing
	// session is not an error.
	DeleteSessionByAccessToken(ctx context.Context, token string) error

	ListFolders(ctx context.Context, userID string) ([]Folder, error)
	CreateFolder(ctx context.Context, userID string, f *Folder) error
	RenameFolder(ctx context.Context, userID, folderID, name string) (*Folder, error)
	// DeleteFolder removes the folder and clears FolderID on every item
	// that referenced it (cascade-to-null, not cascade-delete).
	DeleteFolder(ctx context.Context, userID, folderID string) error

	ListItems(ctx context.Context, userID string) ([]Item, error)
	// CreateItem assigns the item ID and LastModified server-side.
	CreateItem(ctx context.Context, userID string, it *Item) error
	UpdateItem(ctx context.Context, userID, itemID string, patch ItemPatch) (*Item, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
}
