package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Postgres implements Store on a pgx connection pool. Schema management
// lives in internal/db.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

type userRow struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	TwoFactorEnabled bool      `db:"two_factor_enabled"`
	EmailVerified    bool      `db:"email_verified"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r userRow) toDomain() *User {
	return &User{
		ID:               r.ID,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		TwoFactorEnabled: r.TwoFactorEnabled,
		EmailVerified:    r.EmailVerified,
		CreatedAt:        r.CreatedAt,
	}
}

func (p *Postgres) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, two_factor_enabled, email_verified, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.TwoFactorEnabled, u.EmailVerified, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var r userRow
	err := pgxscan.Get(ctx, p.pool, &r, `
        SELECT id, email, password_hash, two_factor_enabled, email_verified, created_at
        FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return r.toDomain(), nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*User, error) {
	var r userRow
	err := pgxscan.Get(ctx, p.pool, &r, `
        SELECT id, email, password_hash, two_factor_enabled, email_verified, created_at
        FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return r.toDomain(), nil
}

func (p *Postgres) PutUserKeys(ctx context.Context, k *UserKeys) error {
	_, err := p.pool.Exec(ctx, `
        INSERT INTO user_keys (user_id, encrypted_symmetric_key, encrypted_private_key, public_key, kdf_iterations)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO NOTHING`,
		k.UserID, k.EncryptedSymmetricKey, k.EncryptedPrivateKey, k.PublicKey, k.KDFIterations)
	if err != nil {
		return fmt.Errorf("put user keys: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserKeys(ctx context.Context, userID string) (*UserKeys, error) {
	var r struct {
		UserID                string `db:"user_id"`
		EncryptedSymmetricKey string `db:"encrypted_symmetric_key"`
		EncryptedPrivateKey   string `db:"encrypted_private_key"`
		PublicKey             string `db:"public_key"`
		KDFIterations         int    `db:"kdf_iterations"`
	}
	err := pgxscan.Get(ctx, p.pool, &r, `
        SELECT user_id, encrypted_symmetric_key, encrypted_private_key, public_key, kdf_iterations
        FROM user_keys WHERE user_id = $1`, userID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &UserKeys{
		UserID:                r.UserID,
		EncryptedSymmetricKey: r.EncryptedSymmetricKey,
		EncryptedPrivateKey:   r.EncryptedPrivateKey,
		PublicKey:             r.PublicKey,
		KDFIterations:         r.KDFIterations,
	}, nil
}

type sessionRow struct {
	ID               string    `db:"id"`
	UserID           string    `db:"user_id"`
	AccessToken      string    `db:"access_token"`
	RefreshToken     string    `db:"refresh_token"`
	AccessExpiresAt  time.Time `db:"access_expires_at"`
	RefreshExpiresAt time.Time `db:"refresh_expires_at"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r sessionRow) toDomain() *Session {
	return &Session{
		ID:               r.ID,
		UserID:           r.UserID,
		AccessToken:      r.AccessToken,
		RefreshToken:     r.RefreshToken,
		AccessExpiresAt:  r.AccessExpiresAt,
		RefreshExpiresAt: r.RefreshExpiresAt,
		CreatedAt:        r.CreatedAt,
	}
}

func (p *Postgres) CreateSession(ctx context.Context, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx, `
        INSERT INTO sessions (id, user_id, access_token, refresh_token, access_expires_at, refresh_expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.AccessExpiresAt, s.RefreshExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (p *Postgres) GetSessionByAccessToken(ctx context.Context, token string) (*Session, error) {
	var r sessionRow
	err := pgxscan.Get(ctx, p.pool, &r, `
        SELECT id, user_id, access_token, refresh_token, access_expires_at, refresh_expires_at, created_at
        FROM sessions WHERE access_token = $1`, token)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return r.toDomain(), nil
}

func (p *Postgres) GetSessionByRefreshToken(ctx context.Context, token string) (*Session, error) {
	var r sessionRow
	err := pgxscan.Get(ctx, p.pool, &r, `
        SELECT id, user_id, access_token, refresh_token, access_expires_at, refresh_expires_at, created_at
        FROM sessions WHERE refresh_token = $1`, token)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return r.toDomain(), nil
}

func (p *Postgres) UpdateSession(ctx context.Context, s *Session) error {
	tag, err := p.pool.Exec(ctx, `
        UPDATE sessions
        SET access_token = $2, refresh_token = $3, access_expires_at = $4, refresh_expires_at = $5
        WHERE id = $1`,
		s.ID, s.AccessToken, s.RefreshToken, s.AccessExpiresAt, s.RefreshExpiresAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteSessionByAccessToken(ctx context.Context, token string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE access_token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (p *Postgres) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	err := pgxscan.Select(ctx, p.pool, &rows, `
        SELECT id, name FROM folders WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	out := make([]Folder, 0, len(rows))
	for _, r := range rows {
		out = append(out, Folder{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (p *Postgres) CreateFolder(ctx context.Context, userID string, f *Folder) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := p.pool.Exec(ctx, `
        INSERT INTO folders (id, user_id, name) VALUES ($1, $2, $3)`, f.ID, userID, f.Name)
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (p *Postgres) RenameFolder(ctx context.Context, userID, folderID, name string) (*Folder, error) {
	tag, err := p.pool.Exec(ctx, `
        UPDATE folders SET name = $3 WHERE id = $1 AND user_id = $2`, folderID, userID, name)
	if err != nil {
		return nil, fmt.Errorf("rename folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &Folder{ID: folderID, Name: name}, nil
}

func (p *Postgres) DeleteFolder(ctx context.Context, userID, folderID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        DELETE FROM folders WHERE id = $1 AND user_id = $2`, folderID, userID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `
        UPDATE vault_items SET folder_id = NULL WHERE user_id = $1 AND folder_id = $2`,
		userID, folderID); err != nil {
		return fmt.Errorf("detach items: %w", err)
	}

	return tx.Commit(ctx)
}

type itemRow struct {
	ID           string    `db:"id"`
	ItemType     string    `db:"item_type"`
	Name         string    `db:"name"`
	Username     *string   `db:"username"`
	Password     *string   `db:"password"`
	URL          *string   `db:"url"`
	Notes        *string   `db:"notes"`
	FolderID     *string   `db:"folder_id"`
	Favorite     bool      `db:"favorite"`
	TOTPSecret   *string   `db:"totp_secret"`
	LastModified time.Time `db:"last_modified"`
}

func (r itemRow) toDomain() Item {
	return Item{
		ID:           r.ID,
		Type:         ItemType(r.ItemType),
		Name:         r.Name,
		Username:     deref(r.Username),
		Password:     deref(r.Password),
		URL:          deref(r.URL),
		Notes:        deref(r.Notes),
		FolderID:     deref(r.FolderID),
		Favorite:     r.Favorite,
		TOTPSecret:   deref(r.TOTPSecret),
		LastModified: r.LastModified,
	}
}

const itemColumns = `id, item_type, name, username, password, url, notes, folder_id, favorite, totp_secret, last_modified`

func (p *Postgres) ListItems(ctx context.Context, userID string) ([]Item, error) {
	var rows []itemRow
	err := pgxscan.Select(ctx, p.pool, &rows, `
        SELECT `+itemColumns+` FROM vault_items WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (p *Postgres) CreateItem(ctx context.Context, userID string, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.LastModified = time.Now().UTC()

	_, err := p.pool.Exec(ctx, `
        INSERT INTO vault_items (id, user_id, item_type, name, username, password, url, notes, folder_id, favorite, totp_secret, last_modified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		it.ID, userID, string(it.Type), it.Name,
		nullable(it.Username), nullable(it.Password), nullable(it.URL), nullable(it.Notes),
		nullable(it.FolderID), it.Favorite, nullable(it.TOTPSecret), it.LastModified)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateItem(ctx context.Context, userID, itemID string, patch ItemPatch) (*Item, error) {
	var r itemRow
	err := pgxscan.Get(ctx, p.pool, &r, `
        UPDATE vault_items SET
            name = COALESCE($3, name),
            username = COALESCE($4, username),
            password = COALESCE($5, password),
            url = COALESCE($6, url),
            notes = COALESCE($7, notes),
            folder_id = CASE WHEN $8 THEN $9 ELSE folder_id END,
            favorite = COALESCE($10, favorite),
            last_modified = $11
        WHERE id = $1 AND user_id = $2
        RETURNING `+itemColumns,
		itemID, userID,
		patch.Name, patch.Username, patch.Password, patch.URL, patch.Notes,
		patch.FolderID != nil, folderPatchValue(patch.FolderID), patch.Favorite,
		time.Now().UTC())
	if err != nil {
		return nil, mapNoRows(err)
	}
	it := r.toDomain()
	return &it, nil
}

func (p *Postgres) DeleteItem(ctx context.Context, userID, itemID string) error {
	tag, err := p.pool.Exec(ctx, `
        DELETE FROM vault_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// folderPatchValue maps an explicit empty FolderID patch to NULL so that
// clearing a folder reference and leaving it untouched stay distinct.
func folderPatchValue(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
