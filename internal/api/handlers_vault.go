package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voltvault/internal/store"
)

// Wire encoding of item types. Anything outside the known values decodes
// as a note.
const (
	wireTypeLogin = 1
	wireTypeNote  = 2
	wireTypeCard  = 3
)

func wireItemType(t store.ItemType) int {
	switch t {
	case store.ItemTypeLogin:
		return wireTypeLogin
	case store.ItemTypeCard:
		return wireTypeCard
	default:
		return wireTypeNote
	}
}

func itemTypeFromWire(t int) store.ItemType {
	switch t {
	case wireTypeLogin:
		return store.ItemTypeLogin
	case wireTypeCard:
		return store.ItemTypeCard
	default:
		return store.ItemTypeNote
	}
}

// itemPayload shapes an item for the wire. encrypted_data carries the
// JSON-serialized item as a stand-in for ciphertext.
func itemPayload(it store.Item, includeCreatedAt bool) map[string]any {
	blob, _ := json.Marshal(it)

	var folderID any
	if it.FolderID != "" {
		folderID = it.FolderID
	}

	payload := map[string]any{
		"id":             it.ID,
		"folder_id":      folderID,
		"item_type":      wireItemType(it.Type),
		"encrypted_data": string(blob),
		"favorite":       it.Favorite,
		"has_totp":       it.TOTPSecret != "",
		"revision_date":  it.LastModified,
	}
	if includeCreatedAt {
		payload["created_at"] = it.LastModified
	}
	return payload
}

func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	folders, err := a.store.ListFolders(r.Context(), uid)
	if err != nil {
		a.log.Error().Err(err).Msg("list folders failed")
		respondInternal(w)
		return
	}
	items, err := a.store.ListItems(r.Context(), uid)
	if err != nil {
		a.log.Error().Err(err).Msg("list items failed")
		respondInternal(w)
		return
	}

	// Folder revision dates are stamped per call, not stored.
	now := time.Now().UTC()
	folderPayloads := make([]map[string]any, 0, len(folders))
	for _, f := range folders {
		folderPayloads = append(folderPayloads, map[string]any{
			"id":             f.ID,
			"encrypted_name": f.Name,
			"revision_date":  now,
		})
	}
	itemPayloads := make([]map[string]any, 0, len(items))
	for _, it := range items {
		itemPayloads = append(itemPayloads, itemPayload(it, true))
	}

	respondData(w, http.StatusOK, map[string]any{
		"revision_date": now,
		"folders":       folderPayloads,
		"items":         itemPayloads,
		"deleted_items": []any{},
	}, "")
}

type createItemRequest struct {
	ItemType int    `json:"item_type"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
	FolderID string `json:"folder_id"`
	Favorite bool   `json:"favorite"`
	TOTP     *struct {
		EncryptedSecret string `json:"encrypted_secret"`
	} `json:"totp"`
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	item := &store.Item{
		Type:     itemTypeFromWire(req.ItemType),
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
		Notes:    req.Notes,
		FolderID: req.FolderID,
		Favorite: req.Favorite,
	}
	if item.Name == "" {
		item.Name = "Untitled"
	}
	if req.TOTP != nil {
		item.TOTPSecret = req.TOTP.EncryptedSecret
	}

	if err := a.store.CreateItem(r.Context(), uid, item); err != nil {
		a.log.Error().Err(err).Msg("create item failed")
		respondInternal(w)
		return
	}

	vaultMutationsTotal.WithLabelValues("item_create").Inc()
	a.publish(r.Context(), topicItemCreated, map[string]any{
		"user_id": uid,
		"item_id": item.ID,
	})

	respondData(w, http.StatusCreated, itemPayload(*item, true), "")
}

type updateItemRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
	FolderID *string `json:"folder_id"`
	Favorite *bool   `json:"favorite"`
}

func (a *API) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	itemID := chi.URLParam(r, "id")

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	patch := store.ItemPatch{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
		Notes:    req.Notes,
		FolderID: req.FolderID,
		Favorite: req.Favorite,
	}

	item, err := a.store.UpdateItem(r.Context(), uid, itemID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "Item not found", nil)
			return
		}
		a.log.Error().Err(err).Msg("update item failed")
		respondInternal(w)
		return
	}

	vaultMutationsTotal.WithLabelValues("item_update").Inc()
	a.publish(r.Context(), topicItemUpdated, map[string]any{
		"user_id": uid,
		"item_id": item.ID,
	})

	respondData(w, http.StatusOK, itemPayload(*item, false), "")
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	itemID := chi.URLParam(r, "id")

	if err := a.store.DeleteItem(r.Context(), uid, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "Item not found", nil)
			return
		}
		a.log.Error().Err(err).Msg("delete item failed")
		respondInternal(w)
		return
	}

	vaultMutationsTotal.WithLabelValues("item_delete").Inc()
	a.publish(r.Context(), topicItemDeleted, map[string]any{
		"user_id": uid,
		"item_id": itemID,
	})

	respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Item deleted",
		Data: map[string]any{
			"id":         itemID,
			"deleted_at": time.Now().UTC(),
		},
	})
}
