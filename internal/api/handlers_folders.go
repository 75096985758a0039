package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voltvault/internal/store"
)

func folderPayload(f store.Folder, stamp time.Time) map[string]any {
	return map[string]any{
		"id":               f.ID,
		"encrypted_name":   f.Name,
		"parent_folder_id": nil,
		"revision_date":    stamp,
	}
}

func (a *API) handleListFolders(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	folders, err := a.store.ListFolders(r.Context(), uid)
	if err != nil {
		a.log.Error().Err(err).Msg("list folders failed")
		respondInternal(w)
		return
	}

	now := time.Now().UTC()
	payloads := make([]map[string]any, 0, len(folders))
	for _, f := range folders {
		payloads = append(payloads, folderPayload(f, now))
	}
	respondData(w, http.StatusOK, payloads, "")
}

type folderRequest struct {
	EncryptedName string `json:"encrypted_name"`
	Name          string `json:"name"`
}

func (req folderRequest) folderName() string {
	if req.EncryptedName != "" {
		return req.EncryptedName
	}
	return req.Name
}

func (a *API) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	folder := &store.Folder{Name: req.folderName()}
	if folder.Name == "" {
		folder.Name = "New Folder"
	}
	if err := a.store.CreateFolder(r.Context(), uid, folder); err != nil {
		a.log.Error().Err(err).Msg("create folder failed")
		respondInternal(w)
		return
	}

	vaultMutationsTotal.WithLabelValues("folder_create").Inc()
	respondData(w, http.StatusCreated, folderPayload(*folder, time.Now().UTC()), "")
}

func (a *API) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	folderID := chi.URLParam(r, "id")

	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	folder, err := a.store.RenameFolder(r.Context(), uid, folderID, req.folderName())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "Folder not found", nil)
			return
		}
		a.log.Error().Err(err).Msg("rename folder failed")
		respondInternal(w)
		return
	}

	vaultMutationsTotal.WithLabelValues("folder_rename").Inc()
	respondData(w, http.StatusOK, map[string]any{
		"id":             folder.ID,
		"encrypted_name": folder.Name,
		"revision_date":  time.Now().UTC(),
	}, "")
}

func (a *API) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	folderID := chi.URLParam(r, "id")

	if err := a.store.DeleteFolder(r.Context(), uid, folderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "Folder not found", nil)
			return
		}
		a.log.Error().Err(err).Msg("delete folder failed")
		respondInternal(w)
		return
	}

	vaultMutationsTotal.WithLabelValues("folder_delete").Inc()
	a.publish(r.Context(), topicFolderDeleted, map[string]any{
		"user_id":   uid,
		"folder_id": folderID,
	})

	respondMessage(w, http.StatusOK, "Folder deleted. Items moved to root.")
}
