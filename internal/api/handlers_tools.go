package api

import (
	"errors"
	"net/http"

	"voltvault/internal/passgen"
)

type generatePasswordRequest struct {
	Length         int   `json:"length"`
	Uppercase      *bool `json:"uppercase"`
	Lowercase      *bool `json:"lowercase"`
	Numbers        *bool `json:"numbers"`
	Symbols        *bool `json:"symbols"`
	ExcludeSimilar bool  `json:"exclude_similar"`
}

// enabled treats an absent boolean as true; only an explicit false
// disables a character class.
func enabled(v *bool) bool {
	return v == nil || *v
}

func (a *API) handleGeneratePassword(w http.ResponseWriter, r *http.Request) {
	var req generatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	result, err := passgen.Generate(passgen.Options{
		Length:         req.Length,
		Lowercase:      enabled(req.Lowercase),
		Uppercase:      enabled(req.Uppercase),
		Digits:         enabled(req.Numbers),
		Symbols:        enabled(req.Symbols),
		ExcludeSimilar: req.ExcludeSimilar,
	})
	if err != nil {
		if errors.Is(err, passgen.ErrEmptyCharset) {
			respondError(w, http.StatusBadRequest, codeValidation, "At least one character type must be selected", nil)
			return
		}
		a.log.Error().Err(err).Msg("password generation failed")
		respondInternal(w)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"password":     result.Password,
		"strength":     result.Strength,
		"entropy_bits": result.EntropyBits,
	}, "")
}
