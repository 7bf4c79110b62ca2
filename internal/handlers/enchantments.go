package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// GetEnchantment resolves a single enchantment id
// @Summary Resolve an enchantment
// @Description Returns the item an enchantment id maps to. Ids below 1 resolve to "Unknown".
// @Tags enchantments
// @Produce json
// @Param id path int true "Enchantment ID"
// @Success 200 {object} enchantments.Resolution
// @Failure 400 {string} string "Invalid enchantment ID"
// @Router /api/enchantments/{id} [get]
func (h *Handlers) GetEnchantment(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid enchantment ID", http.StatusBadRequest)
		return
	}

	res := h.resolver.Resolve(r.Context(), key)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// GetEnchantments resolves a comma separated list of ids
// @Summary Resolve several enchantments
// @Description Duplicates and ids below 1 are dropped; one result per remaining id in request order
// @Tags enchantments
// @Produce json
// @Param ids query string true "Comma separated enchantment IDs"
// @Success 200 {array} enchantments.Resolution
// @Failure 400 {string} string "Invalid enchantment IDs"
// @Router /api/enchantments [get]
func (h *Handlers) GetEnchantments(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if strings.TrimSpace(raw) == "" {
		http.Error(w, "ids query parameter is required", http.StatusBadRequest)
		return
	}

	keys, err := parseIDs(raw)
	if err != nil {
		http.Error(w, "Invalid enchantment IDs", http.StatusBadRequest)
		return
	}

	results := h.resolver.ResolveMultiple(r.Context(), keys)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func parseIDs(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	keys := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
