package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/promptpack/internal/cache"
	"github.com/tjfontaine/promptpack/internal/codec"
	"github.com/tjfontaine/promptpack/internal/formula"
)

// Handler exposes the formula catalog over HTTP, standing in for the
// host's registration and invocation surface.
type Handler struct {
	catalog *formula.Catalog
	store   cache.Store // nil disables caching
	logger  *slog.Logger
}

// NewHandler creates a handler. store may be nil.
func NewHandler(catalog *formula.Catalog, store cache.Store, logger *slog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		store:   store,
		logger:  logger,
	}
}

// Register mounts the formula routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/formulas", h.handleList)
	r.Post("/v1/formulas/{name}", h.handleInvoke)
}

type paramInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Description  string   `json:"description,omitempty"`
	Optional     bool     `json:"optional,omitempty"`
	Default      any      `json:"default,omitempty"`
	Autocomplete []string `json:"autocomplete,omitempty"`
}

type formulaInfo struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	IsAction        bool        `json:"is_action,omitempty"`
	CacheTTLSeconds int         `json:"cache_ttl_seconds,omitempty"`
	Params          []paramInfo `json:"params"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	formulas := h.catalog.List()
	out := make([]formulaInfo, len(formulas))
	for i, f := range formulas {
		info := formulaInfo{
			Name:            f.Name,
			Description:     f.Description,
			IsAction:        f.IsAction,
			CacheTTLSeconds: int(f.CacheTTL.Seconds()),
			Params:          make([]paramInfo, len(f.Params)),
		}
		for j, p := range f.Params {
			info.Params[j] = paramInfo{
				Name:         p.Name,
				Type:         string(p.Type),
				Description:  p.Description,
				Optional:     p.Optional || p.Default != nil,
				Default:      p.Default,
				Autocomplete: p.Autocomplete,
			}
		}
		out[i] = info
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	AddLogField(ctx, "formula", name)

	f, ok := h.catalog.Get(name)
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, fmt.Sprintf("unknown formula: %s", name))
		return
	}

	params, err := decodeParams(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "request body must be a JSON object of parameters")
		return
	}

	cacheable := h.store != nil && !f.IsAction && f.CacheTTL > 0
	var paramsHash string
	if cacheable {
		paramsHash, err = cache.HashParams(params)
		if err != nil {
			cacheable = false
		}
	}

	if cacheable {
		if cached, hit, err := h.store.Get(ctx, f.Name, paramsHash); err == nil && hit {
			AddLogField(ctx, "cache", "hit")
			writeJSON(w, http.StatusOK, map[string]any{"result": cached})
			return
		}
	}

	result, err := h.catalog.Invoke(ctx, name, params)
	if err != nil {
		AddError(ctx, err)
		codec.WriteError(w, err)
		return
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "failed to encode result")
		return
	}

	if cacheable {
		if err := h.store.Put(ctx, f.Name, paramsHash, encoded, f.CacheTTL); err != nil {
			h.logger.Warn("failed to cache result",
				slog.String("formula", f.Name), slog.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": json.RawMessage(encoded)})
}

// decodeParams reads the request body as a parameter object. An empty body
// means no parameters.
func decodeParams(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal(body, &params); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": message},
	})
}
