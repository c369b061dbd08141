package registry

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// dateSuffixPattern matches a trailing date-ish version tag such as
// "-2024-08-06" or "-20240806", used by the pricing overlay's fallback
// lookup (spec.md §4.2 "idWithoutDateSuffix").
var dateSuffixPattern = regexp.MustCompile(`[-_](\d{4}-?\d{2}-?\d{2}|\d{8})$`)

func idWithoutDateSuffix(id string) string {
	return dateSuffixPattern.ReplaceAllString(id, "")
}

// PriceOverlay is the offline-curated ground-truth side-table keyed by
// (source, id), consulted after dedup to correct sparse provider pricing
// without touching the fetch pipeline (spec.md §4.2).
type PriceOverlay struct {
	entries map[string]Pricing // key: source + "\x00" + id
}

func overlayKey(source, id string) string { return source + "\x00" + id }

// NewPriceOverlay builds an overlay from a flat list of entries.
func NewPriceOverlay(entries []OverlayEntry) *PriceOverlay {
	o := &PriceOverlay{entries: make(map[string]Pricing, len(entries))}
	for _, e := range entries {
		o.entries[overlayKey(e.Source, e.ID)] = Pricing{
			Provider:               e.Source,
			InputPerMillionTokens:  e.InputPerMillionTokens,
			OutputPerMillionTokens: e.OutputPerMillionTokens,
		}
	}
	return o
}

// OverlayEntry is one row of the curated pricing file.
type OverlayEntry struct {
	Source                 string  `json:"source"`
	ID                      string  `json:"id"`
	InputPerMillionTokens   float64 `json:"inputPerMillionTokens"`
	OutputPerMillionTokens  float64 `json:"outputPerMillionTokens"`
}

// LoadPriceOverlayFile reads a JSON array of OverlayEntry from disk. A
// missing file is not an error — the overlay is simply empty, matching
// the teacher's posture of degrading gracefully on optional config.
func LoadPriceOverlayFile(path string) (*PriceOverlay, error) {
	if strings.TrimSpace(path) == "" {
		return NewPriceOverlay(nil), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewPriceOverlay(nil), nil
	}
	if err != nil {
		return nil, err
	}
	var entries []OverlayEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return NewPriceOverlay(entries), nil
}

// Lookup finds pricing for (source, id), falling back to the id with any
// trailing date suffix stripped.
func (o *PriceOverlay) Lookup(source, id string) (Pricing, bool) {
	if o == nil {
		return Pricing{}, false
	}
	if p, ok := o.entries[overlayKey(source, id)]; ok {
		return p, true
	}
	stripped := idWithoutDateSuffix(id)
	if stripped == id {
		return Pricing{}, false
	}
	p, ok := o.entries[overlayKey(source, stripped)]
	return p, ok
}

// ApplyOverlay overlays curated pricing onto a deduplicated model list,
// leaving models the overlay has no entry for untouched.
func ApplyOverlay(models []ModelInfo, overlay *PriceOverlay) []ModelInfo {
	if overlay == nil {
		return models
	}
	for i, m := range models {
		if p, ok := overlay.Lookup(m.Source, m.ID); ok {
			pCopy := p
			models[i].Pricing = &pCopy
		}
	}
	return models
}
