package format

import "encoding/json"

// NormalizedArray factors near-uniform fields out of an item array.
// Merging Common over an item reconstructs its ≥threshold-uniform
// fields to the common value; per-item overrides of hoisted fields are
// lost, which is acceptable for read/display payloads only.
type NormalizedArray struct {
	Common map[string]any   `json:"common"`
	Items  []map[string]any `json:"items"`
}

// normalize hoists fields whose serialized value repeats across at
// least UniformThreshold of items. It declines (ok=false) when the
// array is too small or too low-redundancy for the restructuring to
// pay for itself.
func (f *Formatter) normalize(items []map[string]any) (*NormalizedArray, bool) {
	if len(items) < f.cfg.MinNormalizeItems {
		return nil, false
	}

	// Union of field names, and per-field counts of serialized values.
	fieldValues := make(map[string]map[string]int)
	for _, item := range items {
		for key, value := range item {
			raw, err := json.Marshal(value)
			if err != nil {
				continue
			}
			if fieldValues[key] == nil {
				fieldValues[key] = make(map[string]int)
			}
			fieldValues[key][string(raw)]++
		}
	}

	need := int(f.cfg.UniformThreshold * float64(len(items)))
	if float64(need) < f.cfg.UniformThreshold*float64(len(items)) {
		need++ // ceil
	}

	common := make(map[string]any)
	for key, counts := range fieldValues {
		bestRaw, bestCount := "", 0
		for raw, count := range counts {
			// Ties break lexicographically so hoisting is deterministic.
			if count > bestCount || (count == bestCount && raw < bestRaw) {
				bestRaw, bestCount = raw, count
			}
		}
		if bestCount >= need {
			var v any
			if json.Unmarshal([]byte(bestRaw), &v) == nil {
				common[key] = v
			}
		}
	}

	if len(common) == 0 || float64(len(common)) < f.cfg.CommonFieldMinRatio*float64(len(fieldValues)) {
		return nil, false
	}

	stripped := make([]map[string]any, len(items))
	for i, item := range items {
		out := make(map[string]any, len(item))
		for key, value := range item {
			if _, hoisted := common[key]; hoisted {
				continue
			}
			out[key] = value
		}
		stripped[i] = out
	}

	return &NormalizedArray{Common: common, Items: stripped}, true
}
