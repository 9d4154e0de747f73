package submit

import "github.com/formloom/formloom/model"

// stripUndefined removes every undefined value from the structure,
// recursively through maps and slices. Persistence backends reject
// undefined members, so this is a hard requirement, not cosmetic.
// A nil (JSON null) survives: it means "explicitly empty".
func stripUndefined(v any) (any, bool) {
	if v == model.Undefined {
		return nil, false
	}
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			if clean, ok := stripUndefined(e); ok {
				out[k] = clean
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			if clean, ok := stripUndefined(e); ok {
				out = append(out, clean)
			}
		}
		return out, true
	}
	return v, true
}
