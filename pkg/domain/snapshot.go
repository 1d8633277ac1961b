package domain

import (
	"encoding/json"
	"time"
)

// Snapshot is the saved state of a session's canvas.
// On the wire Meta keys sit at the top level beside elements and updatedAt,
// so a saved body loads back in the shape it was posted.
type Snapshot struct {
	Elements  []TextElement
	Meta      map[string]any
	UpdatedAt time.Time
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Meta)+2)
	for k, v := range s.Meta {
		out[k] = v
	}
	out["elements"] = s.Elements
	out["updatedAt"] = s.UpdatedAt
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = Snapshot{}
	for k, raw := range fields {
		switch k {
		case "elements":
			if err := json.Unmarshal(raw, &s.Elements); err != nil {
				return err
			}
		case "updatedAt":
			if err := json.Unmarshal(raw, &s.UpdatedAt); err != nil {
				return err
			}
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if s.Meta == nil {
				s.Meta = make(map[string]any)
			}
			s.Meta[k] = v
		}
	}
	return nil
}

// Clone returns a copy that shares no slices or maps with s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{UpdatedAt: s.UpdatedAt}
	if s.Elements != nil {
		out.Elements = make([]TextElement, len(s.Elements))
		copy(out.Elements, s.Elements)
	}
	if s.Meta != nil {
		out.Meta = make(map[string]any, len(s.Meta))
		for k, v := range s.Meta {
			out.Meta[k] = v
		}
	}
	return out
}
