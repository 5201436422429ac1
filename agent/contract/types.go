package contract

import "encoding/json"

// ToolResult is the envelope every tool invocation produces. Payload keys are
// flattened next to the envelope fields when encoded.
type ToolResult struct {
	Tool      string
	Success   bool
	Message   string
	ErrorKind ErrorKind
	Payload   map[string]any
}

func (r ToolResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+4)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["tool"] = r.Tool
	out["success"] = r.Success
	out["message"] = r.Message
	if r.ErrorKind != "" {
		out["error_kind"] = string(r.ErrorKind)
	}
	return json.Marshal(out)
}

func (r *ToolResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ToolResult{}
	r.Tool, _ = raw["tool"].(string)
	r.Success, _ = raw["success"].(bool)
	r.Message, _ = raw["message"].(string)
	if kind, ok := raw["error_kind"].(string); ok {
		r.ErrorKind = ErrorKind(kind)
	}

	for _, k := range []string{"tool", "success", "message", "error_kind"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		r.Payload = raw
	}
	return nil
}

func Failure(tool string, err error) ToolResult {
	return ToolResult{
		Tool:      tool,
		Success:   false,
		Message:   err.Error(),
		ErrorKind: KindOf(err),
	}
}
