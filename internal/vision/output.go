package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mj1618/focusorder/internal/protocol"
)

// ParseOutput decodes a model reply. Markdown fences and prose around the
// JSON object are tolerated; anything else is ErrInvalidJSON.
func ParseOutput(text string) (protocol.ModelOutput, error) {
	body := strings.TrimSpace(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return protocol.ModelOutput{}, fmt.Errorf("%w: no JSON object in reply", ErrInvalidJSON)
	}
	var out protocol.ModelOutput
	if err := json.Unmarshal([]byte(body[start:end+1]), &out); err != nil {
		return protocol.ModelOutput{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if out.Annotations == nil {
		return protocol.ModelOutput{}, fmt.Errorf("%w: missing annotations", ErrInvalidJSON)
	}
	return out, nil
}
