package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mj1618/focusorder/internal/model"
	"github.com/mj1618/focusorder/internal/store"
)

// parseAssignments splits repeated id=value flags. Ids may contain '=' only
// if the value does not; the last '=' separates them.
func parseAssignments(flag string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, "=")
		if i <= 0 {
			return nil, fmt.Errorf("--%s %q: expected id=value", flag, v)
		}
		out[strings.TrimSpace(v[:i])] = v[i+1:]
	}
	return out, nil
}

func parseMoves(values []string) (map[string]int, error) {
	raw, err := parseAssignments("move", values)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for id, v := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("--move %s=%s: position must be a number", id, v)
		}
		out[id] = n
	}
	return out, nil
}

func parseRoles(values []string) (map[string]model.Role, error) {
	raw, err := parseAssignments("role", values)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Role, len(raw))
	for id, v := range raw {
		r, ok := model.ParseRole(v)
		if !ok {
			return nil, fmt.Errorf("--role %s=%s: unknown role", id, v)
		}
		out[id] = r
	}
	return out, nil
}

// readSequence loads a saved sequence file. A bare JSON array of items is
// accepted too.
func readSequence(path string) (model.FocusSequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FocusSequence{}, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []model.FocusItem
		if err := json.Unmarshal(data, &items); err != nil {
			return model.FocusSequence{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return model.FocusSequence{Items: items}, nil
	}
	var seq model.FocusSequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return model.FocusSequence{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return seq, nil
}

// openStore opens the SQLite store at path, falling back to the configured
// path. It returns nil when neither is set.
func openStore(path string) (*store.SQLite, error) {
	if path == "" {
		path = cfg.StorePath
	}
	if path == "" {
		return nil, nil
	}
	return store.OpenSQLite(path)
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
