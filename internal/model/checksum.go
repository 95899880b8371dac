package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// NormalizedNode holds only the structural fields of a snapshot. Ids and
// geometry are left out so that moving a layer or re-allocating host ids
// does not change the checksum.
type NormalizedNode struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Visible   bool             `json:"visible"`
	Role      Role             `json:"role"`
	Focusable bool             `json:"focusable"`
	Text      string           `json:"text,omitempty"`
	Children  []NormalizedNode `json:"children"`
}

// Normalize strips a snapshot down to its structural fields.
func Normalize(n NodeSnapshot) NormalizedNode {
	out := NormalizedNode{
		Name:      n.Name,
		Type:      n.Type,
		Visible:   n.Visible,
		Role:      n.Role,
		Focusable: n.Focusable,
		Text:      n.Text,
		Children:  make([]NormalizedNode, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, Normalize(c))
	}
	return out
}

// Checksum hashes the normalized form of one or more trees. The JSON is
// canonicalized (RFC 8785) before hashing so encoder details never leak into
// the key.
func Checksum(roots ...NodeSnapshot) (string, error) {
	normalized := make([]NormalizedNode, 0, len(roots))
	for _, r := range roots {
		normalized = append(normalized, Normalize(r))
	}
	return canonicalHash(normalized)
}

// orderEntry is the hashed form of a focus item. Position and source are
// excluded: they do not change what the user sees in the list.
type orderEntry struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// OrderChecksum hashes a returned focus order. Callers use it to skip
// re-rendering when a response carries the same order as the last one.
func OrderChecksum(items []FocusItem) (string, error) {
	entries := make([]orderEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, orderEntry{ID: it.ID, Role: it.Role, Label: it.Label, Order: it.Order})
	}
	return canonicalHash(entries)
}

func canonicalHash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for checksum: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize for checksum: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
