package model

import (
	"regexp"
	"strings"
	"unicode"
)

// Role is the inferred semantic role of a node.
type Role string

const (
	RoleButton     Role = "button"
	RoleLink       Role = "link"
	RoleTextbox    Role = "textbox"
	RoleTab        Role = "tab"
	RoleCheckbox   Role = "checkbox"
	RoleSwitch     Role = "switch"
	RoleSlider     Role = "slider"
	RoleNavigation Role = "navigation"
	RoleLandmark   Role = "landmark"
	RoleHeader     Role = "header"
	RoleImage      Role = "image"
	RoleText       Role = "text"
	RoleNone       Role = "none"
)

// roleKeyword maps a name token to a role. Exact keywords only match whole
// tokens (plus a plural "s"); the rest also match as a token prefix.
type roleKeyword struct {
	word  string
	role  Role
	exact bool
}

// roleKeywords is checked in order; the first hit wins.
var roleKeywords = []roleKeyword{
	{word: "button", role: RoleButton},
	{word: "btn", role: RoleButton},
	{word: "cta", role: RoleButton, exact: true},
	{word: "submit", role: RoleButton},
	{word: "input", role: RoleTextbox},
	{word: "field", role: RoleTextbox},
	{word: "search", role: RoleTextbox},
	{word: "textfield", role: RoleTextbox},
	{word: "textarea", role: RoleTextbox},
	{word: "checkbox", role: RoleCheckbox},
	{word: "toggle", role: RoleSwitch},
	{word: "switch", role: RoleSwitch},
	{word: "slider", role: RoleSlider},
	{word: "link", role: RoleLink, exact: true},
	{word: "back", role: RoleLink, exact: true},
	{word: "tab", role: RoleTab, exact: true},
	{word: "tabbar", role: RoleTab},
	{word: "segment", role: RoleTab},
	{word: "nav", role: RoleNavigation},
	{word: "menu", role: RoleNavigation},
	{word: "header", role: RoleLandmark},
	{word: "hero", role: RoleLandmark, exact: true},
}

// focusRoles are the roles that make a node a focus stop.
var focusRoles = map[Role]bool{
	RoleButton:   true,
	RoleLink:     true,
	RoleTextbox:  true,
	RoleTab:      true,
	RoleCheckbox: true,
	RoleSwitch:   true,
	RoleSlider:   true,
}

// knownRoles lists every role accepted from tags and from the model.
var knownRoles = map[Role]bool{
	RoleButton: true, RoleLink: true, RoleTextbox: true, RoleTab: true,
	RoleCheckbox: true, RoleSwitch: true, RoleSlider: true,
	RoleNavigation: true, RoleLandmark: true, RoleHeader: true,
	RoleImage: true, RoleText: true, RoleNone: true,
}

// roleAliases normalizes common synonyms seen in tags and model output.
var roleAliases = map[string]Role{
	"btn":       RoleButton,
	"input":     RoleTextbox,
	"textfield": RoleTextbox,
	"searchbox": RoleTextbox,
	"combobox":  RoleTextbox,
	"lnk":       RoleLink,
	"chk":       RoleCheckbox,
	"toggle":    RoleSwitch,
	"nav":       RoleNavigation,
	"banner":    RoleLandmark,
	"main":      RoleLandmark,
	"heading":   RoleHeader,
	"img":       RoleImage,
	"txt":       RoleText,
}

// IsFocusRole reports whether r is an interactive role.
func IsFocusRole(r Role) bool {
	return focusRoles[r]
}

// ParseRole converts a free-form role string to a known Role. Unknown values
// return ("", false).
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if r := Role(s); knownRoles[r] {
		return r, true
	}
	if r, ok := roleAliases[s]; ok {
		return r, true
	}
	return "", false
}

// camelBoundary splits "searchField" into "search Field".
var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// NameTokens lowercases a layer name and splits it on separators and camel
// case boundaries.
func NameTokens(name string) []string {
	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// RoleFromName infers a role from keyword matches in a layer name. Names
// with no keyword return RoleNone.
func RoleFromName(name string) Role {
	tokens := NameTokens(name)
	for _, kw := range roleKeywords {
		for _, tok := range tokens {
			if tok == kw.word || tok == kw.word+"s" {
				return kw.role
			}
			if !kw.exact && strings.HasPrefix(tok, kw.word) {
				return kw.role
			}
		}
	}
	return RoleNone
}

// genericName matches auto-generated layer names such as "Frame 24",
// "Group", "Rectangle 3" or "Property 1=Default".
var genericName = regexp.MustCompile(`(?i)^\s*(frame|group|rectangle|rect|instance|component|vector|ellipse|layer|container|auto ?layout|div|view|node|shape|property \d+=\w+)?\s*\d*\s*$`)

// IsGenericName reports whether a layer name carries no semantic signal.
func IsGenericName(name string) bool {
	return genericName.MatchString(name)
}
