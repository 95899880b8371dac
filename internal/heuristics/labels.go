package heuristics

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/mj1618/focusorder/internal/model"
)

// roleWords are dropped from layer names when building a label: the role is
// reported separately.
var roleWords = map[string]bool{
	"button": true, "btn": true, "cta": true,
	"input": true, "field": true, "textfield": true,
	"link": true, "tab": true, "icon": true,
	"instance": true, "component": true, "default": true,
}

// Label returns the display label for a candidate. Visible text wins, then
// hint text, then a cleaned layer name, then "<Type> (Row N)" for a node in a
// numbered row, then "<Type> <shortId>".
func Label(n model.NodeSnapshot) string {
	if t := strings.TrimSpace(n.Text); t != "" {
		return collapseSpace(t)
	}
	if n.Hint != nil {
		if t := strings.TrimSpace(n.Hint.Text); t != "" {
			return collapseSpace(t)
		}
	}
	if !model.IsGenericName(n.Name) {
		if name := CleanName(n.Name); name != "" {
			return name
		}
	}
	if m := rowName.FindStringSubmatch(n.ParentName); m != nil {
		return fmt.Sprintf("%s (Row %s)", typeWord(n), m[1])
	}
	return fmt.Sprintf("%s %s", typeWord(n), shortID(n.ID))
}

// CleanName turns a layer name like "Button/Primary_submit" into "Primary
// Submit". Role words and variant properties ("State=Hover") are dropped;
// when nothing else is left the title-cased role word is kept.
func CleanName(name string) string {
	var kept, all []string
	for _, seg := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == ',' }) {
		if strings.Contains(seg, "=") {
			continue
		}
		for _, tok := range model.NameTokens(seg) {
			all = append(all, tok)
			if !roleWords[tok] {
				kept = append(kept, tok)
			}
		}
	}
	if len(kept) == 0 {
		kept = all
	}
	for i, tok := range kept {
		kept[i] = titleWord(tok)
	}
	return strings.Join(kept, " ")
}

func typeWord(n model.NodeSnapshot) string {
	if model.IsFocusRole(n.Role) {
		return titleWord(string(n.Role))
	}
	if n.Hint != nil && model.IsFocusRole(n.Hint.Role) {
		return titleWord(string(n.Hint.Role))
	}
	if n.Type != "" {
		return titleWord(n.Type)
	}
	return "Element"
}

func titleWord(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// shortID keeps the last four alphanumeric characters of a node id.
func shortID(id string) string {
	var alnum []rune
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum = append(alnum, r)
		}
	}
	if len(alnum) > 4 {
		alnum = alnum[len(alnum)-4:]
	}
	if len(alnum) == 0 {
		return "?"
	}
	return string(alnum)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// rowName pulls "Row 2" out of parent names like "Set Row 2".
var rowName = regexp.MustCompile(`(?i)\brow\s*(\d+)\b`)

func parentSuffix(parentName string) string {
	if m := rowName.FindStringSubmatch(parentName); m != nil {
		return "Row " + m[1]
	}
	return strings.TrimSpace(parentName)
}

// Disambiguate makes duplicate labels unique. Duplicates first get their
// parent name appended ("Weight (Row 1)") unless the label already ends with
// it; anything still duplicated gets an ordinal ("Weight 2").
func Disambiguate(items []model.FocusItem, nodes map[string]model.NodeSnapshot) []model.FocusItem {
	out := make([]model.FocusItem, len(items))
	copy(out, items)

	for _, idxs := range duplicateGroups(out) {
		for _, i := range idxs {
			suffix := parentSuffix(nodes[out[i].ID].ParentName)
			if suffix == "" || strings.HasSuffix(out[i].Label, "("+suffix+")") {
				continue
			}
			out[i].Label = fmt.Sprintf("%s (%s)", out[i].Label, suffix)
		}
	}
	for _, idxs := range duplicateGroups(out) {
		for n, i := range idxs[1:] {
			out[i].Label = fmt.Sprintf("%s %d", out[i].Label, n+2)
		}
	}
	return out
}

// duplicateGroups returns the indexes of items sharing a label, in item
// order, for every label used more than once.
func duplicateGroups(items []model.FocusItem) [][]int {
	byLabel := make(map[string][]int)
	var labels []string
	for i, it := range items {
		if _, ok := byLabel[it.Label]; !ok {
			labels = append(labels, it.Label)
		}
		byLabel[it.Label] = append(byLabel[it.Label], i)
	}
	var groups [][]int
	for _, l := range labels {
		if len(byLabel[l]) > 1 {
			groups = append(groups, byLabel[l])
		}
	}
	return groups
}
