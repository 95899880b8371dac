package serialize

import "github.com/mj1618/focusorder/internal/model"

// Shape bands for nodes whose names say nothing. A wide, shallow box is
// probably a text input; a compact one is probably a button.
const (
	inputMinHeight  = 28
	inputMaxHeight  = 72
	inputMinAspect  = 3.5
	buttonMinHeight = 20
	buttonMaxHeight = 64
	buttonMaxWidth  = 320
)

// inferShape guesses a role from geometry. It returns nil when neither the
// shape nor the text gives anything to go on.
func inferShape(g model.Geometry, text string) *model.InferenceHint {
	role := model.RoleNone
	switch {
	case g.Height >= inputMinHeight && g.Height <= inputMaxHeight && g.Width/g.Height >= inputMinAspect:
		role = model.RoleTextbox
	case g.Height >= buttonMinHeight && g.Height <= buttonMaxHeight && g.Width > 0 && g.Width <= buttonMaxWidth:
		role = model.RoleButton
	}
	if role == model.RoleNone && text == "" {
		return nil
	}
	return &model.InferenceHint{Role: role, Text: text}
}
