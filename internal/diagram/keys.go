package diagram

import "planline/internal/model"

type Key string

const (
	KeyUp     Key = "ArrowUp"
	KeyDown   Key = "ArrowDown"
	KeyLeft   Key = "ArrowLeft"
	KeyRight  Key = "ArrowRight"
	KeyEscape Key = "Escape"
)

func (k Key) isArrow() bool {
	switch k {
	case KeyUp, KeyDown, KeyLeft, KeyRight:
		return true
	}
	return false
}

// KeyDown handles a key press (including auto-repeat). Arrow keys nudge the
// focused node together with its direct blockers and dependents. It reports
// whether the key was consumed.
func (c *Controller) KeyDown(k Key, mods Modifiers) bool {
	if k == KeyEscape {
		c.Escape()
		return true
	}
	if !k.isArrow() || c.selected == "" {
		return false
	}
	if _, ok := c.doc.Positions[c.selected]; !ok {
		return false
	}
	if !c.doc.Graph.Has(c.selected) {
		return false
	}
	step := nudgeStep
	if mods.Shift {
		step = nudgeStepLarge
	}
	var dx, dy float64
	switch k {
	case KeyUp:
		dy = -step
	case KeyDown:
		dy = step
	case KeyLeft:
		dx = -step
	case KeyRight:
		dx = step
	}
	ids := append([]string{c.selected}, c.doc.Graph.Neighbors(c.selected)...)
	for _, id := range ids {
		if p, ok := c.doc.Positions[id]; ok {
			c.doc.Positions[id] = model.Position{X: p.X + dx, Y: p.Y + dy}
		}
	}
	c.nudging = true
	return true
}

// KeyUp commits a nudge once the arrow key is released.
func (c *Controller) KeyUp(k Key) bool {
	if !k.isArrow() || !c.nudging {
		return false
	}
	c.nudging = false
	c.commit.Commit()
	return true
}
