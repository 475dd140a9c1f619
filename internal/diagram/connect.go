package diagram

import (
	"planline/internal/geom"
)

type connectSession struct {
	from   string
	cursor geom.Point
	target string
}

func (s *connectSession) track(c *Controller, at geom.Point) {
	s.cursor = at
	s.target = ""
	if id, ok := c.NodeAt(at); ok && id != s.from {
		s.target = id
	}
}

// PreviewStyle tells the renderer how to stroke the connect preview.
type PreviewStyle int

const (
	// PreviewFree follows the cursor (dashed blue).
	PreviewFree PreviewStyle = iota
	// PreviewSnapped ends on a hovered node's center (solid green).
	PreviewSnapped
)

// Preview is the in-progress connect line in diagram space.
type Preview struct {
	From     geom.Point
	To       geom.Point
	Style    PreviewStyle
	TargetID string
}

// StartConnection enters connect mode from the given node.
func (c *Controller) StartConnection(fromID string) {
	if !c.doc.Graph.Has(fromID) {
		return
	}
	if g := c.active; g != nil {
		c.active = nil
		g.cancel(c)
	}
	c.closeMenus()
	c.connect = &connectSession{from: fromID}
	if pos, ok := c.doc.Positions[fromID]; ok {
		c.connect.cursor = geom.NodeRect(geom.Point(pos)).Center()
	}
}

func (c *Controller) Connecting() (string, bool) {
	if c.connect == nil {
		return "", false
	}
	return c.connect.from, true
}

func (c *Controller) CancelConnection() {
	c.connect = nil
}

// ConnectPreview is the line to draw while connect mode is active.
func (c *Controller) ConnectPreview() (Preview, bool) {
	s := c.connect
	if s == nil {
		return Preview{}, false
	}
	pos, ok := c.doc.Positions[s.from]
	if !ok {
		return Preview{}, false
	}
	p := Preview{
		From:  geom.NodeRect(geom.Point(pos)).Center(),
		To:    s.cursor,
		Style: PreviewFree,
	}
	if s.target != "" {
		if tp, ok := c.doc.Positions[s.target]; ok {
			p.To = geom.NodeRect(geom.Point(tp)).Center()
			p.Style = PreviewSnapped
			p.TargetID = s.target
		}
	}
	return p, true
}

// connectClick commits source -> target when a different node was clicked;
// every click ends connect mode.
func (c *Controller) connectClick(nodeID string, onNode bool) {
	from := c.connect.from
	c.connect = nil
	if !onNode || nodeID == from {
		return
	}
	c.AddDependency(from, nodeID)
}

// AddDependency makes toID blocked by fromID. A cycle (or any other
// rejection) is reported through the notifier and nothing changes.
func (c *Controller) AddDependency(fromID, toID string) bool {
	if fromID == toID {
		return false
	}
	if err := c.doc.Graph.AddDependency(toID, fromID); err != nil {
		c.notify.Notify(err)
		return false
	}
	c.commit.Commit()
	// Nodes created for the dependency later are anchored on the source.
	c.anchor = fromID
	return true
}

// Anchor is the node most recently used as a connect source. Placement of new
// nodes offsets from it.
func (c *Controller) Anchor() string { return c.anchor }
