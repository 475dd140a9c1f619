package diagram

import (
	"fmt"

	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/model"
)

// ArrowMenu offers deleting one dependency.
type ArrowMenu struct {
	Edge     graph.Edge
	FromName string
	ToName   string
	Screen   geom.Point
}

func (m ArrowMenu) Label() string {
	return fmt.Sprintf("Remove dependency: %s → %s", m.FromName, m.ToName)
}

// CanvasMenu offers creating a task at the clicked point.
type CanvasMenu struct {
	Screen  geom.Point
	Diagram geom.Point
}

func (c *Controller) newArrowMenu(e graph.Edge, at geom.Point) *ArrowMenu {
	m := &ArrowMenu{Edge: e, Screen: at, FromName: e.From, ToName: e.To}
	if t, ok := c.doc.Graph.Find(e.From); ok {
		m.FromName = t.Name
	}
	if t, ok := c.doc.Graph.Find(e.To); ok {
		m.ToName = t.Name
	}
	return m
}

func (c *Controller) ArrowMenu() (ArrowMenu, bool) {
	if c.arrowMenu == nil {
		return ArrowMenu{}, false
	}
	return *c.arrowMenu, true
}

func (c *Controller) CanvasMenu() (CanvasMenu, bool) {
	if c.canvasMenu == nil {
		return CanvasMenu{}, false
	}
	return *c.canvasMenu, true
}

func (c *Controller) closeMenus() {
	c.arrowMenu = nil
	c.canvasMenu = nil
}

// CloseMenus dismisses any open context menu (outside click).
func (c *Controller) CloseMenus() { c.closeMenus() }

// DeleteMenuDependency removes the edge named by the open arrow menu. The
// menu is closed whatever the outcome.
func (c *Controller) DeleteMenuDependency() error {
	m := c.arrowMenu
	c.closeMenus()
	if m == nil {
		return nil
	}
	return c.DeleteDependency(m.Edge)
}

// DeleteDependency removes one arrow.
func (c *Controller) DeleteDependency(e graph.Edge) error {
	if err := c.doc.Graph.RemoveDependency(e.To, e.From); err != nil {
		return err
	}
	c.hoveredEdge = nil
	c.commit.Commit()
	return nil
}

// AddTaskAtMenu creates a task at the diagram point the canvas menu was
// opened on. The menu is closed whatever the outcome.
func (c *Controller) AddTaskAtMenu(spec graph.TaskSpec) (model.Task, error) {
	m := c.canvasMenu
	c.closeMenus()
	if m == nil {
		return model.Task{}, fmt.Errorf("no canvas menu open")
	}
	return c.AddTaskAt(spec, m.Diagram)
}

// AddTaskAt creates a task with its node at the given diagram point.
func (c *Controller) AddTaskAt(spec graph.TaskSpec, at geom.Point) (model.Task, error) {
	t, err := c.doc.Graph.AddTask(spec)
	if err != nil {
		return model.Task{}, err
	}
	if c.doc.Positions == nil {
		c.doc.Positions = model.Positions{}
	}
	c.doc.Positions[t.ID] = model.Position(at)
	c.commit.Commit()
	return t, nil
}
