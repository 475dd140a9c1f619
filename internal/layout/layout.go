// Package layout computes node positions for the dependency diagram.
package layout

import (
	"math"

	"planline/internal/geom"
	"planline/internal/graph"
	"planline/internal/model"
)

const (
	anchorOffsetX = 60.0
	anchorOffsetY = 120.0
	gridGap       = 40.0
)

// Columns is the number of grid columns used for anchorless placement.
func Columns(canvasWidth float64) int {
	cols := int(math.Floor((canvasWidth - 2*geom.Padding) / (geom.NodeWidth + gridGap)))
	if cols < 1 {
		return 1
	}
	return cols
}

// PlaceNewNodes returns a copy of positions with an entry for every task that
// lacked one. A task keeps its sequence index as its grid slot, so positioned
// tasks leave holes in the grid. When anchorID has a position, new nodes are
// offset diagonally from it instead, flipping direction at the canvas edge.
func PlaceNewNodes(positions model.Positions, tasks []model.Task, anchorID string, canvas geom.Size) (model.Positions, bool) {
	out := positions.Clone()
	cols := Columns(canvas.W)
	anchor, hasAnchor := positions[anchorID]
	if anchorID == "" {
		hasAnchor = false
	}
	changed := false
	for i, t := range tasks {
		if _, ok := out[t.ID]; ok {
			continue
		}
		var p model.Position
		if hasAnchor {
			p = model.Position{X: anchor.X + anchorOffsetX, Y: anchor.Y + anchorOffsetY}
			if p.X+geom.NodeWidth > canvas.W-geom.Padding {
				p.X = anchor.X - anchorOffsetX
			}
			if p.Y+geom.NodeHeight > canvas.H-geom.Padding {
				p.Y = anchor.Y - anchorOffsetY
			}
		} else {
			p = gridSlot(i, cols)
		}
		out[t.ID] = p
		changed = true
	}
	return out, changed
}

func gridSlot(i, cols int) model.Position {
	col := i % cols
	row := i / cols
	return model.Position{
		X: geom.Padding + float64(col)*(geom.NodeWidth+gridGap),
		Y: geom.Padding + float64(row)*(geom.NodeHeight+gridGap),
	}
}

// NextGridSlot is where the next added task goes when it has no explicit
// position: slot index = number of positioned nodes.
func NextGridSlot(positions model.Positions, canvasWidth float64) model.Position {
	return gridSlot(len(positions), Columns(canvasWidth))
}

// Levels assigns each task its longest-path depth from a root (a task with no
// existing blockers). Levels only ever rise; tasks never reached from a root
// stay at 0.
func Levels(tasks []model.Task) map[string]int {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	dependents := make(map[string][]string, len(tasks))
	var roots []string
	for _, t := range tasks {
		live := 0
		for _, dep := range t.BlockedBy {
			if known[dep] && dep != t.ID {
				dependents[dep] = append(dependents[dep], t.ID)
				live++
			}
		}
		if live == 0 {
			roots = append(roots, t.ID)
		}
	}

	levels := make(map[string]int, len(tasks))
	type frame struct {
		id    string
		depth int
		next  int
	}
	steps := 0
	for _, root := range roots {
		levels[root] = 0
		onPath := map[string]bool{root: true}
		stack := []frame{{id: root, depth: 0}}
		for len(stack) > 0 && steps < graph.MaxWalkSteps {
			steps++
			top := &stack[len(stack)-1]
			kids := dependents[top.id]
			if top.next >= len(kids) {
				delete(onPath, top.id)
				stack = stack[:len(stack)-1]
				continue
			}
			child := kids[top.next]
			top.next++
			depth := top.depth + 1
			if onPath[child] {
				continue
			}
			if cur, ok := levels[child]; ok && cur >= depth {
				continue
			}
			levels[child] = depth
			onPath[child] = true
			stack = append(stack, frame{id: child, depth: depth})
		}
	}
	for _, t := range tasks {
		if _, ok := levels[t.ID]; !ok {
			levels[t.ID] = 0
		}
	}
	return levels
}

// AutoArrange lays tasks out in rows by level, each row centered within the
// canvas width. Row order follows the task sequence.
func AutoArrange(tasks []model.Task, canvasWidth float64) model.Positions {
	levels := Levels(tasks)
	maxLevel := 0
	for _, l := range levels {
		if l > maxLevel {
			maxLevel = l
		}
	}
	rows := make([][]string, maxLevel+1)
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		l := levels[t.ID]
		rows[l] = append(rows[l], t.ID)
	}

	out := make(model.Positions, len(tasks))
	for level, row := range rows {
		n := float64(len(row))
		if n == 0 {
			continue
		}
		total := n*geom.NodeWidth + (n-1)*geom.HorizontalSpacing
		startX := math.Max(geom.DiagramPadding, (canvasWidth-total)/2)
		for i, id := range row {
			out[id] = model.Position{
				X: startX + float64(i)*(geom.NodeWidth+geom.HorizontalSpacing),
				Y: geom.DiagramPadding + float64(level)*(geom.NodeHeight+geom.VerticalSpacing),
			}
		}
	}
	return out
}
