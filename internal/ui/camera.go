package ui

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Camera owns the timeline viewport: horizontal zoom plus pan offsets.
// Zoom only stretches the time axis; rows keep their configured height.
type Camera struct {
	Zoom    float64 // time-axis scale factor
	OffsetX float64 // screen px of timeline second 0
	OffsetY float64 // screen px of the first row's top edge, below the ruler
}

func NewCamera() *Camera { return &Camera{Zoom: 1.0} }

// HandleMouse mutates Zoom / Offset from Ebiten's mouse state. Wheel zooms
// the time axis around the cursor; middle-button dragging pans. When
// allowPan is false (a gesture owns the pointer) both are ignored.
func (c *Camera) HandleMouse(allowPan bool) bool {
	panning := false
	if allowPan {
		if _, wheelY := wheel(); wheelY != 0 {
			mx, _ := cursorPosition()
			// Keep the second under the cursor stationary while zooming.
			sec := (float64(mx) - c.OffsetX) / c.Zoom
			const (
				zoomFactor      = 1.05
				zoomSensitivity = 0.1
			)
			newZoom := c.Zoom * math.Pow(zoomFactor, wheelY*zoomSensitivity)
			const minZoom, maxZoom = 0.05, 40.0
			if newZoom < minZoom {
				newZoom = minZoom
			} else if newZoom > maxZoom {
				newZoom = maxZoom
			}
			c.OffsetX = float64(mx) - sec*newZoom
			c.Zoom = newZoom
		}
		if isMouseButtonPressed(ebiten.MouseButtonMiddle) {
			x, y := cursorPosition()
			if last, ok := prevMousePos(); ok {
				if x != last.x || y != last.y {
					c.OffsetX += float64(x - last.x)
					c.OffsetY += float64(y - last.y)
					panning = true
				}
			}
			markMousePos(x, y)
		} else {
			clearMousePos()
		}
	} else {
		clearMousePos()
	}
	c.Snap()
	return panning
}

// Snap clamps the offsets to integer pixels and limits their magnitude so
// panning across huge distances doesn't accumulate floating-point error.
func (c *Camera) Snap() {
	c.OffsetX = math.Round(c.OffsetX)
	c.OffsetY = math.Round(c.OffsetY)
	const limit = 1e6
	if c.OffsetX > limit {
		c.OffsetX = limit
	} else if c.OffsetX < -limit {
		c.OffsetX = -limit
	}
	if c.OffsetY > limit {
		c.OffsetY = limit
	} else if c.OffsetY < -limit {
		c.OffsetY = -limit
	}
	if c.OffsetY > 0 {
		c.OffsetY = 0 // the first row never scrolls below the ruler
	}
}

/* ─── internal helpers ─── */

type mousePos struct{ x, y int }

var lastMouse *mousePos

func prevMousePos() (mousePos, bool) {
	if lastMouse == nil {
		return mousePos{}, false
	}
	return *lastMouse, true
}
func markMousePos(x, y int) { p := mousePos{x, y}; lastMouse = &p }
func clearMousePos()        { lastMouse = nil }
