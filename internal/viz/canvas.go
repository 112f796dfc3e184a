package viz

import (
	"math"
	"strings"
)

// Braille patterns: 2x4 dots per cell, unicode offset 0x2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel canvas with a world-space viewport. World
// coordinates map through the center and scale, with y up on screen.
type Canvas struct {
	Width, Height    int
	CenterX, CenterY float64
	Scale            float64
	grid             [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Scale:  10,
		grid:   make([][]rune, h),
	}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights a pixel in sub-pixel coordinates. The canvas resolution is
// (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) project(wx, wy float64) (int, int) {
	px := (wx-c.CenterX)*c.Scale + float64(c.Width)
	py := float64(c.Height*2) - (wy-c.CenterY)*c.Scale
	return int(math.Round(px)), int(math.Round(py))
}

// Mark draws a small cross at a world-space point.
func (c *Canvas) Mark(wx, wy float64) {
	x, y := c.project(wx, wy)
	c.Set(x, y)
	c.Set(x-1, y)
	c.Set(x+1, y)
	c.Set(x, y-1)
	c.Set(x, y+1)
}

// Link draws a straight segment between two world-space points with
// Bresenham stepping.
func (c *Canvas) Link(wx0, wy0, wx1, wy1 float64) {
	x0, y0 := c.project(wx0, wy0)
	x1, y1 := c.project(wx1, wy1)

	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
