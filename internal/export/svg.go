// Package export renders recorded runs as standalone SVG files.
package export

import (
	"fmt"
	"math"
	"os"
	"strings"
)

var palette = []string{"#00ff88", "#00ccff", "#ff00ff", "#ffaa00", "#ff4444", "#88ff00"}

// TrajectorySVG draws the x/y path of every body across the recorded
// frames as one polyline per body. Frames are flattened rows of x,y,z
// per body, as returned by the store.
func TrajectorySVG(frames [][]float64, width, height float64) string {
	if len(frames) == 0 || len(frames[0]) < 3 {
		return ""
	}
	bodies := len(frames[0]) / 3

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, f := range frames {
		for b := 0; b < bodies; b++ {
			x, y := f[b*3], f[b*3+1]
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	margin := 20.0
	sx := (width - 2*margin) / spanX
	sy := (height - 2*margin) / spanY
	scale := math.Min(sx, sy)

	project := func(x, y float64) (float64, float64) {
		return margin + (x-minX)*scale, height - margin - (y-minY)*scale
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for b := 0; b < bodies; b++ {
		color := palette[b%len(palette)]
		sb.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="1.5" points="`, color))
		for i, f := range frames {
			px, py := project(f[b*3], f[b*3+1])
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(fmt.Sprintf("%.2f,%.2f", px, py))
		}
		sb.WriteString("\"/>\n")

		last := frames[len(frames)-1]
		px, py := project(last[b*3], last[b*3+1])
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="3" fill="%s"/>`+"\n", px, py, color))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteTrajectorySVG renders the frames and writes the SVG to path.
func WriteTrajectorySVG(path string, frames [][]float64, width, height float64) error {
	svg := TrajectorySVG(frames, width, height)
	if svg == "" {
		return fmt.Errorf("no frames to render")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
