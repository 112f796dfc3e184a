package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrajectorySVG(t *testing.T) {
	frames := [][]float64{
		{0, 0, 0, 1, 0, 0},
		{0, 0, 0, 0.9, -0.4, 0},
		{0, 0, 0, 0.7, -0.7, 0},
	}

	svg := TrajectorySVG(frames, 400, 300)
	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("expected xml header")
	}
	if strings.Count(svg, "<polyline") != 2 {
		t.Errorf("expected 2 polylines, got %d", strings.Count(svg, "<polyline"))
	}
	if strings.Count(svg, "<circle") != 2 {
		t.Errorf("expected 2 markers, got %d", strings.Count(svg, "<circle"))
	}
}

func TestTrajectorySVGEmpty(t *testing.T) {
	if svg := TrajectorySVG(nil, 400, 300); svg != "" {
		t.Error("expected empty string for no frames")
	}
}

func TestWriteTrajectorySVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.svg")
	frames := [][]float64{
		{0, 0, 0},
		{0.5, -0.5, 0},
	}

	if err := WriteTrajectorySVG(path, frames, 200, 200); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "</svg>") {
		t.Error("expected closing svg tag")
	}

	if err := WriteTrajectorySVG(path, nil, 200, 200); err == nil {
		t.Error("expected error for empty frames")
	}
}
