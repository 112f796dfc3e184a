package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/scenario"
)

func testResult() *scenario.Result {
	return &scenario.Result{
		Times: []float64{0.0, 0.01},
		Frames: []scenario.Frame{
			{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}},
			{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.99, -0.01, 0}},
		},
		Metrics: map[string]float64{
			"kinetic_energy": 1.5,
		},
		StepsTaken: 1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Seed = 42

	runID, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Scenario != "pendulum_chain" {
		t.Errorf("expected scenario pendulum_chain, got %s", meta.Scenario)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Bodies != 2 {
		t.Errorf("expected 2 bodies, got %d", meta.Bodies)
	}
	if meta.Metrics["kinetic_energy"] != 1.5 {
		t.Errorf("expected kinetic_energy 1.5, got %f", meta.Metrics["kinetic_energy"])
	}

	frames, times, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(frames))
	}
	if len(times) != 2 {
		t.Errorf("expected 2 times, got %d", len(times))
	}
	if len(frames[0]) != 6 {
		t.Errorf("expected 6 columns per frame, got %d", len(frames[0]))
	}
	if frames[0][3] != 1.0 {
		t.Errorf("expected second body x 1.0, got %f", frames[0][3])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(config.DefaultConfig(), testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "frames.csv")); os.IsNotExist(err) {
		t.Error("frames.csv not created")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	if err := ExportJSON(path, "pendulum_chain", 0.01, 1.0, testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var data ExportData
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if data.Scenario != "pendulum_chain" {
		t.Errorf("expected scenario pendulum_chain, got %s", data.Scenario)
	}
	if len(data.Frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(data.Frames))
	}
	if len(data.Frames[0]) != 6 {
		t.Errorf("expected 6 values per frame, got %d", len(data.Frames[0]))
	}
}
