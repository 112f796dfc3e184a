package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rigidsim/internal/scenario"
)

type ExportData struct {
	Scenario string             `json:"scenario"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	Frames   [][]float64        `json:"frames"`
	Metrics  map[string]float64 `json:"metrics"`
}

func buildExportData(scenarioName string, dt, duration float64, result *scenario.Result) ExportData {
	data := ExportData{
		Scenario: scenarioName,
		Dt:       dt,
		Duration: duration,
		Steps:    result.StepsTaken,
		Times:    result.Times,
		Frames:   make([][]float64, len(result.Frames)),
		Metrics:  result.Metrics,
	}
	for i, frame := range result.Frames {
		flat := make([]float64, 0, 3*len(frame))
		for _, p := range frame {
			flat = append(flat, p.X(), p.Y(), p.Z())
		}
		data.Frames[i] = flat
	}
	return data
}

func ExportJSON(path string, scenarioName string, dt, duration float64, result *scenario.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeExportData(file, buildExportData(scenarioName, dt, duration, result))
}

func ExportJSONStdout(scenarioName string, dt, duration float64, result *scenario.Result) error {
	return writeExportData(os.Stdout, buildExportData(scenarioName, dt, duration, result))
}

func writeExportData(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
