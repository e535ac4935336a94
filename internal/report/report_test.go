package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cellscan/internal/predict"
)

func sampleRun() *Run {
	return NewRun("http://lab.local:5000", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), []predict.Result{
		{Filename: "a.png", Label: predict.Parasitized, Confidence: 91},
		{Filename: "b.png", Label: predict.Uninfected, Confidence: 77},
	})
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleRun(), 30); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"images: 2", "a.png", "91.00%", "Parasitized: 1  Uninfected: 1", "Cell appears healthy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRun()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var decoded struct {
		Server   string           `json:"server"`
		Results  []predict.Result `json:"results"`
		Counts   predict.Counts   `json:"counts"`
		Duration string           `json:"duration"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if decoded.Counts.Parasitized != 1 || len(decoded.Results) != 2 || decoded.Duration == "" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleRun()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"# Malaria Cell Detection Report", "```mermaid", "pie", "Explanation", "a.png", "[!WARNING]"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestWriteMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, NewRun("http://lab.local", time.Now(), nil)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "mermaid") {
		t.Error("empty run should not draw a chart")
	}
	if !strings.Contains(out, "No images were processed.") {
		t.Errorf("missing note:\n%s", out)
	}
}
