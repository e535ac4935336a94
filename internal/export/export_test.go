package export

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cellscan/internal/predict"
)

func TestSave_NeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	write := func(body string) func(io.Writer) (int64, error) {
		return func(w io.Writer) (int64, error) {
			n, err := io.WriteString(w, body)
			return int64(n), err
		}
	}

	first, n, err := Save(dir, DownloadName, write("one"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(first) != "results.csv" || n != 3 {
		t.Fatalf("unexpected first save: %s %d", first, n)
	}
	second, _, err := Save(dir, DownloadName, write("two"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(second) != "results-1.csv" {
		t.Fatalf("unexpected second name: %s", second)
	}
	data, _ := os.ReadFile(first)
	if string(data) != "one" {
		t.Fatalf("first file overwritten: %q", data)
	}
}

func TestSave_RemovesPartial(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("connection reset")
	_, _, err := Save(dir, DownloadName, func(w io.Writer) (int64, error) {
		_, _ = io.WriteString(w, "partial")
		return 7, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fill error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DownloadName)); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []predict.Result{
		{Filename: "a.png", Label: predict.Parasitized, Confidence: 91.25},
		{Filename: "b,c.png", Label: predict.Uninfected, Confidence: 77},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Filename,Prediction,Confidence\na.png,Parasitized,91.25\n\"b,c.png\",Uninfected,77\n"
	if got := buf.String(); got != want {
		t.Fatalf("csv mismatch:\n%s", strings.ReplaceAll(got, "\n", "\\n\n"))
	}
}
