// Package export writes prediction results to disk.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cellscan/internal/predict"
)

// DownloadName is the file name used for the server's results CSV.
const DownloadName = "results.csv"

// Header matches the columns the prediction service writes.
var Header = []string{"Filename", "Prediction", "Confidence"}

// Create makes dir if needed and creates name inside it. An existing file is
// never overwritten: "results.csv" becomes "results-1.csv" and so on.
func Create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dest := nextAvailable(filepath.Join(dir, name))
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // configured download dir
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Save streams fill into a new file in dir. A partial file is removed on error.
func Save(dir, name string, fill func(io.Writer) (int64, error)) (string, int64, error) {
	f, err := Create(dir, name)
	if err != nil {
		return "", 0, err
	}
	dest := f.Name()
	n, err := fill(f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", 0, err
	}
	return dest, n, nil
}

// WriteCSV writes results with the service's CSV header.
func WriteCSV(w io.Writer, results []predict.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{r.Filename, string(r.Label), strconv.FormatFloat(r.Confidence, 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func nextAvailable(p string) string {
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return p
	}
	dir := filepath.Dir(p)
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	for i := 1; i < 10000; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i, ext))
		if _, err := os.Stat(cand); errors.Is(err, fs.ErrNotExist) {
			return cand
		}
	}
	return p
}
