package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeImage(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestPredict_UploadsRepeatedField(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", "aaa")
	b := writeImage(t, dir, "b.png", "bbbb")

	var gotNames []string
	var gotBodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PredictPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		for _, fh := range r.MultipartForm.File[FieldName] {
			gotNames = append(gotNames, fh.Filename)
			f, _ := fh.Open()
			data, _ := io.ReadAll(f)
			f.Close()
			gotBodies = append(gotBodies, string(data))
		}
		_ = json.NewEncoder(w).Encode([]Result{
			{Filename: "a.png", Label: Parasitized, Confidence: 91},
			{Filename: "b.png", Label: Uninfected, Confidence: 77},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	results, err := c.Predict(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if strings.Join(gotNames, ",") != "a.png,b.png" {
		t.Fatalf("uploaded names = %v", gotNames)
	}
	if strings.Join(gotBodies, ",") != "aaa,bbbb" {
		t.Fatalf("uploaded bodies = %v", gotBodies)
	}
	if len(results) != 2 || results[0].Label != Parasitized || results[1].Confidence != 77 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestPredict_NoFiles(t *testing.T) {
	c, _ := NewClient("http://127.0.0.1:1")
	if _, err := c.Predict(context.Background(), nil); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
}

func TestPredict_Non2xx(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", "x")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.Predict(context.Background(), []string{a})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPredict_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", "x")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"filename": "a.png",`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.Predict(context.Background(), []string{a}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPredict_NullBody(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", "x")
	for _, body := range []string{"null", `{"filename": "a.png"}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		c, _ := NewClient(srv.URL)
		results, err := c.Predict(context.Background(), []string{a})
		srv.Close()
		if err == nil {
			t.Fatalf("%s: expected an error, got %v", body, results)
		}
		if body == "null" && !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("null: unexpected error %v", err)
		}
	}
}

func TestPredict_EmptyArray(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", "x")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	results, err := c.Predict(context.Background(), []string{a})
	if err != nil || results == nil || len(results) != 0 {
		t.Fatalf("results = %v, err = %v", results, err)
	}
}

func TestPredict_ContextTimeout(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", "x")
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Predict(ctx, []string{a})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPredict_MissingFile(t *testing.T) {
	c, _ := NewClient("http://127.0.0.1:1")
	_, err := c.Predict(context.Background(), []string{filepath.Join(t.TempDir(), "gone.png")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lab"+DownloadPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("Filename,Prediction,Confidence\na.png,Parasitized,91\n"))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL + "/lab/")
	var buf bytes.Buffer
	n, err := c.Download(context.Background(), &buf)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if n != int64(buf.Len()) || !strings.HasPrefix(buf.String(), "Filename,") {
		t.Fatalf("unexpected body (%d): %q", n, buf.String())
	}
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.Download(context.Background(), io.Discard); !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNewClient_RejectsScheme(t *testing.T) {
	if _, err := NewClient("ftp://lab.local"); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
}

func TestTally(t *testing.T) {
	results := []Result{
		{Filename: "a.png", Label: Parasitized, Confidence: 91},
		{Filename: "b.png", Label: Uninfected, Confidence: 77},
		{Filename: "c.png", Label: "Unknown", Confidence: 50},
	}
	got := Tally(results)
	if got.Parasitized != 1 || got.Uninfected != 2 || got.Total() != 3 {
		t.Fatalf("unexpected counts: %+v", got)
	}
}

func TestResult_Fraction(t *testing.T) {
	cases := []struct {
		conf float64
		want float64
	}{
		{91, 0.91},
		{-5, 0},
		{250, 1},
	}
	for _, c := range cases {
		if got := (Result{Confidence: c.conf}).Fraction(); got != c.want {
			t.Fatalf("Fraction(%v) = %v; want %v", c.conf, got, c.want)
		}
	}
}
