package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cellscan/internal/predict"
)

// testEnv writes a config file that keeps logs and downloads inside a temp
// dir and returns its path.
func testEnv(t *testing.T, server string) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("server_url: %s\ntimeout: 5s\nlog_file: %s\ndownload_dir: %s\n",
		server, filepath.Join(dir, "cellscan.log"), filepath.Join(dir, "downloads"))
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(predict.PredictPath, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var results []predict.Result
		for _, fh := range r.MultipartForm.File[predict.FieldName] {
			label := predict.Uninfected
			if strings.HasPrefix(fh.Filename, "sick") {
				label = predict.Parasitized
			}
			results = append(results, predict.Result{Filename: fh.Filename, Label: label, Confidence: 88.5})
		}
		_ = json.NewEncoder(w).Encode(results)
	})
	mux.HandleFunc(predict.DownloadPath, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "Filename,Prediction,Confidence\nsick.png,Parasitized,88.5\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("img"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"server", "timeout", "config", "verbose", "max-depth", "exclude", "follow-symlinks"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag %q", name)
		}
	}
	want := map[string]bool{"predict": false, "download": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	cfgPath, _ := testEnv(t, "http://from-file:5000")
	root := NewRootCmd()
	if err := root.ParseFlags([]string{"--config", cfgPath, "--timeout", "3s"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := buildConfig(root)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.ServerURL != "http://from-file:5000" {
		t.Errorf("server = %q", cfg.ServerURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
}

func TestBuildConfig_MissingExplicitFile(t *testing.T) {
	_, err := execute(t, "predict", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "x.png")
	if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

func TestBuildConfig_Invalid(t *testing.T) {
	cfgPath, _ := testEnv(t, "http://127.0.0.1:1")
	_, err := execute(t, "predict", "--config", cfgPath, "--timeout", "-1s", "x.png")
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "cellscan ") {
		t.Fatalf("unexpected output %q", out)
	}
}
