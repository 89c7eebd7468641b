package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"facelapse/internal/config"
	"facelapse/internal/face"
	"facelapse/internal/logging"
)

func silence(cmd *cobra.Command) {
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
}

func TestRootRegistersCommands(t *testing.T) {
	cmd := NewRootCmd(config.Default(), logging.New("error", "text"), nil)
	want := map[string]bool{"run": false, "runs": false, "config": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestRunRejectsMissingInputDirectory(t *testing.T) {
	cmd := NewRootCmd(config.Default(), logging.New("error", "text"), nil)
	silence(cmd)
	cmd.SetArgs([]string{"run", filepath.Join(t.TempDir(), "does-not-exist")})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected precondition failure for missing input directory")
	}
}

func TestRunRejectsMissingModels(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.CascadePath = filepath.Join(t.TempDir(), "cascade.xml")
	cfg.Detection.LandmarkModelPath = filepath.Join(t.TempDir(), "lbf.yaml")

	cmd := NewRootCmd(cfg, logging.New("error", "text"), nil)
	silence(cmd)
	cmd.SetArgs([]string{"run", t.TempDir()})

	err := cmd.Execute()
	if !errors.Is(err, face.ErrModelMissing) {
		t.Fatalf("want ErrModelMissing before any processing, got %v", err)
	}
}

func TestRunRejectsInvalidFlagValues(t *testing.T) {
	cmd := NewRootCmd(config.Default(), logging.New("error", "text"), nil)
	silence(cmd)
	cmd.SetArgs([]string{"run", t.TempDir(), "--fps", "0"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation failure for fps=0")
	}
}
