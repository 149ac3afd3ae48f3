package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdejongh/imdidiff/pkg/config"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, ExitOK},
		{"Plain", errors.New("boom"), ExitUsage},
		{"ExitError", exitError(ExitExcludeMalformed, errors.New("bad line")), ExitExcludeMalformed},
		{"Wrapped", fmt.Errorf("compare: %w", exitError(ExitNotDirectory, nil)), ExitNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	if got := exitError(ExitInterrupted, nil).Error(); got != "exit status 130" {
		t.Errorf("Error() = %q", got)
	}
	cause := errors.New("a is not a directory")
	err := exitError(ExitNotDirectory, cause)
	if err.Error() != cause.Error() || !errors.Is(err, cause) {
		t.Errorf("ExitError should wrap its cause, got %v", err)
	}
}

func TestValidatePair(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		source  string
		target  string
		wantErr bool
	}{
		{"Siblings", filepath.Join(root, "a"), filepath.Join(root, "b"), false},
		{"SharedPrefix", filepath.Join(root, "corpus"), filepath.Join(root, "corpus-new"), false},
		{"Same", filepath.Join(root, "a"), filepath.Join(root, "a"), true},
		{"TargetInsideSource", filepath.Join(root, "a"), filepath.Join(root, "a", "b"), true},
		{"SourceInsideTarget", filepath.Join(root, "a", "b"), filepath.Join(root, "a"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePair(tt.source, tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePair() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.imdi")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := checkDirectory(dir); err != nil {
		t.Errorf("checkDirectory(dir) error = %v", err)
	}
	for _, path := range []string{"", file, filepath.Join(dir, "absent")} {
		if _, err := checkDirectory(path); ExitCode(err) != ExitNotDirectory {
			t.Errorf("checkDirectory(%s) exit code = %d, want %d", path, ExitCode(err), ExitNotDirectory)
		}
	}
}

func TestLoadExcludeList(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.txt")
	malformed := filepath.Join(dir, "malformed.txt")
	if err := os.WriteFile(valid, []byte("a/r.imdi\nb/s.imdi ID3:/ROOT/@v\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(malformed, []byte("a b c\n"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := loadExcludeList(valid)
	if err != nil || len(entries) != 2 {
		t.Errorf("loadExcludeList(valid) = %d entries, %v", len(entries), err)
	}
	if entries, err := loadExcludeList(""); err != nil || entries != nil {
		t.Errorf("loadExcludeList(\"\") = %v, %v", entries, err)
	}
	if _, err := loadExcludeList(malformed); ExitCode(err) != ExitExcludeMalformed {
		t.Errorf("malformed exit code = %d", ExitCode(err))
	}
	if _, err := loadExcludeList(filepath.Join(dir, "absent.txt")); ExitCode(err) != ExitExcludeUnread {
		t.Errorf("unreadable exit code = %d", ExitCode(err))
	}
}

func TestCompareTimeoutDefault(t *testing.T) {
	flag := NewCompareCommand().Flags().Lookup("timeout")
	if flag == nil {
		t.Fatal("compare has no --timeout flag")
	}
	want := config.Default().Compare.Timeout
	if want != 60*time.Second {
		t.Errorf("default timeout = %s, want 1m0s", want)
	}
	if flag.DefValue != want.String() {
		t.Errorf("--timeout default = %s, want %s", flag.DefValue, want)
	}
}
