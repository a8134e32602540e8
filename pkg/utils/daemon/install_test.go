package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderUnit(t *testing.T) {
	unit := RenderUnit("/usr/local/bin/appraise", "/etc/appraise.json")

	if !strings.Contains(unit, "ExecStart=/usr/local/bin/appraise daemon --config /etc/appraise.json\n") {
		t.Errorf("unexpected ExecStart in unit:\n%s", unit)
	}
	if strings.Contains(unit, "/path/to/") {
		t.Errorf("unit still contains placeholders:\n%s", unit)
	}
}

func TestInstallUninstall(t *testing.T) {
	oldPath, oldCtl := unitPath, systemctl
	defer func() { unitPath, systemctl = oldPath, oldCtl }()

	var calls []string
	systemctl = func(args ...string) error {
		calls = append(calls, strings.Join(args, " "))
		return nil
	}
	unitPath = filepath.Join(t.TempDir(), "system", unitName)

	if err := Install("/etc/appraise.json"); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	b, err := os.ReadFile(unitPath)
	if err != nil {
		t.Fatalf("unit not written: %v", err)
	}
	if !strings.Contains(string(b), "--config /etc/appraise.json") {
		t.Errorf("unit does not reference the config file:\n%s", b)
	}

	if err := Uninstall(); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}
	if _, err := os.Stat(unitPath); !os.IsNotExist(err) {
		t.Errorf("unit still exists after Uninstall, stat error = %v", err)
	}

	want := []string{
		"daemon-reload",
		"enable --now appraise.service",
		"disable --now appraise.service",
		"daemon-reload",
	}
	if strings.Join(calls, ";") != strings.Join(want, ";") {
		t.Errorf("systemctl calls = %q, want %q", calls, want)
	}
}
