package version

import "testing"

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("version should never be empty")
	}
	if len(info.GitCommit) > 7 {
		t.Errorf("commit should be truncated, got %q", info.GitCommit)
	}
}

func TestShort(t *testing.T) {
	if got := (Info{Version: "1.2.0"}).Short(); got != "1.2.0" {
		t.Errorf("Short without commit: %q", got)
	}
	if got := (Info{Version: "1.2.0", GitCommit: "abc1234"}).Short(); got != "1.2.0-abc1234" {
		t.Errorf("Short with commit: %q", got)
	}
}
