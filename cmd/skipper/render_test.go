package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("daemon", statusOK, "pid 42", false)
	if !strings.Contains(line, "daemon:") || !strings.Contains(line, "[OK] pid 42") {
		t.Fatalf("line = %q", line)
	}

	colored := renderStatusLine("init", statusError, "boom", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("colored = %q", colored)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"one"}})
	if !strings.Contains(out, "one") {
		t.Fatalf("table = %q", out)
	}
	if strings.Contains(out, "<nil>") {
		t.Fatalf("missing cells should render empty, got %q", out)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Fatal("yesNo mapping broken")
	}
}
