package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ITEM_SIZES", "BIN_CAPACITY", "SOLVER_BACKEND", "WORK_DIR",
		"WARM_START_MODE", "WARM_START_FILE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"SOLVE_RATE_LIMIT_RPS", "SOLVE_RATE_LIMIT_BURST", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestRunSolvePrintsReport(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	args := []string{"solve", "--sizes", "2,3", "--capacity", "5", "--warm-start", "ffd", "--log-level", "error"}
	if err := run(args, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Number of constraints: 8\n",
		"Number of variables: 6\n",
		"[1 0]\n1\n",
		"\nIn bin 0\nTotal size: 5\n Item 0 with size 2 Item 1 with size 3\n",
		"assign[0,0] = 1\nassign[1,0] = 1\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestRunSolveIsDefaultCommand(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	args := []string{"--sizes", "1,1,1", "--capacity", "1", "--log-level", "error"}
	if err := run(args, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !strings.Contains(out.String(), "[1 1 1]\n3\n") {
		t.Fatalf("expected three bins, got:\n%s", out.String())
	}
}

func TestRunRejectsEmptySizes(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	if err := run([]string{"--sizes", " , ", "--log-level", "error"}, strings.NewReader(""), &out); err == nil {
		t.Fatalf("expected error for empty sizes")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestRunRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)

	var out bytes.Buffer
	err := run([]string{"--sizes", "1,2", "--backend", "cplex", "--log-level", "error"}, strings.NewReader(""), &out)
	if err == nil || !strings.Contains(err.Error(), "cplex") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestRunStatusgen(t *testing.T) {
	input := "5\nSYM_B\nENUM_B\nsecond\n4\nSYM_A\nENUM_A\nfirst\n"
	want := "2\n" +
		"#define SYM_A 4\n" +
		"#define SYM_B 5\n" +
		"switch(status) {\n" +
		"case ENUM_A:\n  return Status(\"first\", SYM_A);\n" +
		"case ENUM_B:\n  return Status(\"second\", SYM_B);\n" +
		"default:\n  return Status(\"Unknown status code from Cplex\");\n}\n"

	t.Run("stdin", func(t *testing.T) {
		var out bytes.Buffer
		if err := run([]string{"statusgen"}, strings.NewReader(input), &out); err != nil {
			t.Fatalf("run returned error: %v", err)
		}
		if out.String() != want {
			t.Fatalf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "codes.txt")
		if err := os.WriteFile(path, []byte(input), 0o600); err != nil {
			t.Fatalf("write input: %v", err)
		}
		var out bytes.Buffer
		if err := run([]string{"statusgen", path}, strings.NewReader(""), &out); err != nil {
			t.Fatalf("run returned error: %v", err)
		}
		if out.String() != want {
			t.Fatalf("unexpected output:\n%s", out.String())
		}
	})
}

func TestOverridesLeaveUnsetFlagsNil(t *testing.T) {
	c := newCLI()
	if _, err := c.app.Parse([]string{"solve"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	o := c.overrides()
	if o.SizesStr != nil || o.Capacity != nil || o.TightBigM != nil || o.Emphasis != nil ||
		o.ProbeTimeLimit != nil || o.CommitNodeLimit != nil || o.Backend != nil {
		t.Fatalf("expected unset flags to stay nil, got %+v", o)
	}
}

func TestOverridesFromFlags(t *testing.T) {
	c := newCLI()
	args := []string{
		"--tight-big-m", "--emphasis", "2", "--probe-time-limit", "30s", "--commit-node-limit", "0",
		"serve", "--port", "9000", "--rate-limit-rps", "0", "--solve-rate-limit-rps", "0.5",
	}
	if _, err := c.app.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}

	o := c.overrides()
	if o.TightBigM == nil || !*o.TightBigM {
		t.Fatalf("expected tight big-M override")
	}
	if o.Emphasis == nil || *o.Emphasis != 2 {
		t.Fatalf("expected emphasis override")
	}
	if o.ProbeTimeLimit == nil || *o.ProbeTimeLimit != 30*time.Second {
		t.Fatalf("expected probe time limit override")
	}
	if o.CommitNodeLimit == nil || *o.CommitNodeLimit != 0 {
		t.Fatalf("expected commit node limit override")
	}
	if o.Port == nil || *o.Port != "9000" || o.RateLimitRPS == nil || *o.RateLimitRPS != 0 {
		t.Fatalf("expected serve overrides, got %+v", o)
	}
	if o.SolveRateRPS == nil || *o.SolveRateRPS != 0.5 || o.SolveRateBurst != nil {
		t.Fatalf("expected solve rate override only, got %+v", o)
	}
}
