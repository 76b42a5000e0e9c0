//go:build stave

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// Build compiles the api-blend and blend-bench binaries.
func Build() error {
	st.Deps(Init)
	st.Deps(Build_CLI, Build_Bench)
	return nil
}

// Build_CLI compiles the api-blend binary with version information.
func Build_CLI() error {
	st.Deps(Init)
	return buildBinary("api-blend")
}

// Build_Bench compiles the blend-bench binary.
func Build_Bench() error {
	st.Deps(Init)
	return buildBinary("blend-bench")
}

// buildBinary compiles ./cmd/<name> into bin/<name> when sources changed.
func buildBinary(name string) error {
	out := "bin/" + name
	rebuild, err := target.Glob(out, "**/*.go", "go.mod", "go.sum")
	if err != nil {
		return fmt.Errorf("checking rebuild: %w", err)
	}
	if !rebuild {
		if st.Verbose() {
			fmt.Printf("%s is up to date\n", name)
		}
		return nil
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", out, "./cmd/"+name)
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	date := time.Now().Format(time.RFC3339)

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s -X main.date=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		date,
	)
}

// Test runs all tests with race detection and writes coverage.out.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./...")
}

// Test_Core runs the conversion pipeline tests only. These need neither
// cgo sqlite nor ONNX Runtime.
func Test_Core() error {
	return sh.RunV("go", "test", "-short",
		".", "./corpus/...", "./clause/...", "./slot/...", "./api/...", "./depparse/...", "./topv2/...",
		"./internal/stats/...", "./internal/config/...")
}

// Cover renders coverage.out as coverage.html.
func Cover() error {
	st.Deps(Test)
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// LintFix runs golangci-lint with auto-fix enabled.
func LintFix() error {
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// Fmt formats all Go code using gofmt and goimports.
func Fmt() error {
	if err := sh.Run("gofmt", "-w", "."); err != nil {
		return fmt.Errorf("gofmt: %w", err)
	}
	if err := sh.Run("goimports", "-w", "."); err != nil {
		return fmt.Errorf("goimports: %w", err)
	}
	return nil
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	artifacts := []string{
		"bin/",
		"coverage.out",
		"coverage.html",
		envOr("LOG_FILE", "api-blend.log"),
	}
	for _, a := range artifacts {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Install builds and installs the binaries to GOBIN.
func Install() error {
	st.Deps(Build)

	gocmd := st.GoCmd()
	bin, err := sh.Output(gocmd, "env", "GOBIN")
	if err != nil {
		return fmt.Errorf("determining GOBIN: %w", err)
	}
	if bin == "" {
		gopath, err := sh.Output(gocmd, "env", "GOPATH")
		if err != nil {
			return fmt.Errorf("determining GOPATH: %w", err)
		}
		bin = gopath + "/bin"
	}

	binaries := []string{"api-blend", "blend-bench"}
	for _, name := range binaries {
		src := "bin/" + name
		dst := bin + "/" + name
		if runtime.GOOS == "windows" {
			dst += ".exe"
		}
		if err := sh.Copy(dst, src); err != nil {
			return fmt.Errorf("installing %s: %w", name, err)
		}
		if st.Verbose() {
			fmt.Printf("Installed %s to %s\n", name, dst)
		}
	}
	return nil
}

// Data namespace for dataset generation targets.
type Data st.Namespace

// Seq converts the slot-filling datasets under $DATA_DIR (default data)
// into $SAVE_DIR (default out).
func (Data) Seq() error {
	st.Deps(Build_CLI)
	return sh.RunV("./bin/api-blend", "seq",
		"--data-dir", envOr("DATA_DIR", "data"),
		"--save-dir", envOr("SAVE_DIR", "out"),
		"--log-file", envOr("LOG_FILE", "api-blend.log"),
	)
}

// TopV2 converts the TOPv2 domains under $TOPV2_DIR (default data/TOPv2)
// with the parses in $TOPV2_PARSES (default topv2_parses.jsonl).
func (Data) TopV2() error {
	st.Deps(Build_CLI)
	return sh.RunV("./bin/api-blend", "topv2",
		"--data-dir", envOr("TOPV2_DIR", "data/TOPv2"),
		"--save-dir", envOr("SAVE_DIR", "out"),
		"--parses", envOr("TOPV2_PARSES", "topv2_parses.jsonl"),
		"--log-file", envOr("LOG_FILE", "api-blend.log"),
	)
}

// Sentences exports multi-intent sentences for an external parser to
// $SENTENCES_FILE (default sentences.txt).
func (Data) Sentences() error {
	st.Deps(Build_CLI)
	return sh.RunV("./bin/api-blend", "sentences",
		"--data-dir", envOr("DATA_DIR", "data"),
		"--out", envOr("SENTENCES_FILE", "sentences.txt"),
	)
}

// Bench namespace for benchmark-related targets.
type Bench st.Namespace

// Run scores the default merge thresholds on utterances composed from
// $BENCH_CORPUS (default data/SNIPS/train.txt).
func (Bench) Run() error {
	st.Deps(Build_Bench)
	return sh.RunV("./bin/blend-bench",
		"-corpus", envOr("BENCH_CORPUS", "data/SNIPS/train.txt"),
	)
}

// Sweep runs a merge threshold sweep to find optimal parameters.
func (Bench) Sweep() error {
	st.Deps(Build_Bench)
	return sh.RunV("./bin/blend-bench",
		"-corpus", envOr("BENCH_CORPUS", "data/SNIPS/train.txt"),
		"-sweep",
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, short tests).
func Check() error {
	st.Deps(Vet, Lint, TestShort)
	return nil
}

// Coverage generates a coverage report.
func Coverage() error {
	st.Deps(Init)
	if err := sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Tidy runs go mod tidy and verifies the go.sum is clean.
func Tidy() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return err
	}
	// Verify no changes to go.sum (useful for CI)
	output, err := sh.Output("git", "diff", "--exit-code", "go.sum")
	if err != nil {
		if output != "" {
			return fmt.Errorf("go.sum is not clean:\n%s", output)
		}
	}
	return nil
}
