// Command syllabest runs the batch pipeline over a data directory: parse
// courses, subject and project syllabi, enrich projects, chunk everything
// and export the catalogue workbook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/dgallion1/syllabest/internal/config"
	"github.com/dgallion1/syllabest/internal/pipeline"
)

const usage = `usage: syllabest [flags] [step...]

steps: cours, matiere, projet, clean, chunk, export, all (default)
flags are also read from SYLLABEST_* environment variables and .env
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	cfg, err := config.Load("syllabest", args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(stdout, usage)
		return 0
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "syllabest: %v\n%s", err, usage)
		return 2
	}
	log := cfg.Logger(stderr)

	steps := cfg.Args
	if len(steps) == 0 {
		steps = []string{pipeline.StepAll}
	}
	for _, s := range steps {
		if s != pipeline.StepAll && !slices.Contains(pipeline.Steps, s) {
			fmt.Fprintf(stderr, "syllabest: unknown step %q\n%s", s, usage)
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, log)
	var total pipeline.Report
	for _, step := range steps {
		rep, err := runner.Run(ctx, step)
		total.Merge(rep)
		if err != nil {
			log.Error("step aborted", "step", step, "error", err)
			printReport(stdout, total)
			return 1
		}
	}

	printReport(stdout, total)
	if !total.OK() {
		return 1
	}
	return 0
}

func printReport(w io.Writer, rep pipeline.Report) {
	for _, res := range rep.Results {
		switch res.Status {
		case pipeline.StatusSucceeded:
			fmt.Fprintf(w, "%-9s %-7s %s -> %s\n", res.Status, res.Step, res.Path, res.Output)
		default:
			fmt.Fprintf(w, "%-9s %-7s %s: %v\n", res.Status, res.Step, res.Path, res.Err)
		}
	}
	for _, e := range rep.Empty {
		fmt.Fprintf(w, "empty     %s\n", e)
	}
	fmt.Fprintf(w, "%d succeeded, %d failed, %d skipped\n", rep.Succeeded, rep.Failed, rep.Skipped)
}
