package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/verdict/internal/appeals"
	"github.com/dusk-indust/verdict/internal/collect"
	"github.com/dusk-indust/verdict/internal/export"
	"github.com/dusk-indust/verdict/internal/pipeline"
)

type runFlags struct {
	Dataset    string
	Sample     int
	Seed       int64
	TriageOnly bool
	Out        string
	Mermaid    string
	Archive    string
	Timeout    time.Duration
	Verbose    bool
}

func newRunCommand(global *globalFlags) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the triage pipeline over a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(global, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Dataset, "dataset", "", "path to an appeals dataset (JSON)")
	cmd.Flags().IntVar(&flags.Sample, "sample", 0, "generate N sample appeals instead of loading a dataset")
	cmd.Flags().Int64Var(&flags.Seed, "seed", 1, "seed for sample generation")
	cmd.Flags().BoolVar(&flags.TriageOnly, "triage-only", false, "only validate appeal-worthy cases")
	cmd.Flags().StringVar(&flags.Out, "out", "", "write the report as JSON to this path")
	cmd.Flags().StringVar(&flags.Mermaid, "mermaid", "", "write a mermaid diagram of the run to this path")
	cmd.Flags().StringVar(&flags.Archive, "archive", "", "append the report to this sqlite archive")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "overall run timeout (0 = none)")
	cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "print per-item progress")

	return cmd
}

func runPipeline(global *globalFlags, flags runFlags) error {
	project, err := loadProject(global)
	if err != nil {
		return err
	}
	log := newLogger(project)

	// Resolve the input: explicit dataset flag, config file dataset, or a
	// generated sample batch.
	dataset := flags.Dataset
	if dataset == "" {
		dataset = project.Dataset
	}

	var items []pipeline.WorkItem
	switch {
	case flags.Sample > 0:
		items = collect.Items(collect.GenerateSample(flags.Sample, flags.Seed))
	case dataset != "":
		items, err = collect.LoadDataset(dataset)
		if err != nil {
			return err
		}
	default:
		return errors.New("run: provide --dataset or --sample")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Timeout)
		defer cancel()
	}

	strategy := appeals.NewStrategy()
	strategy.TriageOnly = flags.TriageOnly

	coord, err := pipeline.New(project.Pipeline(), strategy, appeals.DefaultValidators(), pipeline.WithLogger(log))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if flags.Verbose {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range coord.Progress() {
				fmt.Println(pipeline.FormatProgress(ev))
			}
		}()
	}

	report, err := coord.Run(ctx, items)
	if flags.Verbose {
		wg.Wait()
	}
	if err != nil {
		return err
	}

	export.RenderSummary(os.Stdout, report)

	if flags.Out != "" {
		if err := export.WriteJSON(report, flags.Out); err != nil {
			return err
		}
	}
	if flags.Mermaid != "" {
		if err := os.WriteFile(flags.Mermaid, []byte(export.GenerateMermaid(report)), 0o644); err != nil {
			return fmt.Errorf("writing mermaid diagram: %w", err)
		}
	}

	archive := flags.Archive
	if archive == "" {
		archive = project.Archive
	}
	if archive != "" {
		arc, err := export.OpenArchive(archive)
		if err != nil {
			return err
		}
		defer arc.Close()
		if err := arc.Save(context.Background(), report); err != nil {
			return err
		}
	}

	return nil
}

func newSampleCommand() *cobra.Command {
	var (
		count int
		seed  int64
		out   string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a sample appeals dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cases := collect.GenerateSample(count, seed)
			if err := collect.WriteDataset(out, cases); err != nil {
				return err
			}
			fmt.Printf("wrote %d appeals to %s\n", len(cases), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 50, "number of appeals to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "generation seed")
	cmd.Flags().StringVar(&out, "out", "appeals.json", "output path")

	return cmd
}
