package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/fixture"
	"github.com/dondada876/ASEAGI-sub007/internal/service"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
	"github.com/spf13/cobra"
)

var runFlags struct {
	file      string
	builtin   string
	workers   int
	chunkSize int
	format    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline over a corpus and print the results",
	Example: `  credctl run -f corpus.yaml
  credctl run --builtin protective-order --format summary`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.file, "file", "f", "", "corpus YAML file")
	f.StringVar(&runFlags.builtin, "builtin", "", "name of a builtin corpus (see 'credctl corpora')")
	f.IntVar(&runFlags.workers, "workers", service.DefaultScoringWorkers, "parallel scoring workers")
	f.IntVar(&runFlags.chunkSize, "chunk-size", service.DefaultChunkSize, "statements per correlation checkpoint")
	f.StringVar(&runFlags.format, "format", "json", "output format: json or summary")

	runCmd.MarkFlagsMutuallyExclusive("file", "builtin")
	runCmd.MarkFlagsOneRequired("file", "builtin")
}

// runResult is everything one run produced, latest versions only.
type runResult struct {
	Report          *domain.BatchReport           `json:"report"`
	Scores          []domain.ScoreRecord          `json:"scores"`
	Relationships   []domain.Relationship         `json:"relationships"`
	Classifications []domain.ClassificationResult `json:"classifications"`
	Aggregates      []domain.AggregateScore       `json:"aggregates"`
	Profiles        []domain.PartyProfile         `json:"profiles"`
	Violations      []service.FeedEntry           `json:"violations"`
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runFlags.format != "json" && runFlags.format != "summary" {
		return fmt.Errorf("unknown format %q", runFlags.format)
	}

	var (
		corpus *fixture.Corpus
		err    error
	)
	if runFlags.file != "" {
		corpus, err = fixture.LoadFile(runFlags.file)
	} else {
		corpus, err = fixture.Builtin(runFlags.builtin)
	}
	if err != nil {
		return err
	}
	batch, err := corpus.Batch()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	mem := store.NewMemory()
	pipeline := service.NewPipeline(service.MemoryStores(mem), logger)
	pipeline.Workers = runFlags.workers
	pipeline.ChunkSize = runFlags.chunkSize

	report, runErr := pipeline.RunBatch(ctx, batch)
	result, err := collect(ctx, mem, report)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.format == "summary" {
		printSummary(out, result)
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("batch %s: %w", report.Status, runErr)
	}
	if len(report.Rejected) > 0 {
		return errors.New("some records were rejected; see report.rejected")
	}
	return nil
}

func collect(ctx context.Context, mem *store.Memory, report *domain.BatchReport) (*runResult, error) {
	res := &runResult{Report: report}
	var err error
	if res.Scores, err = mem.Scores.ListLatest(ctx); err != nil {
		return nil, err
	}
	if res.Relationships, err = mem.Relationships.ListCurrent(ctx); err != nil {
		return nil, err
	}
	if res.Classifications, err = mem.Classifications.ListLatest(ctx); err != nil {
		return nil, err
	}
	if res.Aggregates, err = mem.Aggregates.ListLatest(ctx); err != nil {
		return nil, err
	}
	if res.Profiles, err = mem.Profiles.ListLatest(ctx); err != nil {
		return nil, err
	}
	res.Violations = service.ViolationFeed(res.Classifications, "")
	return res, nil
}

func printSummary(out io.Writer, res *runResult) {
	r := res.Report
	fmt.Fprintf(out, "Batch:   %s (%s)\n", r.BatchID, r.Status)
	fmt.Fprintf(out, "Records: %d accepted, %d rejected\n", r.Accepted, len(r.Rejected))
	for _, rej := range r.Rejected {
		fmt.Fprintf(out, "  rejected %s %s: %s\n", rej.Entity, rej.ID, rej.Reason)
	}
	fmt.Fprintf(out, "Scored:  %d statements, %d relationships\n\n", r.Scored, len(res.Relationships))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATEMENT\tCOMPOSITE\tTRUTH\tTIER\tBAD FAITH\tCONFIDENCE")
	for _, s := range res.Scores {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%s\n", s.StatementID, s.Composite, s.Dimensions.TruthLie, s.Tier(), s.Dimensions.BadFaith, s.Confidence)
	}
	_ = tw.Flush()

	if len(res.Violations) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VIOLATION\tRULE\tSTATEMENT\tCONFIDENCE")
		for _, v := range res.Violations {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", v.Candidate.Tag, v.Candidate.RuleID, v.StatementID, v.Candidate.Confidence)
		}
		_ = tw.Flush()
	}

	if len(res.Profiles) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PARTY\tSTATEMENTS\tTRUTHFUL\tLIE RATE\tBAD FAITH\tTREND")
		for _, p := range res.Profiles {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%d\t%s\n", p.PartyID, p.StatementCount, p.TruthfulnessRate, p.LieRate, p.BadFaithPattern, p.Trend)
		}
		_ = tw.Flush()
	}
}
