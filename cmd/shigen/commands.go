package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/poiesic/shigen/catalog"
	"github.com/poiesic/shigen/ingestion"
	"github.com/poiesic/shigen/reembed"
	"github.com/poiesic/shigen/search"
	"github.com/poiesic/shigen/suggest"
	"github.com/urfave/cli/v2"
)

var importCmd = &cli.Command{
	Name:      "import",
	Usage:     "Import a JSON resource catalog into the database",
	ArgsUsage: "<catalog.json>",
	Action:    importCommand,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "overwrite",
			Usage: "Replace resources that already exist",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Report what would change without writing",
		},
		&cli.BoolFlag{
			Name:  "embed",
			Usage: "Embed imported resources with the configured embedding backend",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of resources written per transaction",
			Value: ingestion.DefaultBatchSize,
		},
	},
}

var reembedCmd = &cli.Command{
	Name:   "reembed",
	Usage:  "Regenerate the embedding vectors of all stored resources",
	Action: reembedCommand,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of resources to process in each batch",
			Value: reembed.DefaultBatchSize,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N resources",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed batches",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of batches embedded at once",
			Value: 2,
		},
		&cli.Float64Flag{
			Name:  "rps",
			Usage: "Maximum embedding requests per second (0 for unlimited)",
		},
		&cli.BoolFlag{
			Name:  "only-missing",
			Usage: "Skip resources that already have a vector",
		},
	},
}

var searchCmd = &cli.Command{
	Name:      "search",
	Usage:     "Search local resources; without a query, read queries from stdin in one session",
	ArgsUsage: "[query...]",
	Action:    searchCommand,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "Search session ID (a new one is generated when empty)",
		},
	},
}

var detailCmd = &cli.Command{
	Name:      "detail",
	Usage:     "Show the details of one resource by (part of) its service name",
	ArgsUsage: "<name...>",
	Action:    detailCommand,
}

var suggestCmd = &cli.Command{
	Name:      "suggest",
	Usage:     "Suggest resources for a JSON assessment by embedding similarity",
	ArgsUsage: "<assessment.json|->",
	Action:    suggestCommand,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of suggestions to return",
			Value: suggest.DefaultTopK,
		},
	},
}

var serveMCPCmd = &cli.Command{
	Name:   "serve-mcp",
	Usage:  "Serve the search tools over MCP on stdio",
	Action: serveMCPCommand,
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one catalog file is required")
	}
	path := c.Args().First()

	resources, loadReport, err := catalog.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := []ingestion.Option{ingestion.WithBatchSize(c.Int("batch-size"))}
	if c.Bool("embed") {
		embedder, err := engine.NewEmbedder(c.Context)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		opts = append(opts, ingestion.WithEmbedder(embedder))
	}
	importer, err := engine.NewImporter(opts...)
	if err != nil {
		return err
	}
	defer importer.Release()

	report, err := importer.Import(c.Context, resources, ingestion.Options{
		Overwrite: c.Bool("overwrite"),
		DryRun:    c.Bool("dry-run"),
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "File: %s (%d entries, %d without service name)\n", path, loadReport.Total, loadReport.SkippedMissingName)
	if report.DryRun {
		fmt.Fprintln(w, "Dry run: nothing was written")
	}
	fmt.Fprintf(w, "Created: %d\nUpdated: %d\nSkipped: %d\nInvalid: %d\n",
		report.Created, report.Updated, report.Skipped, report.SkippedInvalidServiceName)
	if c.Bool("embed") {
		fmt.Fprintf(w, "Embedded: %d (failed %d)\n", report.Embedded, report.EmbedFailures)
	}
	fields := make([]string, 0, len(report.MissingFieldCounts))
	for f := range report.MissingFieldCounts {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "Missing %s: %d\n", f, report.MissingFieldCounts[f])
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg := reembed.Config{
		BatchSize:         c.Int("batch-size"),
		ReportInterval:    c.Int("report-interval"),
		MaxRetries:        c.Int("max-retries"),
		RetryDelay:        c.Duration("retry-delay"),
		Concurrency:       c.Int("concurrency"),
		RequestsPerSecond: c.Float64("rps"),
		OnlyMissing:       c.Bool("only-missing"),
	}

	// Validate config
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}

	engine, conf, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	embedder, err := engine.NewEmbedder(c.Context)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	errw := c.App.ErrWriter
	fmt.Fprintf(errw, "Database: %s\n", conf.DBPath)
	fmt.Fprintf(errw, "Embedding provider: %s\n", conf.Embedding.Provider)
	fmt.Fprintf(errw, "Embedding model: %s\n", conf.Embedding.Model)
	fmt.Fprintln(errw)

	summary, err := engine.NewReembedder(embedder, cfg, errw).Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Reembedded %d of %d resources (%d failed) in %s\n",
		summary.Embedded, summary.Total, summary.Failed, summary.Elapsed.Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	state, err := engine.Registry().Begin(c.Context, c.String("session"))
	if err != nil {
		return err
	}
	defer engine.Registry().End(c.Context, state.ID)

	searcher := engine.Searcher()
	w := c.App.Writer

	if c.NArg() > 0 {
		fmt.Fprintln(w, searcher.SearchLocalResources(c.Context, state.ID, strings.Join(c.Args().Slice(), " ")))
		return nil
	}

	fmt.Fprintf(c.App.ErrWriter, "Session %s; enter one query per line, an empty line or EOF to quit\n", state.ID)
	return searchLoop(c.Context, searcher, state.ID, c.App.Reader, w)
}

// searchLoop runs one query per input line until an empty line or EOF.
func searchLoop(ctx context.Context, searcher *search.Searcher, sessionID string, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			return nil
		}
		fmt.Fprintln(w, searcher.SearchLocalResources(ctx, sessionID, query))
		fmt.Fprintln(w)
	}
	return scanner.Err()
}

func detailCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a service name is required")
	}
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintln(c.App.Writer, engine.Searcher().ResourceDetail(strings.Join(c.Args().Slice(), " ")))
	return nil
}

func suggestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("an assessment file, or - for stdin, is required")
	}
	assessment, err := readAssessment(c.Args().First(), c.App.Reader)
	if err != nil {
		return err
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	embedder, err := engine.NewEmbedder(c.Context)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	suggester, err := engine.NewSuggester(embedder)
	if err != nil {
		return err
	}

	resp, err := suggester.Suggest(c.Context, suggest.Request{Assessment: assessment, TopK: c.Int("top-k")})
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	w := c.App.Writer
	if len(resp.Items) == 0 {
		fmt.Fprintln(w, "No suggestions")
		return nil
	}
	for i, it := range resp.Items {
		fmt.Fprintf(w, "%d: %s [%0.3f]\n", i+1, it.ServiceName, it.Score)
		if len(it.MatchedKeywords) > 0 {
			fmt.Fprintf(w, "   keywords: %s\n", strings.Join(it.MatchedKeywords, ", "))
		}
		if it.Excerpt != "" {
			fmt.Fprintf(w, "   %s\n", it.Excerpt)
		}
	}
	return nil
}

func readAssessment(path string, stdin io.Reader) (map[string]any, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read assessment: %w", err)
	}

	var assessment map[string]any
	if err := json.Unmarshal(data, &assessment); err != nil {
		return nil, fmt.Errorf("assessment must be a JSON object: %w", err)
	}
	return assessment, nil
}

func serveMCPCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	return server.ServeStdio(engine.NewMCPServer(version))
}
