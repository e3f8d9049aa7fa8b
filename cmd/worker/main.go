// Command worker runs a batch operation over a file of addresses, one per
// line, and writes one JSON result per line.
//
//	worker --input addresses.txt --operation expand --output out.jsonl
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/postal-engine/app/config"
	"github.com/postal-engine/app/requests"
	"github.com/postal-engine/app/services"
	"github.com/postal-engine/helpers/utils"
	"github.com/postal-engine/postal"
)

type workerFlags struct {
	configPath string
	input      string
	output     string
	operation  string
	language   string
	country    string
	chunkSize  int
}

func main() {
	var flags workerFlags
	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "Batch address processing",
		Long:  `Parse, expand or classify every address of a file using the worker pool of the address service`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&flags.configPath, "config", "config/postal.yaml", "engine config file")
	rootCmd.Flags().StringVarP(&flags.input, "input", "i", "-", "input file, - for stdin")
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "-", "output file, - for stdout")
	rootCmd.Flags().StringVar(&flags.operation, "operation", "parse", "parse, expand or classify")
	rootCmd.Flags().StringVar(&flags.language, "lang", "", "language hint")
	rootCmd.Flags().StringVar(&flags.country, "country", "", "country hint")
	rootCmd.Flags().IntVar(&flags.chunkSize, "chunk", 1000, "addresses per job")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags workerFlags) error {
	switch flags.operation {
	case "parse", "expand", "classify":
	default:
		return fmt.Errorf("unknown operation %q", flags.operation)
	}
	if flags.chunkSize < 1 {
		return fmt.Errorf("chunk must be positive, got %d", flags.chunkSize)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine := postal.New(postal.Config{ModelDir: cfg.Model.Dir, TopK: cfg.Languages.TopK}, logger)
	modules, err := postal.ParseModules(cfg.Model.Modules)
	if err != nil {
		return err
	}
	if err := engine.Setup(ctx, modules...); err != nil {
		return err
	}
	defer engine.Teardown(modules...)

	svc := services.NewAddressService(engine, nil, services.AddressServiceOptions{
		ModelVersion:   cfg.Model.Version,
		Workers:        cfg.Batch.Workers,
		DefaultCountry: cfg.Parser.DefaultCountry,
	}, logger)

	in, err := openInput(flags.input)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := openOutput(flags.output)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	defer w.Flush()
	enc := json.NewEncoder(w)

	start := time.Now()
	total := 0
	chunk := make([]string, 0, flags.chunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		req := requests.BatchRequest{
			Addresses: chunk,
			Operation: flags.operation,
			Language:  flags.language,
			Country:   flags.country,
		}
		jobID := utils.GenerateUUID()
		svc.ProcessBatchJob(ctx, jobID, req)
		results, err := svc.GetJobResults(jobID)
		svc.DeleteJob(jobID)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r == nil {
				continue
			}
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		total += len(chunk)
		chunk = chunk[:0]
		return ctx.Err()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		chunk = append(chunk, line)
		if len(chunk) == flags.chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	stats := svc.GetStats()
	logger.Info("Worker finished",
		zap.Int("addresses", total),
		zap.Int64("failed", stats.TotalFailed),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
