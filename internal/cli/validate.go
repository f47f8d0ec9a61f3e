package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/paulexconde/surveychat/internal/flow"
	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/workerpool"
	"github.com/paulexconde/surveychat/pkg/fault"
)

const (
	readAttempts   = 3
	readRetryDelay = 100 * time.Millisecond
)

// ErrInvalidSurveys is returned when at least one file fails validation.
var ErrInvalidSurveys = errors.New("invalid survey definitions")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate survey definition files",
		Long: `Validate YAML or JSON survey definitions without a server.

Each file is checked for title and description lengths, question types and
condition operators, dangling question references, choice questions without
options and reachable cycles. Transient read errors are retried.

Example:
  surveychat validate surveys/onboarding.yaml surveys/nps.json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "number of files checked concurrently")

	return cmd
}

func runValidate(cmd *cobra.Command, paths []string, workers int) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	pool := workerpool.NewWorkerPool(ctx, logger, workers, len(paths))

	results := make([]error, len(paths))
	for i, path := range paths {
		job := workerpool.WithRetry(logger, readAttempts, readRetryDelay, func(ctx context.Context) error {
			raw, err := os.ReadFile(path)
			if err != nil && transient(err) {
				return err
			}
			if err != nil {
				results[i] = err
				return nil
			}
			results[i] = validateFile(path, raw)
			return nil
		}, func(err error) {
			results[i] = err
		})

		if err := pool.Submit(job); err != nil {
			results[i] = err
		}
	}

	if err := pool.Shutdown(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	for i, path := range paths {
		if results[i] != nil {
			failed++
			fmt.Fprintf(out, "%s: %s\n", path, describe(results[i]))
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", ErrInvalidSurveys, failed, len(paths))
	}
	return nil
}

func validateFile(path string, raw []byte) error {
	survey, err := decodeSurvey(path, raw)
	if err != nil {
		return err
	}

	if err := flow.ValidateMetadata(survey); err != nil {
		return err
	}
	return flow.Validate(survey)
}

// transient reports whether a failed read is worth another attempt.
func transient(err error) bool {
	return errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EIO)
}

// decodeSurvey decodes a definition by file extension. Questions without an
// id take their key.
func decodeSurvey(path string, raw []byte) (models.Survey, error) {
	var (
		survey models.Survey
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &survey)
	case ".json":
		err = json.Unmarshal(raw, &survey)
	default:
		return models.Survey{}, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return models.Survey{}, fmt.Errorf("failed to decode: %w", err)
	}

	for id, q := range survey.Questions {
		if q.ID == "" {
			q.ID = id
			survey.Questions[id] = q
		}
	}

	return survey, nil
}

func describe(err error) string {
	var f *fault.Fault
	if errors.As(err, &f) && f.Subject != "" {
		return fmt.Sprintf("%s (%s)", f.Message, f.Subject)
	}
	return fault.Message(err)
}
