package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/okian/xfpl/internal/adapters/repository"
	app "github.com/okian/xfpl/internal/app"
	"github.com/okian/xfpl/internal/config"
	"github.com/okian/xfpl/internal/domain/ranking"
	"github.com/okian/xfpl/internal/domain/scoring"
	"github.com/okian/xfpl/internal/domain/types"
	"github.com/okian/xfpl/pkg/logger"
)

var errSource = errors.New("exactly one of --file or --url is required")

type report struct {
	RunID    string                     `json:"run_id"`
	Summary  ranking.Summary            `json:"summary"`
	Failures []*scoring.ValidationError `json:"failures"`
	View     string                     `json:"view,omitempty"`
	Entries  []types.Entry              `json:"entries"`
}

func computeCmd() *cobra.Command {
	var (
		file   string
		url    string
		view   string
		limit  int
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Fetch stats, compute expected points and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (url == "") {
				return errSource
			}
			if view != "" && !slices.Contains(ranking.ViewNames(), view) {
				return fmt.Errorf("%w: %q (one of %s)", repository.ErrUnknownView, view, strings.Join(ranking.ViewNames(), ", "))
			}

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			cfg.SourceFile = file
			if url != "" {
				cfg.SourceURL = url
			}
			rep, err := compute(cmd, cfg, view, limit)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), rep, pretty)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "bootstrap-static document or records array on disk")
	cmd.Flags().StringVar(&url, "url", "", "bootstrap-static endpoint")
	cmd.Flags().StringVar(&view, "view", "", "print only this view ("+strings.Join(ranking.ViewNames(), ", ")+")")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to print, 0 for all")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func compute(cmd *cobra.Command, cfg *config.Config, view string, limit int) (*report, error) {
	ctx := cmd.Context()
	log := logger.Get()

	eng, err := app.NewEngine(cfg, log.Named("engine"))
	if err != nil {
		return nil, err
	}
	store := repository.NewSnapshotStore()
	svc := app.New(
		app.WithProvider(app.NewProvider(cfg, log.Named("provider"))),
		app.WithEngine(eng),
		app.WithStore(store),
		app.WithLogger(log.Named("service")),
	)
	snap, err := svc.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	name := view
	if name == "" {
		name = ranking.ViewAll
	}
	n := limit
	if n <= 0 {
		n = max(len(snap.Entries), 1)
	}
	entries, err := store.View(ctx, name, n)
	if err != nil {
		return nil, err
	}

	failures := snap.Failures
	if failures == nil {
		failures = []*scoring.ValidationError{}
	}
	return &report{
		RunID:    snap.RunID,
		Summary:  snap.Summary,
		Failures: failures,
		View:     view,
		Entries:  entries,
	}, nil
}

func writeReport(w io.Writer, rep *report, pretty bool) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rep)
}
