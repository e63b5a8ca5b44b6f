package main

import (
	"github.com/spf13/cobra"

	"github.com/lonvia/Nominatim/internal/indexer"
)

func newIndexCmd() *cobra.Command {
	var (
		boundariesOnly bool
		noBoundaries   bool
		minRank        int
		maxRank        int
		threads        int
		analyse        bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Run an indexing pass over the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if threads <= 0 {
				threads = rt.cfg.IndexThreads
			}
			ix := indexer.New(rt.pool, threads, rt.log, rt.metrics)

			switch {
			case boundariesOnly:
				return ix.IndexBoundaries(ctx, minRank, maxRank)
			case noBoundaries:
				if err := ix.IndexByRank(ctx, minRank, maxRank); err != nil {
					return err
				}
				return ix.IndexPostcodes(ctx)
			case minRank == 0 && maxRank == 0:
				return ix.IndexFull(ctx, analyse)
			default:
				if err := ix.IndexByRank(ctx, minRank, maxRank); err != nil {
					return err
				}
				if err := ix.IndexBoundaries(ctx, minRank, maxRank); err != nil {
					return err
				}
				return ix.IndexPostcodes(ctx)
			}
		},
	}

	cmd.Flags().BoolVar(&boundariesOnly, "boundaries-only", false, "index only administrative boundaries")
	cmd.Flags().BoolVar(&noBoundaries, "no-boundaries", false, "skip administrative boundaries")
	cmd.Flags().IntVarP(&minRank, "min-rank", "r", 0, "minimum rank to index")
	cmd.Flags().IntVarP(&maxRank, "max-rank", "R", 0, "maximum rank to index")
	cmd.Flags().IntVarP(&threads, "threads", "j", 0, "number of worker connections (defaults to config/CPU count)")
	cmd.Flags().BoolVar(&analyse, "analyse", false, "run ANALYZE between passes of a full index run")

	return cmd
}
