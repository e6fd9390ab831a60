package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-unshred/internal/detection"
	"github.com/ironsheep/image-unshred/internal/httpapi"
	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/pipeline"
	"github.com/ironsheep/image-unshred/internal/server"
	"github.com/ironsheep/image-unshred/internal/unshred"
	"github.com/ironsheep/image-unshred/internal/watch"
)

// Command builds the cobra command tree.
func (a *App) Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "image-unshred",
		Short: "Reassemble images cut into shuffled vertical strips",
		Long: `image-unshred reconstructs an image whose equal-width vertical strips were
shuffled, by matching the colours along neighbouring strip edges. It runs as a
one-shot command, an MCP tool server, an HTTP API or a directory watcher.`,
		Version:       a.info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags().Changed)
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("image-unshred %s\n  Build time: %s\n  Git commit: %s\n",
		a.info.Version, a.info.BuildTime, a.info.GitCommit))
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.config/image-unshred/config.json)")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text, json")
	pf.StringVar(&a.dbPath, "db", "", "run history database path")
	pf.BoolVar(&a.noHistory, "no-history", false, "do not record runs")

	rootCmd.AddCommand(a.newUnshredCmd())
	rootCmd.AddCommand(a.newShredCmd())
	rootCmd.AddCommand(a.newDetectCmd())
	rootCmd.AddCommand(a.newCompareCmd())
	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newHTTPCmd())
	rootCmd.AddCommand(a.newWatchCmd())
	rootCmd.AddCommand(a.newHistoryCmd())
	rootCmd.AddCommand(a.newVersionCmd())

	return rootCmd
}

func (a *App) newUnshredCmd() *cobra.Command {
	var (
		strips  int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "unshred <input> <output>",
		Short: "Reconstruct a shredded image",
		Long: `Reconstruct a shredded image and write the result. The output format follows
the file extension (png, jpg, bmp). Without --strips the strip width is
detected from the image.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.stripsOrDefault(strips, cmd.Flags().Changed("strips"))
			if err != nil {
				return err
			}
			pipe := a.pipe
			if cmd.Flags().Changed("workers") {
				pipe = a.newPipeline(a.newUnshredder(workers))
			}

			frame, err := imaging.LoadFile(args[0])
			if err != nil {
				return err
			}
			out, err := pipe.Unshred(cmd.Context(), pipeline.Request{
				Source: args[0],
				Output: args[1],
				Frame:  frame,
				Strips: n,
			})
			if err != nil {
				return err
			}
			if err := imaging.Save(args[1], out.Frame.Image()); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Detected != nil {
				fmt.Fprintf(w, "detected:   %d strips of %dpx (confidence %.2f)\n",
					out.Detected.Strips, out.Detected.StripWidth, out.Detected.Confidence)
			}
			fmt.Fprintf(w, "strips:     %d\n", out.Strips)
			fmt.Fprintf(w, "order:      %s\n", formatOrder(out.Result.Order))
			fmt.Fprintf(w, "seam strip: %d (score %.1f)\n", out.Result.SeamStrip, out.Result.SeamScore)
			fmt.Fprintf(w, "output:     %s%s\n", args[1], fileSize(args[1]))
			fmt.Fprintf(w, "took:       %s\n", out.Duration.Round(time.Microsecond))
			if out.RunID != "" {
				fmt.Fprintf(w, "run:        %s\n", out.RunID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&strips, "strips", "n", 0, "number of strips (0 = detect)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "distance matrix workers (0 = serial)")
	return cmd
}

func (a *App) newShredCmd() *cobra.Command {
	var (
		strips int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "shred <input> <output>",
		Short: "Cut an image into strips and shuffle them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := imaging.LoadFile(args[0])
			if err != nil {
				return err
			}
			out, err := a.pipe.Shred(cmd.Context(), pipeline.ShredRequest{
				Source: args[0],
				Output: args[1],
				Image:  frame.Image(),
				Strips: strips,
				Seed:   seed,
			})
			if err != nil {
				return err
			}
			if err := imaging.Save(args[1], out.Image); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order:  %s\n", formatOrder(out.Order))
			fmt.Fprintf(cmd.OutOrStdout(), "output: %s%s\n", args[1], fileSize(args[1]))
			return nil
		},
	}

	cmd.Flags().IntVarP(&strips, "strips", "n", 0, "number of strips")
	cmd.Flags().Int64Var(&seed, "seed", 1, "shuffle seed")
	cmd.MarkFlagRequired("strips")
	return cmd
}

func (a *App) newDetectCmd() *cobra.Command {
	var minWidth int

	cmd := &cobra.Command{
		Use:   "detect <input>",
		Short: "Estimate the strip count of a shredded image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-width") {
				minWidth = a.cfg.Unshred.MinWidth
			}
			frame, err := imaging.LoadFile(args[0])
			if err != nil {
				return err
			}
			res, err := detection.DetectStripWidth(frame, minWidth)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "strips:      %d\n", res.Strips)
			fmt.Fprintf(w, "strip width: %d\n", res.StripWidth)
			fmt.Fprintf(w, "confidence:  %.2f\n", res.Confidence)
			if len(res.Candidates) > 0 {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STRIPS\tWIDTH\tCONTRAST")
				for i, c := range res.Candidates {
					if i == 5 {
						break
					}
					fmt.Fprintf(tw, "%d\t%d\t%.2f\n", c.Strips, c.StripWidth, c.Contrast)
				}
				tw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minWidth, "min-width", 2, "narrowest strip width to consider")
	return cmd
}

func (a *App) newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two images of the same size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fa, err := imaging.LoadFile(args[0])
			if err != nil {
				return err
			}
			fb, err := imaging.LoadFile(args[1])
			if err != nil {
				return err
			}
			res, err := imaging.CompareFrames(fa, fb)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "similarity:       %.4f\n", res.SimilarityScore)
			fmt.Fprintf(w, "pixels different: %d of %d\n", res.PixelsDifferent, res.TotalPixels)
			fmt.Fprintf(w, "mean difference:  %.2f\n", res.AverageColorDiff)
			return nil
		},
	}
}

func (a *App) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server.Version = a.info.Version
			srv := server.New(
				server.WithUnshredder(a.unshredder),
				server.WithPipeline(a.pipe),
				server.WithLogger(a.log),
				server.WithMinStripWidth(a.cfg.Unshred.MinWidth),
			)
			a.log.Debug("mcp server starting", "version", a.info.Version, "commit", a.info.GitCommit)
			return srv.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (a *App) newHTTPCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.HTTP.Addr
			}
			opts := []httpapi.Option{httpapi.WithLogger(a.log)}
			if a.store != nil {
				opts = append(opts, httpapi.WithStore(a.store))
			}
			return httpapi.New(a.pipe, opts...).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *App) newWatchCmd() *cobra.Command {
	var (
		strips   int
		settle   time.Duration
		existing bool
	)

	cmd := &cobra.Command{
		Use:   "watch [input-dir] [output-dir]",
		Short: "Unshred images as they are dropped into a directory",
		Long: `Watch a directory and write a reconstruction of every image that appears in it
to the output directory as <name>.unshredded.png. Directories default to
watch.input_dir and watch.output_dir from the config file.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := a.cfg.Watch.InputDir, a.cfg.Watch.OutputDir
			if len(args) > 0 {
				in = args[0]
			}
			if len(args) > 1 {
				out = args[1]
			}
			n, err := a.stripsOrDefault(strips, cmd.Flags().Changed("strips"))
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("settle") {
				settle = time.Duration(a.cfg.Watch.SettleMS) * time.Millisecond
			}

			w, err := watch.New(watch.Config{
				InputDir:        in,
				OutputDir:       out,
				Strips:          n,
				Settle:          settle,
				ProcessExisting: existing,
			}, a.pipe,
				watch.WithLogger(a.log),
				watch.WithNotify(func(r watch.Result) {
					if r.Err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Source, r.Err)
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", r.Source, r.Output)
				}))
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&strips, "strips", "n", 0, "number of strips (0 = detect per file)")
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "quiet period before a file is processed")
	cmd.Flags().BoolVar(&existing, "existing", false, "also process files already in the input directory")
	return cmd
}

func (a *App) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return fmt.Errorf("run history is disabled")
			}
			runs, err := a.store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tSTATUS\tSTRIPS\tSIZE\tSOURCE\tORDER")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%dx%d\t%s\t%s\n",
					shortID(r.ID), humanize.Time(r.CreatedAt), r.Status, r.Strips,
					r.Width, r.Height, r.Source, formatOrder(r.Order))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "image-unshred %s\n", a.info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  Build time: %s\n", a.info.BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", a.info.GitCommit)
		},
	}
}

func formatOrder(order unshred.StripOrder) string {
	parts := make([]string, len(order))
	for i, s := range order {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, " ")
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return " (" + humanize.Bytes(uint64(info.Size())) + ")"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
