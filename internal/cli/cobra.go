// Package cli wires the facelapse commands to the pipeline.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"facelapse/internal/config"
	"facelapse/internal/face"
	"facelapse/internal/pipeline"
	"facelapse/internal/sequence"
	"facelapse/internal/storage"
)

// Version is stamped at build time.
var Version = "dev"

const summaryPrecision = time.Millisecond

// Root carries the shared collaborators for all commands.
type Root struct {
	cfg   *config.Config
	log   *slog.Logger
	store *storage.Store
}

// NewRootCmd creates the root cobra command.
func NewRootCmd(cfg *config.Config, log *slog.Logger, store *storage.Store) *cobra.Command {
	root := &Root{cfg: cfg, log: log, store: store}

	rootCmd := &cobra.Command{
		Use:   "facelapse",
		Short: "facelapse turns a folder of portraits into a face-aligned timelapse GIF",
		Long: `Facelapse orders a directory of portrait photos chronologically, aligns
each detected face onto fixed eye positions, equalizes brightness, and
assembles the frames into a looping animated GIF.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd(root))
	rootCmd.AddCommand(newRunsCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newRunCmd(root *Root) *cobra.Command {
	var (
		input        string
		outputDir    string
		processedDir string
		name         string
		fps          int
		loop         int
		width        int
		height       int
		cascade      string
		landmarks    string
		jobs         int
		saveFrames   bool
		reconvert    bool
	)

	cmd := &cobra.Command{
		Use:   "run [input_directory]",
		Short: "Process a photo directory into an aligned timelapse GIF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if len(args) > 0 {
				cfg.Paths.InputDir = args[0]
			}
			if input != "" {
				cfg.Paths.InputDir = input
			}
			if outputDir != "" {
				cfg.Paths.OutputDir = outputDir
			}
			if processedDir != "" {
				cfg.Paths.ProcessedDir = processedDir
			}
			if name != "" {
				cfg.Output.Name = name
			}
			if cmd.Flags().Changed("fps") {
				cfg.Output.FPS = fps
			}
			if cmd.Flags().Changed("loop") {
				cfg.Output.Loop = loop
			}
			if cmd.Flags().Changed("width") {
				cfg.Output.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Output.Height = height
			}
			if cascade != "" {
				cfg.Detection.CascadePath = cascade
			}
			if landmarks != "" {
				cfg.Detection.LandmarkModelPath = landmarks
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Processing.ParallelJobs = jobs
			}
			if saveFrames {
				cfg.Output.SaveFrames = true
			}
			if reconvert {
				cfg.Processing.SkipExisting = false
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Paths.InputDir); err != nil {
				return fmt.Errorf("input directory: %w", err)
			}

			// Models load eagerly so a missing artifact fails here, not
			// mid-pipeline.
			locator, err := face.NewLocator(cfg.Detection)
			if err != nil {
				return err
			}
			defer locator.Close()

			runner := pipeline.NewRunner(
				cfg,
				root.log,
				root.store,
				sequence.New(cfg, root.log),
				pipeline.NewFrameProcessor(cfg, locator),
			)

			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("created %s: %d frames (%d dropped) in %s\n",
				summary.OutputPath, summary.FramesEncoded, summary.Dropped, summary.Duration.Round(summaryPrecision))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input directory of portrait photos")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory for the animation")
	cmd.Flags().StringVar(&processedDir, "processed-dir", "", "directory for converted intermediate JPEGs")
	cmd.Flags().StringVarP(&name, "name", "n", "", "output animation file name")
	cmd.Flags().IntVar(&fps, "fps", 0, "frames per second")
	cmd.Flags().IntVar(&loop, "loop", 0, "loop count (0 = infinite)")
	cmd.Flags().IntVar(&width, "width", 0, "output canvas width")
	cmd.Flags().IntVar(&height, "height", 0, "output canvas height")
	cmd.Flags().StringVar(&cascade, "cascade", "", "path to the face detector cascade")
	cmd.Flags().StringVar(&landmarks, "landmarks", "", "path to the 68-point landmark model")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel frame workers")
	cmd.Flags().BoolVar(&saveFrames, "save-frames", false, "also save numbered frames for inspection")
	cmd.Flags().BoolVar(&reconvert, "reconvert", false, "reconvert sources even if processed copies exist")

	return cmd
}

func newRunsCmd(root *Root) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := root.store.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%s  %-9s  found=%d converted=%d skipped=%d encoded=%d  %s\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Status,
					r.ImagesFound, r.ImagesConverted, r.ImagesSkipped, r.FramesEncoded, r.OutputPath)
				if r.Error != "" {
					fmt.Printf("    error: %s\n", r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum runs to show")
	return cmd
}

func newConfigCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.MarshalIndent(root.cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the facelapse version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("facelapse %s\n", Version)
		},
	}
}
