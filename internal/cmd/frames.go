package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/dataset"
	"github.com/MeKo-Tech/globegrid/internal/gridsource"
	"github.com/MeKo-Tech/globegrid/internal/imgenc"
	"github.com/MeKo-Tech/globegrid/internal/raster"
	"github.com/MeKo-Tech/globegrid/internal/worker"
)

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Render a spinning-globe frame sequence",
	Long: `Fetch (or synthesize) a grid once, then render a sequence of frames with
the globe rotated a fixed step per frame, in parallel. Useful for producing
animation input (e.g. for ffmpeg).`,
	RunE: runFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)

	framesCmd.Flags().String("dataset", "temperature", "Dataset category (temperature, precipitation, wind, pressure, humidity)")
	framesCmd.Flags().String("url", "", "Full grid document URL (defaults to --source; empty: synthetic)")
	framesCmd.Flags().String("time", "", "Upstream time step identifier")
	framesCmd.Flags().IntP("width", "W", 1024, "Canvas width in pixels")
	framesCmd.Flags().IntP("height", "H", 512, "Canvas height in pixels")
	framesCmd.Flags().IntP("count", "n", 36, "Number of frames (one full revolution)")
	framesCmd.Flags().Float64("tilt", 0, "Latitudinal view tilt in degrees")
	framesCmd.Flags().Bool("smooth", true, "Use the smooth sampling strategy (false: blocky cell fill)")
	framesCmd.Flags().Float64("opacity", 1.0, "Layer opacity (0..1)")
	framesCmd.Flags().Int64("seed", 1337, "Seed for synthetic demo grids")
	framesCmd.Flags().Int("workers", runtime.NumCPU(), "Parallel render workers")
	framesCmd.Flags().String("format", imgenc.FormatPNG, "Frame image format (png or webp)")
	framesCmd.Flags().StringP("output-dir", "o", "frames", "Directory for frame_NNNN images")
	framesCmd.Flags().Bool("progress", true, "Show a progress bar on stderr")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, framesCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("frames.dataset", "dataset")
	mustBind("frames.url", "url")
	mustBind("frames.time", "time")
	mustBind("frames.width", "width")
	mustBind("frames.height", "height")
	mustBind("frames.count", "count")
	mustBind("frames.tilt", "tilt")
	mustBind("frames.smooth", "smooth")
	mustBind("frames.opacity", "opacity")
	mustBind("frames.seed", "seed")
	mustBind("frames.workers", "workers")
	mustBind("frames.format", "format")
	mustBind("frames.output_dir", "output-dir")
	mustBind("frames.progress", "progress")
}

// frameRenderer renders one frame per task from a shared, read-only payload
// template. Each call uses its own canvas so frames render concurrently.
type frameRenderer struct {
	template raster.Payload
	dir      string
	format   string
}

func (fr *frameRenderer) RenderFrame(ctx context.Context, task worker.Task) (string, error) {
	p := fr.template
	p.Rotate = task.Rotate

	dst := raster.NewSurface(p.Width, p.Height)
	cancelled := func() bool { return ctx.Err() != nil }
	if err := raster.New(logger).Render(dst.Image(), &p, cancelled); err != nil {
		return "", err
	}

	path := filepath.Join(fr.dir, fmt.Sprintf("frame_%04d.%s", task.Index, fr.format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create frame file: %w", err)
	}
	defer f.Close() // nolint:errcheck

	if err := imgenc.Encode(f, dst.Image(), fr.format); err != nil {
		return "", fmt.Errorf("failed to encode frame: %w", err)
	}
	return path, nil
}

func runFrames(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	category, err := dataset.Parse(viper.GetString("frames.dataset"))
	if err != nil {
		return err
	}
	count := viper.GetInt("frames.count")
	if count <= 0 {
		return fmt.Errorf("frame count must be positive, got %d", count)
	}
	format := viper.GetString("frames.format")
	if format != imgenc.FormatPNG && format != imgenc.FormatWebP {
		return fmt.Errorf("unsupported frame format %q", format)
	}

	fetcher, closeStore, err := newFetcher(viper.GetInt64("frames.seed"))
	if err != nil {
		return err
	}
	defer closeStore() // nolint:errcheck

	url := viper.GetString("frames.url")
	if url == "" {
		url = viper.GetString("source")
	}
	req := gridsource.Request{URL: url, Category: category, TimeStep: viper.GetString("frames.time")}

	logger.Info("Fetching grid", "dataset", category.String(), "url", url)
	g, rng, err := gridsource.Load(cmd.Context(), fetcher, req)
	if err != nil {
		return fmt.Errorf("failed to load grid: %w", err)
	}

	dir := viper.GetString("frames.output_dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	stops, err := colormap.ParseHexColors(category.DefaultColors())
	if err != nil {
		return err
	}

	fr := &frameRenderer{
		template: raster.Payload{
			Width:          viper.GetInt("frames.width"),
			Height:         viper.GetInt("frames.height"),
			Grid:           g,
			Stops:          stops,
			Range:          rng,
			HideZeroValues: category.HideZeroDefault(),
			Smooth:         viper.GetBool("frames.smooth"),
			Opacity:        viper.GetFloat64("frames.opacity"),
		},
		dir:    dir,
		format: format,
	}

	tilt := viper.GetFloat64("frames.tilt")
	tasks := make([]worker.Task, count)
	for i := range tasks {
		tasks[i] = worker.Task{
			Index:    i,
			Rotate:   [3]float64{float64(i) * 360 / float64(count), tilt, 0},
			TimeStep: req.TimeStep,
		}
	}

	progress := worker.NewProgress(count, viper.GetBool("frames.progress"))
	pool := worker.New(worker.Config{
		Workers:    viper.GetInt("frames.workers"),
		Renderer:   fr,
		OnProgress: progress.Callback(),
	})

	logger.Info("Rendering frames", "count", count, "workers", viper.GetInt("frames.workers"), "dir", dir)
	results := pool.Run(cmd.Context(), tasks)
	progress.Done()

	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, fmt.Sprintf("frame %d: %v", r.Task.Index, r.Err))
		}
	}
	logger.Info(progress.Summary())
	if len(failed) > 0 {
		return fmt.Errorf("%d frames failed:\n%s", len(failed), strings.Join(failed, "\n"))
	}
	return nil
}
