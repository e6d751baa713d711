package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/dataset"
	"github.com/MeKo-Tech/globegrid/internal/gridsource"
	"github.com/MeKo-Tech/globegrid/internal/host"
	"github.com/MeKo-Tech/globegrid/internal/imgenc"
	"github.com/MeKo-Tech/globegrid/internal/raster"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one globe snapshot to an image file",
	Long:  `Fetch (or synthesize) a grid, rasterize it onto the globe, and write a PNG or WebP snapshot.`,
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("dataset", "temperature", "Dataset category (temperature, precipitation, wind, pressure, humidity)")
	renderCmd.Flags().String("url", "", "Full grid document URL (defaults to --source; empty: synthetic)")
	renderCmd.Flags().String("time", "", "Upstream time step identifier")
	renderCmd.Flags().IntP("width", "W", 1024, "Canvas width in pixels")
	renderCmd.Flags().IntP("height", "H", 512, "Canvas height in pixels")
	renderCmd.Flags().String("rotate", "0,0,0", "View rotation: lon,lat,roll in degrees")
	renderCmd.Flags().Float64("scale", 0, "Pixel scale override (0: fit sphere to canvas)")
	renderCmd.Flags().Bool("smooth", true, "Use the smooth sampling strategy (false: blocky cell fill)")
	renderCmd.Flags().Float64("opacity", 1.0, "Layer opacity (0..1)")
	renderCmd.Flags().String("colors", "", "Comma-separated hex color ramp (empty: dataset default)")
	renderCmd.Flags().Float64("min", 0, "Colorbar minimum (used with --max)")
	renderCmd.Flags().Float64("max", 0, "Colorbar maximum (0,0: document or dataset range)")
	renderCmd.Flags().Int64("seed", 1337, "Seed for synthetic demo grids")
	renderCmd.Flags().Duration("timeout", 60*time.Second, "Time to wait for render completion")
	renderCmd.Flags().StringP("output", "o", "globe.png", "Output path (.png or .webp)")

	mustBind := func(key, name string) {
		if err := viper.BindPFlag(key, renderCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}
	mustBind("render.dataset", "dataset")
	mustBind("render.url", "url")
	mustBind("render.time", "time")
	mustBind("render.width", "width")
	mustBind("render.height", "height")
	mustBind("render.rotate", "rotate")
	mustBind("render.scale", "scale")
	mustBind("render.smooth", "smooth")
	mustBind("render.opacity", "opacity")
	mustBind("render.colors", "colors")
	mustBind("render.min", "min")
	mustBind("render.max", "max")
	mustBind("render.seed", "seed")
	mustBind("render.timeout", "timeout")
	mustBind("render.output", "output")
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	category, err := dataset.Parse(viper.GetString("render.dataset"))
	if err != nil {
		return err
	}
	rotate, err := parseRotate(viper.GetString("render.rotate"))
	if err != nil {
		return err
	}
	width := viper.GetInt("render.width")
	height := viper.GetInt("render.height")
	output := viper.GetString("render.output")
	timeout := viper.GetDuration("render.timeout")

	format := strings.TrimPrefix(filepath.Ext(output), ".")
	if format == "" {
		format = imgenc.FormatPNG
	}

	fetcher, closeStore, err := newFetcher(viper.GetInt64("render.seed"))
	if err != nil {
		return err
	}
	defer closeStore() // nolint:errcheck

	url := viper.GetString("render.url")
	if url == "" {
		url = viper.GetString("source")
	}
	req := gridsource.Request{URL: url, Category: category, TimeStep: viper.GetString("render.time")}

	logger.Info("Fetching grid", "dataset", category.String(), "url", url)
	g, rng, err := gridsource.Load(cmd.Context(), fetcher, req)
	if err != nil {
		return fmt.Errorf("failed to load grid: %w", err)
	}

	if min, max := viper.GetFloat64("render.min"), viper.GetFloat64("render.max"); min != 0 || max != 0 {
		rng = colormap.Range{Min: min, Max: max}
	}
	colors := category.DefaultColors()
	if s := viper.GetString("render.colors"); s != "" {
		colors = strings.Split(s, ",")
	}

	renderReq := &host.Request{
		Width:               width,
		Height:              height,
		Lat:                 g.Lats,
		Lon:                 g.Lons,
		Values:              g.Values,
		Mask:                g.Mask,
		Min:                 rng.Min,
		Max:                 rng.Max,
		Colors:              colors,
		HideZeroValues:      category.HideZeroDefault(),
		SmoothGridBoxValues: viper.GetBool("render.smooth"),
		Opacity:             viper.GetFloat64("render.opacity"),
		Rotate:              rotate,
		Scale:               viper.GetFloat64("render.scale"),
	}

	h := host.New(logger)
	defer h.Close()

	surface := raster.NewSurface(width, height)
	h.Init(surface)
	gen := h.Render(renderReq)

	logger.Info("Rendering", "size", fmt.Sprintf("%dx%d", width, height), "smooth", renderReq.SmoothGridBoxValues)
	if err := awaitRendered(h, gen, timeout); err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close() // nolint:errcheck

	if err := imgenc.Encode(f, surface.Image(), format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	logger.Info("Snapshot written", "path", output, "format", format)
	return nil
}

// awaitRendered drains host events until the completion for gen arrives.
// Absence of the completion within the timeout is the only failure signal
// the host surfaces.
func awaitRendered(h *host.Host, gen uint64, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-h.Events():
			switch e := ev.(type) {
			case host.Rendered:
				if e.Generation == gen {
					return nil
				}
			case host.Debug:
				if errMsg, ok := e.Context["error"]; ok {
					return fmt.Errorf("render failed at %s: %v", e.Stage, errMsg)
				}
				logger.Debug("host debug", "stage", e.Stage, "context", e.Context)
			}
		case <-deadline:
			return fmt.Errorf("render did not complete within %s", timeout)
		}
	}
}
