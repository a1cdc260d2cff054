package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/geotape"
	"github.com/gogpu/geotape/annotate"
	"github.com/gogpu/geotape/config"
	"github.com/gogpu/geotape/internal/parallel"
	"github.com/gogpu/geotape/internal/telemetry"
	"github.com/gogpu/geotape/resample"
)

// job is one image (and optionally its annotations) to augment.
type job struct {
	image       string
	out         string
	annotations string
	annOut      string
}

func (c *CLI) applyCommand() *cobra.Command {
	var (
		configPath     string
		images         []string
		annotations    string
		out            string
		outAnnotations string
		interp         string
		fill           string
		workers        int
		metricsPath    string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Warp images and annotations with the composed transform",
		Long: `Apply composes the configuration for each input image and warps the pixels
and, when given, the annotations with the same matrix.

With several --image flags, --out names a directory and the images are
processed in parallel. Unseeded random operations draw fresh parameters
for every image.`,
		Example: `  geotape apply -c ops.yaml -i in.png -a in.json -o out.png --out-annotations out.json
  geotape apply -c ops.yaml -i a.jpg -i b.jpg -o augmented/ --interp nearest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			mode, err := resample.ParseInterpolation(interp)
			if err != nil {
				return err
			}
			opts := []resample.Option{resample.WithInterpolation(mode)}
			if fill != "" {
				col, err := parseHexColor(fill)
				if err != nil {
					return err
				}
				opts = append(opts, resample.WithFill(col))
			}

			jobs, err := planJobs(images, annotations, out, outAnnotations)
			if err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			p := newProgress(logger)
			engine := geotape.NewEngine()
			r := &runner{
				engine:  engine,
				cfg:     cfg,
				opts:    opts,
				logger:  logger,
				metrics: telemetry.New(engine),
			}
			runErr := r.run(cmd.Context(), jobs, workers)
			if metricsPath != "" {
				if err := r.metrics.WriteTextfile(metricsPath); err != nil {
					return errors.Join(runErr, fmt.Errorf("write metrics: %w", err))
				}
			}
			if runErr != nil {
				return runErr
			}
			p.done("Augmented images", "count", len(jobs), "cache_hits", engine.CacheStats().Hits)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "operation configuration (yaml, json or toml)")
	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "input image (repeatable)")
	cmd.Flags().StringVarP(&annotations, "annotations", "a", "", "annotations for a single input image (json or yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output image, or output directory for several images")
	cmd.Flags().StringVar(&outAnnotations, "out-annotations", "", "where to write transformed annotations")
	cmd.Flags().StringVar(&interp, "interp", "bilinear", "interpolation: nearest, approx_bilinear, bilinear, catmull_rom")
	cmd.Flags().StringVar(&fill, "fill", "", "constant border color as #RRGGBB or #RRGGBBAA (default black)")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "parallel image jobs (default GOMAXPROCS)")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "write Prometheus metrics in text format to this file")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// planJobs maps inputs to outputs. A single image writes to out directly;
// several images write into the directory out under their base names.
func planJobs(images []string, annotations, out, outAnnotations string) ([]job, error) {
	switch {
	case len(images) == 0:
		return nil, errors.New("no input images")
	case annotations != "" && len(images) > 1:
		return nil, errors.New("--annotations applies to a single --image")
	case outAnnotations != "" && annotations == "":
		return nil, errors.New("--out-annotations requires --annotations")
	}

	if len(images) == 1 {
		j := job{image: images[0], out: out, annotations: annotations, annOut: outAnnotations}
		if j.annotations != "" && j.annOut == "" {
			j.annOut = siblingPath(out, filepath.Ext(annotations))
		}
		return []job{j}, nil
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	jobs := make([]job, len(images))
	seen := make(map[string]string, len(images))
	for i, img := range images {
		dst := filepath.Join(out, filepath.Base(img))
		if prev, ok := seen[dst]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, img, dst)
		}
		seen[dst] = img
		jobs[i] = job{image: img, out: dst}
	}
	return jobs, nil
}

// siblingPath swaps the extension of path for ext.
func siblingPath(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}

type runner struct {
	engine  *geotape.Engine
	cfg     geotape.Config
	opts    []resample.Option
	logger  *log.Logger
	metrics *telemetry.Metrics
}

// run processes jobs on a worker pool and joins the per-image errors.
func (r *runner) run(ctx context.Context, jobs []job, workers int) error {
	size := workers
	if size > len(jobs) {
		size = len(jobs)
	}
	pool := parallel.NewPool(size)
	defer pool.Close()

	opts := r.opts
	if len(jobs) > 1 {
		// Images already run in parallel; keep each warp on its worker.
		opts = append(opts[:len(opts):len(opts)], resample.WithWorkers(1))
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	work := make([]func(), len(jobs))
	for i, j := range jobs {
		work[i] = func() {
			err := ctx.Err()
			if err == nil {
				start := time.Now()
				err = r.process(j, opts)
				r.metrics.ObserveImage(time.Since(start), err)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", j.image, err))
				mu.Unlock()
			}
		}
	}
	pool.ExecuteAll(work)
	return errors.Join(errs...)
}

func (r *runner) process(j job, opts []resample.Option) error {
	src, err := readImage(j.image)
	if err != nil {
		return err
	}
	b := src.Bounds()
	res, err := r.engine.Compose(r.cfg, b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	dst, err := resample.Warp(src, res, opts...)
	if err != nil {
		return err
	}
	if err := writeImage(j.out, dst); err != nil {
		return err
	}
	r.logger.Debug("warped", "image", j.image, "out", j.out,
		"from", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"to", fmt.Sprintf("%dx%d", res.Width, res.Height))

	if j.annotations == "" {
		return nil
	}
	anns, err := readAnnotations(j.annotations)
	if err != nil {
		return err
	}
	kept := annotate.Apply(res, anns)
	if dropped := len(anns) - len(kept); dropped > 0 {
		r.logger.Info("dropped annotations outside the canvas", "image", j.image, "count", dropped)
	}
	return writeAnnotations(j.annOut, kept)
}
