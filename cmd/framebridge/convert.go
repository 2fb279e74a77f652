package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/framebridge/framebridge/internal/config"
	"github.com/framebridge/framebridge/pkg/sink"
	"github.com/framebridge/framebridge/pkg/video"
)

type convertOptions struct {
	source      sourceOptions
	frames      int
	workers     int
	out         string
	pid         uint32
	memoize     bool
	metricsAddr string
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert frames to I420 and write or send them",
		Long: `Reads frames from the selected source, converts them to I420 on a pool of workers ` +
			`and writes them tightly packed to --out and/or sends them to the overlay of process --pid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("memoize") {
				opts.memoize = root.cfg.Handle.Memoize
			}
			if !cmd.Flags().Changed("metrics-addr") {
				opts.metricsAddr = root.cfg.Metrics.Addr
			}
			stats, err := runConvert(cmd.Context(), root.cfg, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d frames, skipped %d\n", stats.converted, stats.skipped)
			return nil
		},
	}

	fs := cmd.Flags()
	addSourceFlags(fs, &opts.source)
	fs.IntVarP(&opts.frames, "frames", "n", 30, "Number of frames to convert (0 runs until interrupted)")
	fs.IntVarP(&opts.workers, "workers", "w", 2, "Concurrent conversions")
	fs.StringVarP(&opts.out, "out", "o", "", "File receiving packed I420 frames")
	fs.Uint32Var(&opts.pid, "pid", 0, "Send frames to the overlay of this process")
	fs.BoolVar(&opts.memoize, "memoize", false, "Keep the first conversion of each frame")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

type convertStats struct {
	converted int
	skipped   int
}

type convertJob struct {
	seq    int
	handle *video.Handle
}

type convertResult struct {
	seq           int
	width, height int
	// data is nil for frames that could not be converted.
	data []byte
}

func runConvert(ctx context.Context, cfg config.Config, opts *convertOptions) (convertStats, error) {
	var stats convertStats
	if opts.workers <= 0 {
		return stats, fmt.Errorf("--workers must be positive, got %d", opts.workers)
	}

	src, device, err := openSource(&opts.source)
	if err != nil {
		return stats, err
	}
	defer src.Close()

	poolOpts := []video.PoolOption{video.WithStrideAlignment(cfg.Pool.StrideAlignment)}
	if device != nil {
		poolOpts = append(poolOpts, video.WithDevice(device))
	}
	pool, err := video.NewResourcePool(poolOpts...)
	if err != nil {
		return stats, err
	}

	handleOpts := []video.HandleOption{video.WithConverter(video.NewSoftwareConverter(), pool)}
	if opts.memoize {
		handleOpts = append(handleOpts, video.WithMemoization())
	}

	var out *output
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return stats, err
		}
		out = newOutput(f)
	}

	var overlay *sink.Sink
	if opts.pid != 0 {
		overlay = sink.New(sink.NewLibraryResolver(cfg.Sink.Symbol, cfg.SinkPaths()...))
		overlay.SetProcessID(opts.pid)
	}

	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan convertJob)
	results := make(chan convertResult)

	g.Go(func() error {
		defer close(jobs)
		for seq := 0; opts.frames <= 0 || seq < opts.frames; seq++ {
			f, err := src.Next()
			if err != nil {
				return fmt.Errorf("frame %d: %w", seq, err)
			}
			h := video.NewHandle(f, handleOpts...)
			select {
			case jobs <- convertJob{seq: seq, handle: h}:
			case <-ctx.Done():
				h.Release()
				return nil
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for i := 0; i < opts.workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for job := range jobs {
				r, err := convertFrame(job)
				if err != nil {
					return err
				}
				select {
				case results <- r:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	g.Go(func() error {
		// Workers finish out of order; frames are emitted in capture order.
		pending := make(map[int]convertResult)
		next := 0
		for r := range results {
			pending[r.seq] = r
			for {
				p, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++

				if p.data == nil {
					stats.skipped++
					continue
				}
				if err := emit(p, writerOf(out), overlay); err != nil {
					return err
				}
				stats.converted++
			}
		}
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if out != nil {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to write %s: %w", opts.out, cerr)
		}
	}
	return stats, err
}

// output buffers packed frames in front of a file. Close must be called to
// learn whether the buffered tail reached the file.
type output struct {
	*bufio.Writer
	file io.Closer
}

func newOutput(w io.WriteCloser) *output {
	return &output{Writer: bufio.NewWriter(w), file: w}
}

// Close flushes the buffer and closes the file, returning the first error.
func (o *output) Close() error {
	err := o.Flush()
	if cerr := o.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func convertFrame(job convertJob) (convertResult, error) {
	defer job.handle.Release()

	v, err := job.handle.ToPlanar()
	if errors.Is(err, video.ErrUnsupportedConversion) {
		logger.Warnf("frame %d skipped: %v", job.seq, err)
		return convertResult{seq: job.seq}, nil
	}
	if err != nil {
		return convertResult{}, fmt.Errorf("frame %d: %w", job.seq, err)
	}
	defer v.Release()

	data := make([]byte, video.I420Size(v.Width(), v.Height()))
	n, err := video.PackI420(data, v)
	if err != nil {
		return convertResult{}, err
	}
	return convertResult{seq: job.seq, width: v.Width(), height: v.Height(), data: data[:n]}, nil
}

// writerOf keeps a nil *output from becoming a non-nil io.Writer.
func writerOf(o *output) io.Writer {
	if o == nil {
		return nil
	}
	return o
}

func emit(r convertResult, out io.Writer, overlay *sink.Sink) error {
	if out != nil {
		if _, err := out.Write(r.data); err != nil {
			return err
		}
	}
	if overlay != nil {
		err := overlay.SendFrame(uint32(r.width), uint32(r.height), r.data)
		switch {
		case errors.Is(err, sink.ErrUnavailable):
			// Logged once by the sink.
		case err != nil:
			logger.Warnf("frame %d not sent: %v", r.seq, err)
		}
	}
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	return srv
}
