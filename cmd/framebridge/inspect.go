package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/framebridge/framebridge/internal/config"
	"github.com/framebridge/framebridge/pkg/video"
)

func newInspectCmd(root *rootOptions) *cobra.Command {
	opts := &sourceOptions{}
	var memoize bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the attributes of one frame and its I420 view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("memoize") {
				memoize = root.cfg.Handle.Memoize
			}
			return runInspect(cmd.OutOrStdout(), root.cfg, opts, memoize)
		},
	}
	addSourceFlags(cmd.Flags(), opts)
	cmd.Flags().BoolVar(&memoize, "memoize", false, "Keep the first conversion of the frame")
	return cmd
}

func runInspect(w io.Writer, cfg config.Config, opts *sourceOptions, memoize bool) error {
	src, device, err := openSource(opts)
	if err != nil {
		return err
	}
	defer src.Close()

	poolOpts := []video.PoolOption{video.WithStrideAlignment(cfg.Pool.StrideAlignment)}
	if device != nil {
		poolOpts = append(poolOpts, video.WithDevice(device))
	}
	pool, err := video.NewResourcePool(poolOpts...)
	if err != nil {
		return err
	}

	f, err := src.Next()
	if err != nil {
		return err
	}
	handleOpts := []video.HandleOption{video.WithConverter(video.NewSoftwareConverter(), pool)}
	if memoize {
		handleOpts = append(handleOpts, video.WithMemoization())
	}
	h := video.NewHandle(f, handleOpts...)
	defer h.Release()

	h.LogDebug()
	if err := h.DumpDebug(w); err != nil {
		return err
	}

	v, err := h.ToPlanar()
	if err != nil {
		fmt.Fprintf(w, "I420 view unavailable: %v\n", err)
		return nil
	}
	defer v.Release()

	again, err := h.ToPlanar()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "I420 view shared %t\n", again == v)
	again.Release()

	for plane := 0; plane < 3; plane++ {
		stride, _ := v.Stride(plane)
		rows, _ := v.Rows(plane)
		rowBytes, _ := v.RowBytes(plane)
		fmt.Fprintf(w, "I420 plane %d stride %d rows %d row bytes %d\n", plane, stride, rows, rowBytes)
	}
	return nil
}
