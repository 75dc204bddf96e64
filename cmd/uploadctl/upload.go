package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sir_venger/upload_lite/pkg/uploadclient"
)

func newUploadCmd() *cobra.Command {
	var (
		chunkSize int64
		parallel  int
		enqueue   bool
	)

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files chunk by chunk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(uploadclient.WithChunkSize(chunkSize), uploadclient.WithProgress(cmd.OutOrStdout()))

			srcs := make([]uploadclient.FileSource, 0, len(args))
			for _, path := range args {
				src, closeFn, err := uploadclient.OpenFile(path)
				if err != nil {
					return err
				}
				defer func() { _ = closeFn() }()
				srcs = append(srcs, src)
			}

			ctx := cmd.Context()
			if enqueue {
				queued, err := c.Enqueue(ctx, srcs)
				if err != nil {
					return fmt.Errorf("enqueue: %w", err)
				}
				for i := range queued {
					srcs[i].ID = queued[i].ID
				}
			}
			if err := c.Start(ctx); err != nil {
				return fmt.Errorf("start: %w", err)
			}

			files, err := c.UploadFiles(ctx, srcs, parallel)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d bytes\t%s\n", f.ID, f.Name, f.Loaded, f.Status)
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&chunkSize, "chunk-size", uploadclient.DefaultChunkSize, "chunk size in bytes")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 2, "files uploaded at once")
	cmd.Flags().BoolVar(&enqueue, "enqueue", true, "queue files before sending chunks")

	return cmd
}
