// Command duraq is an administrative CLI for a duraq queue. It opens the
// on-disk store directly and drives the queue.Queue Go API in-process --
// there is no network server here, only local operations against a data
// directory that must not be open elsewhere at the same time.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/duraq/duraq/internal/config"
	"github.com/duraq/duraq/internal/queue"
	logpkg "github.com/duraq/duraq/pkg/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "duraq",
		Short: "duraq queue administration CLI",
		Long:  "duraq manages a single durable FIFO queue backed by a local Pebble store.",
	}

	root.PersistentFlags().String("data-dir", "", "queue data directory (default: from config/env)")
	root.PersistentFlags().String("config", "", "path to a JSON or YAML config file")
	root.PersistentFlags().String("log-level", "", "debug, info, warn, or error")

	root.AddCommand(
		newPushCommand(),
		newPopCommand(),
		newStatsCommand(),
		newRecoverCommand(),
	)
	return root
}

// loadConfig resolves the effective configuration from --config, then
// environment overlay, then the --data-dir flag, in that order of
// increasing precedence.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(configPath)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfgpkg.FromEnv(&cfg)

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

func newLogger(cfg cfgpkg.Config) logpkg.Logger {
	level, err := logpkg.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logpkg.InfoLevel
	}
	return logpkg.NewLogger(logpkg.WithLevel(level))
}

func openQueue(cmd *cobra.Command) (*queue.Queue, cfgpkg.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfgpkg.Config{}, err
	}
	q, err := queue.Open(queue.Options{
		DataDir: cfg.DataDir,
		Fsync:   cfg.FsyncMode(),
		Logger:  newLogger(cfg),
	})
	if err != nil {
		return nil, cfgpkg.Config{}, fmt.Errorf("open queue at %s: %w", cfg.DataDir, err)
	}
	return q, cfg, nil
}

func newPushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push one item onto the queue",
		Long:  "Push reads the payload from --data, or from stdin if --data is omitted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			data, _ := cmd.Flags().GetString("data")
			var payload []byte
			if data != "" {
				payload = []byte(data)
			} else {
				payload, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			id, err := q.Push(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%d bytes=%d\n", id, len(payload))
			return nil
		},
	}
	cmd.Flags().String("data", "", "payload to push (reads stdin if omitted)")
	return cmd
}

func newPopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pop",
		Short: "Pop the next available item",
		Long:  "Pop checks out the oldest available item. With --remove it also deletes it; otherwise it is released back to the queue, so a later pop returns it again.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, _, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			waitMs, _ := cmd.Flags().GetInt64("wait-ms")
			remove, _ := cmd.Flags().GetBool("remove")
			base64Out, _ := cmd.Flags().GetBool("base64")

			ctx := cmd.Context()
			var item *queue.OpenItem
			if waitMs > 0 {
				item, err = q.Wait(ctx, waitMs)
			} else {
				item, err = q.PopOpen(ctx)
			}
			if err != nil {
				return err
			}

			if remove {
				value := item.Value
				if item.Header != nil {
					value, err = assembleChunks(ctx, q, item)
					if err != nil {
						return err
					}
				}
				if err := q.PopClose(ctx, true, item.ID, item.Header); err != nil {
					return err
				}
				return printItem(cmd, item.ID, value, base64Out)
			}

			value := item.Value
			if item.Header != nil {
				value, err = assembleChunks(ctx, q, item)
				if err != nil {
					return err
				}
			}
			if err := q.PopClose(ctx, false, item.ID, item.Header); err != nil {
				return err
			}
			return printItem(cmd, item.ID, value, base64Out)
		},
	}
	cmd.Flags().Int64("wait-ms", 0, "block up to this many milliseconds for an item to appear")
	cmd.Flags().Bool("remove", false, "permanently remove the item instead of releasing it back to the queue")
	cmd.Flags().Bool("base64", false, "print the payload base64-encoded")
	return cmd
}

func assembleChunks(ctx context.Context, q *queue.Queue, item *queue.OpenItem) ([]byte, error) {
	h := item.Header
	out := make([]byte, 0, h.Size)
	for i := h.Beg; i < h.End; i++ {
		chunk, err := q.ReadChunk(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", i, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func printItem(cmd *cobra.Command, id uint64, value []byte, b64 bool) error {
	if b64 {
		fmt.Fprintf(cmd.OutOrStdout(), "id=%d data=%s\n", id, base64.StdEncoding.EncodeToString(value))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "id=%d bytes=%d\n", id, len(value))
	_, err := cmd.OutOrStdout().Write(value)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print queue statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, cfg, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			name := "duraq"
			_ = cfg
			return q.WriteStats(cmd.Context(), name, cmd.OutOrStdout())
		},
	}
	return cmd
}

func newRecoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Open the store to run crash recovery and report the result",
		Long:  "Recover opens the data directory, which runs the same startup scan used on every open, and prints the resulting cursors and outstanding-item count.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			q, _, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			stats, err := q.StatsSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recovered in %s\n", time.Since(start))
			fmt.Fprintf(cmd.OutOrStdout(), "queue_tail=%d queue_head=%d chunks_head=%d items=%d open_transactions=%d\n",
				stats.QueueTail, stats.QueueHead, stats.ChunksHead, stats.Items, stats.OpenTransactions)
			return nil
		},
	}
	return cmd
}
