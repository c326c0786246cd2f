package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmdai/cmdai/internal/cache"
	"github.com/cmdai/cmdai/internal/output"
	"github.com/cmdai/cmdai/internal/utils"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the cached model store",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached model count and total size",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		return writeCacheOutput(map[string]any{
			"dir":         stats.Dir,
			"count":       stats.Count,
			"total_bytes": stats.TotalBytes,
			"model_ids":   stats.ModelIDs,
		}, func() {
			fmt.Printf("cache: %s\n", stats.Dir)
			fmt.Printf("models: %d (%d bytes)\n", stats.Count, stats.TotalBytes)
			for _, id := range stats.ModelIDs {
				fmt.Printf("  - %s\n", id)
			}
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached model",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		return writeCacheOutput(map[string]any{"cleared": true}, func() {
			fmt.Println("cache cleared")
		})
	},
}

var cacheVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Reverify checksums of every cached model",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		report, err := c.ValidateIntegrity()
		if err != nil {
			return fmt.Errorf("validating cache integrity: %w", err)
		}
		return writeCacheOutput(map[string]any{
			"valid":     report.Valid,
			"corrupted": report.Corrupted,
			"missing":   report.Missing,
		}, func() {
			fmt.Printf("valid: %d  corrupted: %d  missing: %d\n",
				len(report.Valid), len(report.Corrupted), len(report.Missing))
			for _, id := range report.Corrupted {
				fmt.Printf("  corrupted: %s\n", id)
			}
			for _, id := range report.Missing {
				fmt.Printf("  missing: %s\n", id)
			}
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheVerifyCmd)
}

func openCache() (*cache.Cache, error) {
	cfg, err := GetConfig(nil)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	c, err := cache.New(utils.ExpandHome(cfg.Cache.Dir), cfg.Cache.MaxSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

// writeCacheOutput writes payload as json/yaml per the global --output flag,
// or calls textFn to print the teacher's plain-text rendering.
func writeCacheOutput(payload map[string]any, textFn func()) error {
	switch GetOutput() {
	case "json", "yaml":
		out := output.New(output.Format(GetOutput()), output.WithStats(GetStats()))
		return out.Write(payload)
	default:
		textFn()
		return nil
	}
}
