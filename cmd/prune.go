package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kayz/contentkit/internal/config"
	"github.com/kayz/contentkit/internal/logger"
	"github.com/kayz/contentkit/internal/persist"
)

var pruneEvery string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove audit files and recorded assemblies past retention",
	Long: `Remove audit files and recorded assemblies older than
promptbuild.audit_retention_days.

With --every, prune runs on a cron schedule until interrupted:
  contentkit prune --every "0 3 * * *"
  contentkit prune --every @hourly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if pruneEvery == "" {
			return pruneOnce(cfg, time.Now())
		}

		c := cron.New(cron.WithSeconds())
		if _, err := c.AddFunc(normalizeCron(pruneEvery), func() {
			if err := pruneOnce(cfg, time.Now()); err != nil {
				logger.Error("Scheduled prune failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		c.Start()
		logger.Info("Prune scheduled: %s", pruneEvery)

		// Wait for shutdown signal
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx := c.Stop()
		<-ctx.Done()
		logger.Info("Prune scheduler stopped")
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&pruneEvery, "every", "", "Cron schedule to prune repeatedly (5 or 6 fields, or a descriptor like @daily)")
	rootCmd.AddCommand(pruneCmd)
}

// normalizeCron prepends "0 " to standard 5-field cron expressions
// so they work with the 6-field (with seconds) parser.
func normalizeCron(schedule string) string {
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}

// pruneOnce removes audit files and records older than the retention window.
func pruneOnce(cfg *config.Config, now time.Time) error {
	if err := newBuilder(cfg).CleanupOldAuditFiles(); err != nil {
		return fmt.Errorf("cleanup audit files: %w", err)
	}

	days := cfg.PromptBuild.AuditRetentionDays
	if days <= 0 {
		return nil
	}
	path := recordsPath(cfg.PromptBuild)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	store, err := persist.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.PruneBefore(now.AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	logger.Info("Pruned %d recorded assemblies older than %d days", n, days)
	return nil
}
