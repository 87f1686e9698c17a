package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/basel-ax/promptpix/internal/db"
	"github.com/basel-ax/promptpix/internal/metrics"
	"github.com/basel-ax/promptpix/internal/repository"
	"github.com/basel-ax/promptpix/internal/service"
)

var auditCmd = &cobra.Command{
	Use:   "audit-orphans",
	Short: "Report stored images that no record references",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), auditTimeout)
		defer cancel()

		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		store, err := newArtifactStore(ctx, cfg)
		if err != nil {
			return err
		}
		m, err := metrics.New(prometheus.NewRegistry())
		if err != nil {
			return err
		}

		auditor := service.NewOrphanAuditor(store, repository.NewPostgresImageRepository(conn), m, log, cfg.OrphanGracePeriod)
		report, err := auditor.Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, obj := range report.Orphaned {
			fmt.Fprintln(out, obj.URL)
		}
		fmt.Fprintf(out, "scanned %d, orphaned %d\n", report.Scanned, len(report.Orphaned))
		return nil
	},
}
