// Package handlers provides command handler functions for batchctl info operations.
//
// This file contains the coordinator status handler, giving operators a
// snapshot of queue depth, batch history, dedup set size, and handoff
// progress for monitoring and capacity assessment.
package handlers

import (
	"context"
	"time"

	"github.com/concave-dev/batchd/cmd/batchctl/config"
	"github.com/concave-dev/batchd/cmd/batchctl/display"
	"github.com/concave-dev/batchd/cmd/batchctl/utils"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/requester"
	"github.com/spf13/cobra"
)

// HandleInfo handles the info command for retrieving the coordinator status
// snapshot. Provides high-level visibility into coordinator load and handoff
// progress for operational monitoring.
//
// Critical for spotting backpressure building up (pending count approaching
// queue capacity) and for confirming that checkpoint handoffs are keeping
// the dedup history bounded during long uptimes.
func HandleInfo(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	logging.Info("Fetching coordinator status from API server: %s", config.Global.APIAddr)

	originator, err := resolveOriginator()
	if err != nil {
		return err
	}

	timeout := time.Duration(config.Global.Timeout) * time.Second
	apiClient := requester.NewClient(config.Global.APIAddr, originator, "", timeout)

	status, err := apiClient.Status(context.Background())
	if err != nil {
		connectionHint(err)
		return err
	}

	display.DisplayStatus(status)
	logging.Success("Successfully retrieved coordinator status (%d pending, %d batches completed)",
		status.PendingCount, status.BatchesCompleted)
	return nil
}
