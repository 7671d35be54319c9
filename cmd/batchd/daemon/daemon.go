// Package daemon provides the core batchd orchestration and lifecycle management.
//
// This package implements the complete initialization and coordination logic
// for the durable batching coordinator. It manages the startup, integration,
// and graceful shutdown of all daemon services: checkpoint restore, the
// pebble-backed ledger, the retrying write task, confirmation dispatch, the
// coordinator loop, and the HTTP admission API.
//
// DAEMON ARCHITECTURE:
// The daemon orchestrates five components in strict dependency order:
//
//   - Checkpoint Store: Pebble-backed state snapshots for restart recovery
//   - Ledger: Append-only pebble store that batches are durably written to
//   - Writer: Retry wrapper around the ledger with bounded exponential backoff
//   - Coordinator: Single-goroutine batching loop with idempotent admission
//   - HTTP API: REST admission interface for producers and CLI tools
//
// ATOMIC PORT BINDING:
// The API listener is pre-bound before any service starts. Binding up front
// reserves the port atomically, so a second daemon instance starting at the
// same moment cannot steal it between discovery and actual service binding.
// If the port is busy and was not explicitly chosen, the daemon falls back
// to the next available port.
//
// SERVICE INTEGRATION FLOW:
// 1. Pre-bind the API listener to guarantee the port reservation
// 2. Open the checkpoint store and restore the latest coordinator state
// 3. Open the ledger and wrap it in the retrying writer
// 4. Start the coordinator loop with the restored state
// 5. Start the HTTP API server on the pre-bound listener
// 6. Wait for shutdown signals, then stop in reverse dependency order
//
// CRASH RECOVERY:
// On startup the daemon restores pending requests, the dedup set, batch
// counters, and the handoff cycle from the most recent checkpoint. Requests
// admitted after the last checkpoint are lost on crash; requests persisted
// in a checkpoint survive restarts and flush normally once the loop resumes.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/concave-dev/batchd/cmd/batchd/config"
	"github.com/concave-dev/batchd/cmd/batchd/utils"
	"github.com/concave-dev/batchd/internal/api"
	"github.com/concave-dev/batchd/internal/checkpoint"
	"github.com/concave-dev/batchd/internal/confirm"
	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/netutil"
	"github.com/concave-dev/batchd/internal/version"
	"github.com/concave-dev/batchd/internal/writer"
)

// shutdownTimeout bounds how long graceful shutdown waits for the coordinator
// to drain, flush, and persist its final checkpoint. Sized above the writer's
// overall retry deadline so a struggling final flush still gets its attempts.
const shutdownTimeout = 45 * time.Second

// buildAPIConfig converts daemon config to API config
func buildAPIConfig(coord *coordinator.Coordinator) *api.Config {
	apiConfig := api.DefaultConfig()

	apiConfig.BindAddr = config.Global.APIAddr
	apiConfig.BindPort = config.Global.APIPort
	apiConfig.Coordinator = coord

	return apiConfig
}

// Run orchestrates the complete batchd lifecycle from initialization to
// graceful shutdown.
//
// EXECUTION FLOW:
//
// 1. PORT RESERVATION
//   - Pre-binds the API listener before any service starts
//   - Falls back to the next free port when the default is busy and the
//     user did not pin the address explicitly
//
// 2. STATE RESTORE
//   - Opens the checkpoint store under the data directory
//   - Restores pending requests, dedup keys, and counters from the most
//     recent checkpoint so batch IDs continue where the last run stopped
//
// 3. SERVICE STARTUP (Dependency Order)
//   - Ledger: durable batch storage, shared data directory with checkpoints
//   - Coordinator: batching loop wired to writer, dispatcher, and checkpoints
//   - HTTP API: admission endpoint on the pre-bound listener
//
// 4. OPERATIONAL PHASE
//   - Logs active endpoints and restored state
//   - Waits for shutdown signals (SIGINT/SIGTERM)
//
// 5. GRACEFUL SHUTDOWN
//   - Reverse dependency order: API → Coordinator → Ledger → Checkpoints
//   - The coordinator drains buffered admissions, force-flushes pending work,
//     and persists a final checkpoint before the stores close
func Run() error {
	// Apply logging level early to respect --log-level flag before any log output
	// This ensures --log-level=ERROR suppresses early Info logs
	logging.SetLevel(config.Global.LogLevel)
	logging.Info("Starting batchd v%s", version.BatchdVersion)

	// ============================================================================
	// PHASE 1: PORT RESERVATION (before any service starts)
	// ============================================================================

	originalAPIPort := config.Global.APIPort

	portBinder := netutil.NewPortBinder()
	apiListener, actualAPIPort, err := utils.PreBindServiceListener(
		"API", portBinder, config.Global.IsExplicitlySet(config.APIAddrField),
		config.Global.APIAddr, config.Global.APIPort, originalAPIPort)
	if err != nil {
		logging.Error("Failed to bind API listener: %v", err)
		return err
	}
	config.Global.APIPort = actualAPIPort

	// Display the final endpoint after binding is complete so producers can
	// copy the address even when the port fell back from the default
	submitCommand := fmt.Sprintf("  batchctl --api=%s:%d submit --payload='...'", config.Global.APIAddr, config.Global.APIPort)
	separatorLength := len(submitCommand)
	if separatorLength < 50 {
		separatorLength = 50 // Minimum width for aesthetics
	}
	separator := strings.Repeat("-", separatorLength)

	logging.Info("%s", separator)
	logging.Info("To submit requests to this coordinator, use:")
	logging.Info("%s", submitCommand)
	logging.Info("%s", separator)

	// ============================================================================
	// PHASE 2: STATE RESTORE
	// ============================================================================

	if err := os.MkdirAll(config.Global.DataDir, 0755); err != nil {
		apiListener.Close() // Release the pre-bound port on startup failure
		logging.Error("Failed to create data directory %s: %v", config.Global.DataDir, err)
		return fmt.Errorf("failed to create data directory %s: %w", config.Global.DataDir, err)
	}

	logging.Info("Opening checkpoint store in %s", config.Global.DataDir)
	checkpointStore, err := checkpoint.NewPebbleStore(config.Global.DataDir)
	if err != nil {
		apiListener.Close()
		logging.Error("Failed to open checkpoint store: %v", err)
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	checkpointManager, err := checkpoint.NewManager(checkpointStore)
	if err != nil {
		apiListener.Close()
		checkpointStore.Close()
		logging.Error("Failed to create checkpoint manager: %v", err)
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	restoredState, err := checkpointManager.Restore()
	if err != nil {
		apiListener.Close()
		checkpointStore.Close()
		logging.Error("Failed to restore checkpoint state: %v", err)
		return fmt.Errorf("failed to restore checkpoint state: %w", err)
	}
	if restoredState != nil {
		logging.Info("Restored checkpoint: %d pending, %d dedup keys, %d batches completed, handoff cycle %d",
			len(restoredState.Pending), len(restoredState.Dedup),
			restoredState.BatchesCompleted, restoredState.HandoffCycle)
	} else {
		logging.Info("No checkpoint found, starting with empty state")
	}

	// ============================================================================
	// PHASE 3: SERVICE STARTUP (with guaranteed port reservation)
	// ============================================================================

	logging.Info("Opening batch ledger in %s", config.Global.DataDir)
	ledger, err := writer.NewLedger(config.Global.DataDir)
	if err != nil {
		apiListener.Close()
		checkpointStore.Close()
		logging.Error("Failed to open batch ledger: %v", err)
		return fmt.Errorf("failed to open batch ledger: %w", err)
	}

	retryingWriter, err := writer.NewRetryingWriter(writer.DefaultRetryPolicy(), ledger)
	if err != nil {
		apiListener.Close()
		checkpointStore.Close()
		ledger.Close()
		logging.Error("Failed to create retrying writer: %v", err)
		return fmt.Errorf("failed to create retrying writer: %w", err)
	}

	dispatcher := confirm.NewDispatcher(confirm.DefaultTimeout)

	coordConfig := config.Global.CoordinatorConfig()
	coord, err := coordinator.New(coordConfig, retryingWriter, dispatcher, checkpointManager, restoredState)
	if err != nil {
		apiListener.Close()
		checkpointStore.Close()
		ledger.Close()
		logging.Error("Failed to create coordinator: %v", err)
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	coord.Start()

	logging.Info("Starting HTTP API server with pre-bound listener on %s", apiListener.Addr().String())

	apiConfig := buildAPIConfig(coord)
	apiServer, err := api.NewServerWithListener(apiConfig, apiListener)
	if err != nil {
		apiListener.Close() // Clean up pre-bound listener on error
		logging.Error("Failed to create API server: %v", err)
		return fmt.Errorf("failed to create API server: %w", err)
	}
	if err := apiServer.Start(); err != nil {
		// Note: apiServer now owns the listener, so it will handle cleanup
		logging.Error("Failed to start API server: %v", err)
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ============================================================================
	// STARTUP COMPLETE: All services running with guaranteed port reservation
	// ============================================================================

	logging.Success("batchd started successfully")
	logging.Info("Daemon running... Press Ctrl+C to shutdown")

	// Display service status
	logging.Info("Coordinator services started:")
	logging.Info("  - HTTP API: %s:%d", config.Global.APIAddr, config.Global.APIPort)
	logging.Info("  - Batching: size limit %d, flush wait %v", coordConfig.SizeLimit, coordConfig.FlushWait)
	logging.Info("  - Handoff: every %d events, cycle cap %d", coordConfig.HandoffEventLimit, coordConfig.HandoffCycleCap)
	logging.Info("  - Storage: %s", config.Global.DataDir)

	// Wait for shutdown signal
	select {
	case sig := <-sigCh:
		logging.Info("Received signal: %v", sig)
	case <-ctx.Done():
		logging.Info("Context cancelled")
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN SEQUENCE
	// Services are shut down in reverse dependency order so no new admissions
	// arrive while the coordinator drains and persists its final checkpoint:
	// API → Coordinator → Ledger → Checkpoint Store
	// ============================================================================

	logging.Info("Initiating graceful shutdown...")

	// Shutdown API server first so no admissions race the final drain
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Error shutting down API server: %v", err)
		}
	}

	// Stop the coordinator: drains buffered admissions, force-flushes pending
	// work through the writer, and persists the final checkpoint
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := coord.Stop(stopCtx); err != nil {
		logging.Error("Error stopping coordinator: %v", err)
	}

	// Close stores only after the coordinator has finished writing to them
	if err := ledger.Close(); err != nil {
		logging.Error("Error closing batch ledger: %v", err)
	}

	if err := checkpointStore.Close(); err != nil {
		logging.Error("Error closing checkpoint store: %v", err)
	}

	logging.Success("batchd shutdown completed")
	return nil
}
