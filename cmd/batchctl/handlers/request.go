// Package handlers provides command handler functions for batchctl request operations.
//
// This file contains the write request command handlers: submitting requests
// into the batching pipeline (optionally waiting for the batch confirmation
// on a local callback listener) and checking whether an idempotency key is
// still reserved on the coordinator.
//
// The request handlers manage:
// - Payload collection from inline flags, files, or stdin
// - Originator resolution with hostname fallback
// - Confirmation listener lifecycle for --wait submissions
// - Key derivation ordering so the listener registers before the submit
// - Connection error classification with actionable hints
//
// All request handlers follow consistent patterns with other resource
// handlers, providing standardized error handling, logging, and output
// formatting while maintaining clean separation of concerns.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/concave-dev/batchd/cmd/batchctl/config"
	"github.com/concave-dev/batchd/cmd/batchctl/display"
	"github.com/concave-dev/batchd/cmd/batchctl/utils"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/netutil"
	"github.com/concave-dev/batchd/internal/requester"
	internalutils "github.com/concave-dev/batchd/internal/utils"
	"github.com/spf13/cobra"
)

// resolveOriginator returns the configured originator or falls back to the
// lowercased hostname so every submission carries a stable producer identity.
// If the hostname is unavailable a random one-off identity is generated,
// which still submits fine but changes the derived key on every invocation.
func resolveOriginator() (string, error) {
	if config.Global.Originator != "" {
		return config.Global.Originator, nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		generated, genErr := internalutils.GenerateID()
		if genErr != nil {
			return "", fmt.Errorf("failed to resolve originator (use --originator): %w", err)
		}
		logging.Warn("Hostname unavailable, using generated originator %s (keys will not be stable across runs)", generated)
		return "originator-" + generated, nil
	}
	return strings.ToLower(hostname), nil
}

// collectPayload gathers the submission payload from --payload, --payload-file,
// or stdin and verifies it is valid JSON before anything touches the network.
func collectPayload() ([]byte, error) {
	if config.Request.Payload != "" && config.Request.PayloadFile != "" {
		return nil, fmt.Errorf("cannot use both --payload and --payload-file")
	}

	var payload []byte
	switch {
	case config.Request.Payload != "":
		payload = []byte(config.Request.Payload)
	case config.Request.PayloadFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		payload = data
	case config.Request.PayloadFile != "":
		data, err := os.ReadFile(config.Request.PayloadFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		payload = data
	default:
		return nil, fmt.Errorf("a payload is required (use --payload or --payload-file)")
	}

	if !json.Valid(payload) {
		return nil, fmt.Errorf("payload must be valid JSON")
	}
	return payload, nil
}

// connectionHint adds an actionable tip when the coordinator is unreachable.
func connectionHint(err error) {
	if netutil.IsConnectionRefusedError(err) {
		logging.Error("TIP: Check that batchd is running and reachable at %s", config.Global.APIAddr)
		logging.Error("     You can verify with: batchctl --api=%s info", config.Global.APIAddr)
	}
}

// HandleSubmit handles the request submit subcommand for sending a write
// request into the batching pipeline. With --wait, a local confirmation
// listener is started and registered for the request's key before the
// submission goes out, so the confirmation cannot slip past between submit
// and registration.
//
// Essential for producers that need write durability signals: the command
// only reports completion once the coordinator confirms the batch landed,
// or reports failure when the batch exhausted its write retries.
func HandleSubmit(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	payload, err := collectPayload()
	if err != nil {
		return err
	}

	originator, err := resolveOriginator()
	if err != nil {
		return err
	}

	ctx := context.Background()
	timeout := time.Duration(config.Global.Timeout) * time.Second

	// Start the confirmation listener first so its URL can be advertised on
	// the submission itself
	var listener *requester.Listener
	confirmAddr := ""
	if config.Request.Wait {
		listener = requester.NewListener(config.Request.ListenAddr)
		if err := listener.Start(); err != nil {
			return fmt.Errorf("failed to start confirmation listener: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			listener.Shutdown(shutdownCtx)
		}()
		confirmAddr = listener.URL()
		logging.Info("Confirmation listener started at %s", confirmAddr)
	}

	apiClient := requester.NewClient(config.Global.APIAddr, originator, confirmAddr, timeout)

	// Registration must precede the submit: a size-triggered flush can
	// confirm the batch before Submit even returns
	key := config.Request.Key
	if key == "" {
		key = apiClient.DeriveKey(payload)
	}
	if listener != nil {
		listener.Expect(key)
	}

	logging.Info("Submitting request with key %s to API server: %s",
		logging.FormatKey(key), config.Global.APIAddr)

	outcome, err := apiClient.Submit(ctx, key, payload)
	if err != nil {
		connectionHint(err)
		return err
	}

	display.DisplaySubmitOutcome(outcome)

	if outcome.Duplicate {
		logging.Success("Key %s already reserved, request not re-queued", logging.FormatKey(key))
		return nil
	}
	logging.Success("Request admitted with key %s (%d pending)",
		logging.FormatKey(key), outcome.PendingCount)

	if listener == nil {
		return nil
	}

	// Wait for the batch to flush and the coordinator to confirm
	wait := requester.DefaultConfirmationWait
	if config.Request.WaitTimeout > 0 {
		wait = time.Duration(config.Request.WaitTimeout) * time.Second
	}

	logging.Info("Waiting up to %v for batch confirmation...", wait)
	conf, err := listener.Await(ctx, key, wait)
	if err != nil {
		return fmt.Errorf("no confirmation received: %w", err)
	}

	display.DisplayConfirmation(conf)

	if conf.Status != "success" {
		return fmt.Errorf("batch %s failed after exhausting write retries", conf.BatchID)
	}
	logging.Success("Batch %s confirmed with %d requests", conf.BatchID, conf.Count)
	return nil
}

// HandleCheck handles the request check subcommand for probing whether an
// idempotency key is still reserved, meaning its request is pending or part
// of an in-flight batch. Enables producers to decide whether a resubmission
// would be admitted or deduplicated without actually submitting.
func HandleCheck(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	key := args[0]
	originator, err := resolveOriginator()
	if err != nil {
		return err
	}

	logging.Info("Checking key %s on API server: %s", logging.FormatKey(key), config.Global.APIAddr)

	timeout := time.Duration(config.Global.Timeout) * time.Second
	apiClient := requester.NewClient(config.Global.APIAddr, originator, "", timeout)

	duplicate, err := apiClient.CheckKey(context.Background(), key)
	if err != nil {
		connectionHint(err)
		return err
	}

	display.DisplayKeyCheck(key, duplicate)
	logging.Success("Key %s reserved: %t", logging.FormatKey(key), duplicate)
	return nil
}
