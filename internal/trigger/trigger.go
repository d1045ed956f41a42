// Package trigger turns document upload notifications into workflow
// instances. Upload events are at-least-once: the same upload may be
// delivered multiple times, and delivery of a redundant event must not start
// redundant work.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/precislabs/precis/internal/history"
	"github.com/precislabs/precis/internal/pipeline"
)

// nsInstance namespaces the deterministic instance ids derived from upload
// events. Fixed so the same upload always maps to the same instance id.
var nsInstance = uuid.MustParse("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")

// Starter schedules workflow instances. Satisfied by the engine.
type Starter interface {
	StartInstance(ctx context.Context, instanceID, correlationKey, input string) error
}

// Listener reacts to document upload notifications by scheduling a workflow
// instance per upload. Redelivered notifications collapse onto the same
// deterministic instance id and are absorbed as no-ops.
type Listener struct {
	starter     Starter
	storageRoot string
	container   string
	logger      *slog.Logger
}

// NewListener creates a Listener scheduling instances against the given
// starter. storageRoot is the blob service root URL; container is the
// document container name.
func NewListener(starter Starter, storageRoot, container string, logger *slog.Logger) *Listener {
	return &Listener{
		starter:     starter,
		storageRoot: strings.TrimRight(storageRoot, "/"),
		container:   container,
		logger:      logger.With("system", "trigger"),
	}
}

// InstanceID derives the deterministic instance id for an upload. The id is a
// function of both the program id and the blob name, not the program id
// alone: it is the redelivery-dedup key, so identical uploads must collapse
// onto one id while a new document for a completed program must produce a
// fresh one. The one-active-instance-per-program invariant is enforced
// separately by the store, keyed on the correlation key.
func InstanceID(programID, blobName string) string {
	return uuid.NewSHA1(nsInstance, []byte(programID+"/"+blobName)).String()
}

// OnDocumentUploaded schedules summarization for an uploaded document.
// Returns nil for redundant deliveries: an event whose instance already
// exists, or whose program already has an instance in flight, needs no work.
func (l *Listener) OnDocumentUploaded(ctx context.Context, programID, blobName string) error {
	if programID == "" || blobName == "" {
		return fmt.Errorf("upload event missing program id or blob name")
	}

	locator := pipeline.DocumentLocator{
		ProgramID:  programID,
		StorageKey: programID + "/" + blobName,
		URL:        fmt.Sprintf("%s/%s/%s/%s", l.storageRoot, l.container, programID, blobName),
	}

	input, err := pipeline.Encode(locator)
	if err != nil {
		return fmt.Errorf("encode document locator: %w", err)
	}

	instanceID := InstanceID(programID, blobName)

	err = l.starter.StartInstance(ctx, instanceID, programID, input)
	switch {
	case err == nil:
		l.logger.Info(
			"summarization scheduled",
			"instance_id", instanceID,
			"program_id", programID,
			"blob", blobName,
		)
		return nil
	case errors.Is(err, history.ErrInstanceExists):
		l.logger.Info("upload event redelivered", "instance_id", instanceID, "program_id", programID)
		return nil
	case errors.Is(err, history.ErrActiveInstance):
		l.logger.Warn("summarization already in flight", "program_id", programID, "blob", blobName)
		return nil
	default:
		return fmt.Errorf("schedule instance: %w", err)
	}
}
