// Package archive turns one verified recording event into a file on the
// network share: wait for the recording to be ready, enrich via the Zoom
// Phone API, resolve the destination name, download, upload, journal.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telassist/callarchive/internal/journal"
	"github.com/telassist/callarchive/internal/webhooks/zoom"
	"github.com/telassist/callarchive/internal/zoomphone"
)

// Journal records terminal pipeline outcomes. Write failures are logged,
// never fatal.
type Journal interface {
	Append(ctx context.Context, entry journal.Entry) error
}

// Pipeline is the per-job orchestration executed on the queue worker.
type Pipeline struct {
	log      *slog.Logger
	provider *zoomphone.Client
	archiver *Archiver
	journal  Journal
	// readyDelay gives Zoom time to materialize the recording asset before
	// the first API call. There is no retry behind it.
	readyDelay time.Duration
}

func NewPipeline(log *slog.Logger, provider *zoomphone.Client, archiver *Archiver, jrnl Journal, readyDelay time.Duration) *Pipeline {
	return &Pipeline{
		log:        log,
		provider:   provider,
		archiver:   archiver,
		journal:    jrnl,
		readyDelay: readyDelay,
	}
}

// Process runs the full enrichment/naming/archival sequence for one event.
// Every step short-circuits on its first failure; failures stay inside this
// job and are reported through the returned error and the journal.
func (p *Pipeline) Process(ctx context.Context, event zoom.Event, callID string) error {
	log := p.log.With("job_id", uuid.NewString(), "call_id", callID)

	recordings := event.Payload.Object.Recordings
	if len(recordings) == 0 {
		return errors.New("event carries no recordings")
	}
	rec := recordings[0]

	if p.readyDelay > 0 {
		log.Info("waiting for recording to be ready", "delay", p.readyDelay)
		select {
		case <-time.After(p.readyDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	token, err := p.provider.Token(ctx)
	if err != nil {
		return p.fail(ctx, log, journal.Entry{CallID: callID}, err)
	}

	directory, err := p.provider.UserDirectory(ctx, token)
	if err != nil {
		return p.fail(ctx, log, journal.Entry{CallID: callID}, err)
	}

	meta, err := p.provider.Recording(ctx, token, callID)
	if err != nil {
		return p.fail(ctx, log, journal.Entry{CallID: callID}, err)
	}

	dec, ok := Resolve(rec, meta, directory)
	if !ok {
		log.Info("no user found, skipping", "caller", meta.CallerName, "callee", meta.CalleeName)
		p.append(ctx, log, journal.Entry{
			CallID: callID,
			Caller: meta.CallerName,
			Callee: meta.CalleeName,
			Status: journal.StatusSkipped,
			Detail: "no matching user",
		})
		return nil
	}

	log.Info("archiving recording",
		"caller", meta.CallerName,
		"callee", meta.CalleeName,
		"directory", dec.Directory,
		"filename", dec.Filename,
		"duration", FormatDuration(rec.Duration),
		"units", Units(rec.Duration),
	)

	staged, err := p.archiver.Store(ctx, meta.FileURL, dec)
	if err != nil {
		return p.fail(ctx, log, journal.Entry{
			CallID:     callID,
			Caller:     meta.CallerName,
			Callee:     meta.CalleeName,
			Directory:  dec.Directory,
			Filename:   dec.Filename,
			StagedPath: staged,
		}, err)
	}

	p.append(ctx, log, journal.Entry{
		CallID:     callID,
		Caller:     meta.CallerName,
		Callee:     meta.CalleeName,
		Directory:  dec.Directory,
		Filename:   dec.Filename,
		StagedPath: staged,
		Status:     journal.StatusArchived,
	})
	log.Info("recording archived", "directory", dec.Directory, "filename", dec.Filename)
	return nil
}

func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, entry journal.Entry, err error) error {
	entry.Status = journal.StatusFailed
	entry.Detail = err.Error()
	p.append(ctx, log, entry)
	return fmt.Errorf("call %s: %w", entry.CallID, err)
}

func (p *Pipeline) append(ctx context.Context, log *slog.Logger, entry journal.Entry) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Append(ctx, entry); err != nil {
		log.Error("journal write failed", "error", err)
	}
}
