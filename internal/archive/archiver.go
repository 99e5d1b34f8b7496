package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Uploader moves a staged file onto the network share.
type Uploader interface {
	Upload(ctx context.Context, localPath, remotePath string) error
}

// Archiver downloads recording bytes into the local staging directory and
// hands the staged file to the share uploader.
type Archiver struct {
	log        *slog.Logger
	httpClient *http.Client
	stagingDir string
	keepStaged bool
	uploader   Uploader
}

func NewArchiver(log *slog.Logger, stagingDir string, keepStaged bool, uploader Uploader) *Archiver {
	return &Archiver{
		log:        log,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		stagingDir: stagingDir,
		keepStaged: keepStaged,
		uploader:   uploader,
	}
}

// Store downloads fileURL to the staging directory under the decision's
// filename, then uploads it to {directory}/{filename} on the share. The
// upload is never attempted when the download fails. The returned path is the
// staging location (set even on upload failure, where the staged file is the
// only remaining copy of the recording and is deliberately kept).
func (a *Archiver) Store(ctx context.Context, fileURL string, dec Decision) (string, error) {
	staged, err := a.download(ctx, fileURL, dec.Filename)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", fileURL, err)
	}
	a.log.Info("recording staged", "path", staged)

	remote := dec.Directory + "/" + dec.Filename
	if err := a.uploader.Upload(ctx, staged, remote); err != nil {
		return staged, fmt.Errorf("upload %s: %w", remote, err)
	}

	if !a.keepStaged {
		if err := os.Remove(staged); err != nil {
			a.log.Warn("failed to remove staged file", "path", staged, "error", err)
		}
	}
	return staged, nil
}

func (a *Archiver) download(ctx context.Context, fileURL, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := os.MkdirAll(a.stagingDir, 0o755); err != nil {
		return "", err
	}
	staged := filepath.Join(a.stagingDir, filename)
	out, err := os.Create(staged)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", err
	}
	return staged, out.Close()
}
