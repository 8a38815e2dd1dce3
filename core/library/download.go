package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"DeckFM/logger"
)

// ImportURL downloads a remote audio file and runs it through the import
// pipeline. The remote filename becomes the track title.
func (im *Importer) ImportURL(ctx context.Context, rawURL string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return 0, fmt.Errorf("invalid download URL: %s", rawURL)
	}

	name := path.Base(u.Path)
	if !strings.EqualFold(filepath.Ext(name), im.cfg.AudioExt) {
		return 0, fmt.Errorf("unsupported file type: %s", name)
	}

	tmpDir, err := os.MkdirTemp("", "download-")
	if err != nil {
		return 0, fmt.Errorf("failed to create download dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, name)
	if err := downloadFile(ctx, rawURL, localPath); err != nil {
		return 0, err
	}

	logger.Info("downloaded remote audio file",
		logger.String("url", rawURL), logger.String("file", name))
	return im.ImportFile(ctx, localPath)
}

// downloadFile fetches a URL to a local path.
func downloadFile(ctx context.Context, rawURL, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed, status code: %d", resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}
