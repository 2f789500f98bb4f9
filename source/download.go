package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/ontokn/metadata"
)

// ArchiveDir is the directory, inside the download directory, receiving
// superseded documents.
const ArchiveDir = ".archive"

// UpdateOutcome is what happened to one document.
type UpdateOutcome int

const (
	// UpdateInstalled means there was no current document.
	UpdateInstalled UpdateOutcome = iota + 1
	// UpdateReplaced means the download was newer and replaced the current
	// document, which was archived.
	UpdateReplaced
	// UpdateKept means the download was not newer and was discarded.
	UpdateKept
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateInstalled:
		return "installed"
	case UpdateReplaced:
		return "replaced"
	case UpdateKept:
		return "kept"
	default:
		return "unknown"
	}
}

// Update reports the refresh of one document.
type Update struct {
	URL            string
	File           string
	NewVersion     string
	CurrentVersion string
	Outcome        UpdateOutcome
	Archived       string
}

// Downloader refreshes ontology documents from their PURLs.
type Downloader struct {
	client    *http.Client
	dir       string
	userAgent string
	logger    *slog.Logger
}

// NewDownloader creates a downloader writing into dir.
func NewDownloader(dir string, timeout time.Duration, userAgent string, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (max 10)")
				}
				return nil
			},
		},
		dir:       dir,
		userAgent: userAgent,
		logger:    logger,
	}
}

// UpdateAll refreshes every PURL. A failing document does not stop the
// others; all failures are returned joined.
func (d *Downloader) UpdateAll(ctx context.Context, purls []string) ([]Update, error) {
	var (
		updates []Update
		errs    []error
	)
	for _, u := range purls {
		if err := ctx.Err(); err != nil {
			return updates, err
		}
		up, err := d.Update(ctx, u)
		if err != nil {
			d.logger.Error("Failed to update document", "url", u, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		updates = append(updates, *up)
	}
	return updates, errors.Join(errs...)
}

// Update downloads purl to <stem>-new<ext> and installs it when there is no
// current document, or when its version is strictly newer than the current
// one. A replaced document moves to .archive/<stem>-<version><ext>.
func (d *Downloader) Update(ctx context.Context, purl string) (*Update, error) {
	stem, ext, err := splitName(purl)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	cur := filepath.Join(d.dir, stem+ext)
	next := filepath.Join(d.dir, stem+"-new"+ext)
	up := &Update{URL: purl, File: cur}

	d.logger.Info("Downloading document", "url", purl)
	if err := d.fetch(ctx, purl, next); err != nil {
		return nil, err
	}

	up.NewVersion = d.version(next)
	if _, err := os.Stat(cur); errors.Is(err, os.ErrNotExist) {
		if err := os.Rename(next, cur); err != nil {
			return nil, fmt.Errorf("install document: %w", err)
		}
		up.Outcome = UpdateInstalled
		d.logger.Info("Installed document", "file", cur, "version", up.NewVersion)
		return up, nil
	}

	up.CurrentVersion = d.version(cur)
	if up.NewVersion == "" || up.CurrentVersion == "" || up.NewVersion <= up.CurrentVersion {
		if err := os.Remove(next); err != nil {
			return nil, fmt.Errorf("remove download: %w", err)
		}
		up.Outcome = UpdateKept
		d.logger.Info("Download is not newer, keeping current document",
			"file", cur,
			"current_version", up.CurrentVersion,
			"new_version", up.NewVersion)
		return up, nil
	}

	archive := filepath.Join(d.dir, ArchiveDir)
	if err := os.MkdirAll(archive, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	up.Archived = filepath.Join(archive, stem+"-"+up.CurrentVersion+ext)
	if err := os.Rename(cur, up.Archived); err != nil {
		return nil, fmt.Errorf("archive document: %w", err)
	}
	if err := os.Rename(next, cur); err != nil {
		return nil, fmt.Errorf("install document: %w", err)
	}
	up.Outcome = UpdateReplaced
	d.logger.Info("Replaced document",
		"file", cur,
		"archived", up.Archived,
		"current_version", up.CurrentVersion,
		"new_version", up.NewVersion)
	return up, nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/rdf+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("read body: %w", err)
	}
	return f.Close()
}

func (d *Downloader) version(file string) string {
	v, err := metadata.FindVersionFile(file)
	if err != nil {
		d.logger.Warn("Could not get version", "file", file, "error", err)
		return ""
	}
	return v
}

// splitName returns the stem and extension of the last path segment of a
// URL, e.g. "uberon-base" and ".owl".
func splitName(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" || ext == "" || name == "/" {
		return "", "", fmt.Errorf("url %s does not name a document file", rawURL)
	}
	return stem, ext, nil
}
