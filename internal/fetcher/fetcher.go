// Package fetcher brings document sources onto local disk: plain paths,
// http(s) and ftp URLs, and zip archives of scans. It also reads batch
// manifests.
package fetcher

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Fetcher downloads one remote document into dir and returns its local path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dir string) (string, error)
}

// Resolver dispatches sources to a fetcher by URL scheme. Sources without a
// scheme are local paths and are returned as is.
type Resolver struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewResolver creates a Resolver with default HTTP and FTP fetchers.
func NewResolver() *Resolver {
	return &Resolver{
		HTTP: NewHTTPFetcher(HTTPOptions{}),
		FTP:  NewFTPFetcher(FTPOptions{}),
	}
}

// Resolve returns a local path for src, downloading into dir when needed.
func (r *Resolver) Resolve(ctx context.Context, src, dir string) (string, error) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return src, nil
	}

	switch u.Scheme {
	case "file":
		return LocalPath(src), nil
	case "http", "https":
		return r.HTTP.Fetch(ctx, src, dir)
	case "ftp":
		return r.FTP.Fetch(ctx, src, dir)
	default:
		return "", eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// IsRemote reports whether src needs downloading.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	return err == nil && len(u.Scheme) > 1 && u.Scheme != "file"
}

// LocalPath returns the filesystem path of a local source, stripping a
// file:// scheme. Remote sources are returned unchanged.
func LocalPath(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "file" {
		return src
	}
	return u.Path
}

// ErrSourceNotAllowed is returned when a source is rejected by a SourcePolicy.
var ErrSourceNotAllowed = eris.New("source not allowed")

// SourcePolicy restricts which sources untrusted callers may name.
type SourcePolicy struct {
	// AllowLocal permits plain paths and file:// URLs.
	AllowLocal bool
	// AllowedHosts limits remote fetches to these hosts. Empty allows any.
	AllowedHosts []string
}

// Check returns ErrSourceNotAllowed when src falls outside the policy.
func (p SourcePolicy) Check(src string) error {
	if !IsRemote(src) {
		if !p.AllowLocal {
			return eris.Wrapf(ErrSourceNotAllowed, "fetcher: local source %q", src)
		}
		return nil
	}
	if len(p.AllowedHosts) == 0 {
		return nil
	}
	u, err := url.Parse(src)
	if err != nil {
		return eris.Wrapf(ErrSourceNotAllowed, "fetcher: parse %q", src)
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range p.AllowedHosts {
		if strings.EqualFold(h, host) {
			return nil
		}
	}
	return eris.Wrapf(ErrSourceNotAllowed, "fetcher: host %q", host)
}

// localName picks a file name in dir for a download, keeping the URL's
// extension so recognizers can tell images from PDFs.
func localName(dir, rawPath string) string {
	base := path.Base(rawPath)
	if base == "." || base == "/" {
		base = ""
	}
	return filepath.Join(dir, uuid.NewString()[:8]+"-"+base)
}
