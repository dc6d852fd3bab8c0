// Package export holds the pieces shared by the desktop export formats:
// filename transliteration, zip packaging and tolerant cover fetching.
package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"unicode"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	internalhttp "github.com/ephes/kptncook/internal/http"
	"github.com/ephes/kptncook/internal/model"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// asciiFold decomposes accented characters and strips the combining
	// marks, leaving their ASCII base letters.
	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// AsciifyString turns a recipe title into a filesystem-safe ASCII name:
// accents are folded away, remaining punctuation and whitespace become
// underscores.
func AsciifyString(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	ascii := make([]rune, 0, len(folded))
	for _, r := range folded {
		if r < 128 {
			ascii = append(ascii, r)
		} else {
			ascii = append(ascii, '_')
		}
	}
	out := nonWordRe.ReplaceAllString(string(ascii), "_")
	return whitespaceRe.ReplaceAllString(out, "_")
}

// ZipEntry is one named file inside an export archive.
type ZipEntry struct {
	Name string
	Data []byte
}

// WriteZip writes a deflate-compressed archive with the given entries in
// order.
func WriteZip(path string, entries []ZipEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, entry := range entries {
		ew, err := w.Create(entry.Name)
		if err != nil {
			return fmt.Errorf("adding archive entry %q: %w", entry.Name, err)
		}
		if _, err := ew.Write(entry.Data); err != nil {
			return fmt.Errorf("writing archive entry %q: %w", entry.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// CoverFetcher downloads cover images for export embedding. Every failure
// degrades to a missing image instead of aborting the export.
type CoverFetcher struct {
	Log    *slog.Logger
	HTTP   internalhttp.HTTPDoer
	APIKey string
}

// Fetch returns the cover image and its bytes, or ("", nil) when the
// recipe has no unambiguous cover or the download fails.
func (cf *CoverFetcher) Fetch(ctx context.Context, r *model.Recipe) (name string, data []byte) {
	cover, err := r.CoverImage()
	if err != nil {
		cf.Log.InfoContext(ctx, "no usable cover image",
			slog.String("recipe", r.ID.OID), slog.Any("error", err))
		return "", nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", cover.URLWithKey(cf.APIKey), nil)
	if err != nil {
		cf.Log.WarnContext(ctx, "building cover image request failed", slog.Any("error", err))
		return "", nil
	}
	resp, err := cf.HTTP.Do(req)
	if err != nil {
		cf.Log.WarnContext(ctx, "fetching cover image failed",
			slog.String("recipe", r.ID.OID), slog.Any("error", err))
		return "", nil
	}
	if err := internalhttp.ExpectStatus2xx(resp); err != nil {
		var statusErr *internalhttp.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			cf.Log.InfoContext(ctx, "cover image not available online any more",
				slog.String("recipe", r.ID.OID))
		} else {
			cf.Log.WarnContext(ctx, "fetching cover image failed",
				slog.String("recipe", r.ID.OID), slog.Any("error", err))
		}
		return "", nil
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		cf.Log.WarnContext(ctx, "reading cover image failed", slog.Any("error", err))
		return "", nil
	}
	return cover.Name, data
}
