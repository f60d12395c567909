package swarmhttp

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/tanq16/swarmget/utils"
	"golang.org/x/sync/errgroup"
)

// ValidateSources issues one HEAD request per source concurrently and checks
// that every source supports byte ranges and reports the same content length.
// Any transport failure fails the whole validation; there is no
// partial-source fallback. On success it returns the agreed size and the raw
// per-source headers, ordered like the source list.
func ValidateSources(client *utils.SwarmHTTPClient, sources []utils.Source, filename string) (int64, []utils.SourceMetadata, error) {
	log := utils.GetLogger("validator")
	if len(sources) == 0 {
		return 0, nil, utils.ErrNoSources
	}
	metadata := make([]utils.SourceMetadata, len(sources))
	var group errgroup.Group
	for i, source := range sources {
		group.Go(func() error {
			meta, err := fetchSourceMetadata(client, source, filename)
			if err != nil {
				return err
			}
			metadata[i] = meta
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return 0, nil, err
	}
	fileSize := metadata[0].Size
	for _, meta := range metadata {
		if meta.Size != fileSize {
			return 0, nil, fmt.Errorf("%w: %s reports %d, %s reports %d", utils.ErrSourceSizeMismatch, metadata[0].Source.Host, fileSize, meta.Source.Host, meta.Size)
		}
	}
	log.Info().Int("sources", len(sources)).Int64("size", fileSize).Msg("All sources validated")
	return fileSize, metadata, nil
}

func fetchSourceMetadata(client *utils.SwarmHTTPClient, source utils.Source, filename string) (utils.SourceMetadata, error) {
	log := utils.GetLogger("validator").With().Str("source", source.Host).Logger()
	meta := utils.SourceMetadata{Source: source}
	req, err := http.NewRequest("HEAD", source.URL(filename), nil)
	if err != nil {
		return meta, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return meta, fmt.Errorf("error checking source %s: %v", source.Host, err)
	}
	defer func() {
		// Drain even bodiless responses so the connection returns to the pool.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return meta, fmt.Errorf("source %s returned error: %d", source.Host, resp.StatusCode)
	}
	meta.Headers = resp.Header
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		return meta, fmt.Errorf("source %s: %w", source.Host, utils.ErrRangeRequestsNotSupported)
	}
	meta.SupportsRanges = true
	contentLength := resp.Header.Get("Content-Length")
	if contentLength == "" {
		return meta, fmt.Errorf("source %s: %w", source.Host, utils.ErrMissingContentLength)
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil {
		return meta, fmt.Errorf("source %s: invalid Content-Length: %v", source.Host, err)
	}
	if size <= 0 {
		return meta, fmt.Errorf("source %s: invalid file size reported by server", source.Host)
	}
	meta.Size = size
	log.Debug().Int64("size", size).Str("server", resp.Header.Get("Server")).Msg("Source metadata collected")
	return meta, nil
}
