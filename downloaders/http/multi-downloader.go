package swarmhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/tanq16/swarmget/utils"
	"golang.org/x/sync/errgroup"
)

// PerformSwarmDownload fetches every chunk concurrently from its assigned
// source and assembles the file in a single in-memory buffer. Chunk ranges
// are disjoint, so concurrent tasks never write overlapping offsets and the
// buffer needs no locking. The first chunk error aborts the whole batch (the
// group context cancels the remaining requests best-effort) and the partial
// buffer is discarded.
func PerformSwarmDownload(client *utils.SwarmHTTPClient, filename string, chunks []utils.DownloadChunk, fileSize int64, progress utils.ProgressFunc) ([]byte, error) {
	log := utils.GetLogger("swarm-download")
	buffer := make([]byte, fileSize)
	report := func() {}
	if progress != nil {
		report = func() { progress(snapshotChunks(chunks)) }
	}
	group, ctx := errgroup.WithContext(context.Background())
	for i := range chunks {
		chunk := &chunks[i]
		group.Go(func() error {
			return downloadChunk(ctx, client, filename, chunk, buffer, report)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	for i := range chunks {
		if !chunks[i].Completed {
			return nil, fmt.Errorf("chunk %d did not complete", chunks[i].ID)
		}
	}
	log.Debug().Int("chunks", len(chunks)).Int64("size", fileSize).Msg("All chunks assembled")
	return buffer, nil
}

func downloadChunk(ctx context.Context, client *utils.SwarmHTTPClient, filename string, chunk *utils.DownloadChunk, buffer []byte, report func()) error {
	log := utils.GetLogger("chunk").With().Int("chunkId", chunk.ID).Str("source", chunk.Source.Host).Logger()
	req, err := http.NewRequestWithContext(ctx, "GET", chunk.Source.URL(filename), nil)
	if err != nil {
		return err
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", chunk.StartByte, chunk.EndByte)
	req.Header.Set("Range", rangeHeader)
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("range", rangeHeader).Msg("Sending range request")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("chunk %d: error executing range request: %v", chunk.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("chunk %d: unexpected status code: %d", chunk.ID, resp.StatusCode)
	}
	if resp.Header.Get("Content-Range") == "" {
		return fmt.Errorf("chunk %d: missing Content-Range header", chunk.ID)
	}

	expectedSize := chunk.Size()
	readBuffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, err := resp.Body.Read(readBuffer)
		if bytesRead > 0 {
			downloaded := atomic.LoadInt64(&chunk.Downloaded)
			if downloaded+int64(bytesRead) > expectedSize {
				return fmt.Errorf("chunk %d: server sent bytes beyond requested range", chunk.ID)
			}
			offset := chunk.StartByte + downloaded
			copy(buffer[offset:offset+int64(bytesRead)], readBuffer[:bytesRead])
			atomic.AddInt64(&chunk.Downloaded, int64(bytesRead))
			report()
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("chunk %d: error reading response body: %v", chunk.ID, err)
		}
	}
	downloaded := atomic.LoadInt64(&chunk.Downloaded)
	if downloaded != expectedSize {
		return fmt.Errorf("chunk %d: size mismatch: expected %d bytes, got %d", chunk.ID, expectedSize, downloaded)
	}
	chunk.Completed = true
	log.Debug().Int64("bytes", downloaded).Msg("Chunk download completed")
	return nil
}

// snapshotChunks copies the live chunk states into a read-only view for the
// progress collaborator. Counters are read atomically; a snapshot carries no
// ownership of the chunks themselves.
func snapshotChunks(chunks []utils.DownloadChunk) utils.ProgressSnapshot {
	snapshot := make(utils.ProgressSnapshot, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		snapshot[i] = utils.ChunkProgress{
			ID:         chunk.ID,
			Source:     chunk.Source,
			StartByte:  chunk.StartByte,
			EndByte:    chunk.EndByte,
			Downloaded: atomic.LoadInt64(&chunk.Downloaded),
		}
	}
	return snapshot
}
