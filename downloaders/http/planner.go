package swarmhttp

import (
	"fmt"

	"github.com/tanq16/swarmget/utils"
)

// BuildChunks splits [0, fileSize) into fixed-size inclusive byte ranges and
// assigns each chunk to a source round-robin. The last chunk carries the
// remainder. Chunk count is never checked against the connection ceiling;
// excess range requests simply queue inside the pooled transport.
func BuildChunks(fileSize int64, chunkSize int64, sources []utils.Source) ([]utils.DownloadChunk, error) {
	log := utils.GetLogger("planner")
	if len(sources) == 0 {
		return nil, utils.ErrNoSources
	}
	if chunkSize > fileSize {
		return nil, fmt.Errorf("%w: %d > %d", utils.ErrChunkSizeExceedsFileSize, chunkSize, fileSize)
	}
	numChunks := (fileSize + chunkSize - 1) / chunkSize
	chunks := make([]utils.DownloadChunk, 0, numChunks)
	for i := int64(0); i < numChunks; i++ {
		startByte := i * chunkSize
		endByte := startByte + chunkSize - 1
		if endByte >= fileSize {
			endByte = fileSize - 1
		}
		chunks = append(chunks, utils.DownloadChunk{
			ID:        int(i),
			Source:    sources[int(i)%len(sources)],
			StartByte: startByte,
			EndByte:   endByte,
		})
	}
	log.Debug().Int("chunks", len(chunks)).Int64("chunkSize", chunkSize).Int("sources", len(sources)).Msg("Chunk plan built")
	return chunks, nil
}
