package swarmhttp

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tanq16/swarmget/utils"
)

type IntegrityStatus string

const (
	IntegrityVerified     IntegrityStatus = "verified"
	IntegritySizeMismatch IntegrityStatus = "size mismatch"
	IntegritySkipped      IntegrityStatus = "skipped"
)

// IntegrityResult is informational only; a mismatch or skip never fails the
// run.
type IntegrityResult struct {
	Source      utils.Source
	Status      IntegrityStatus
	Reason      string
	ClaimedSize int64
	ActualSize  int64
}

// CheckStoredFile compares the persisted file's size against the content
// length claimed by the source's entity tag. Only Apache httpd's tag shape is
// understood: a quoted, dash-delimited token whose second field is the
// content length in hex. Tags of any other shape, or from other servers, are
// skipped rather than failed.
func CheckStoredFile(outputPath string, meta utils.SourceMetadata) IntegrityResult {
	log := utils.GetLogger("integrity").With().Str("source", meta.Source.Host).Logger()
	result := IntegrityResult{Source: meta.Source, Status: IntegritySkipped}
	if !strings.Contains(meta.Headers.Get("Server"), "Apache") {
		result.Reason = "no usable tag"
		log.Debug().Str("server", meta.Headers.Get("Server")).Msg("Integrity check skipped")
		return result
	}
	claimedSize, ok := parseTagContentLength(meta.Headers.Get("ETag"))
	if !ok {
		result.Reason = "no usable tag"
		log.Debug().Str("etag", meta.Headers.Get("ETag")).Msg("Integrity check skipped")
		return result
	}
	result.ClaimedSize = claimedSize
	info, err := os.Stat(outputPath)
	if err != nil {
		result.Reason = fmt.Sprintf("cannot stat output file: %v", err)
		return result
	}
	result.ActualSize = info.Size()
	if result.ActualSize == claimedSize {
		result.Status = IntegrityVerified
		log.Debug().Int64("size", claimedSize).Msg("Stored file matches tag")
	} else {
		result.Status = IntegritySizeMismatch
		result.Reason = fmt.Sprintf("tag claims %d bytes, stored file has %d", claimedSize, result.ActualSize)
		log.Warn().Int64("claimed", claimedSize).Int64("actual", result.ActualSize).Msg("Stored file size differs from tag")
	}
	return result
}

func parseTagContentLength(tag string) (int64, bool) {
	if len(tag) < 2 || !strings.HasPrefix(tag, `"`) || !strings.HasSuffix(tag, `"`) {
		return 0, false
	}
	fields := strings.Split(tag[1:len(tag)-1], "-")
	if len(fields) < 2 {
		return 0, false
	}
	size, err := strconv.ParseInt(fields[1], 16, 64)
	if err != nil || size < 0 {
		return 0, false
	}
	return size, true
}
