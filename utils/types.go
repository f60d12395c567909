package utils

import (
	"net/http"
	"strings"
)

// Source is one HTTP endpoint serving the target file. Every configured
// source must serve byte-identical content for the same filename.
type Source struct {
	Host string `yaml:"host"`
	Path string `yaml:"path"`
}

// URL joins the source's host and base path with the target filename.
// Hosts without a scheme are assumed to be plain HTTP.
func (s Source) URL(filename string) string {
	host := strings.TrimSuffix(s.Host, "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	path := s.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return host + path + filename
}

// SourceMetadata is a per-source snapshot from the validation HEAD request.
// Produced once, read-only afterward.
type SourceMetadata struct {
	Source         Source
	Size           int64
	SupportsRanges bool
	Headers        http.Header
}

// DownloadChunk is one byte-range unit of work. Ranges partition
// [0, fileSize) contiguously and the chunk at index i is always served by
// sources[i % len(sources)]. Downloaded is written only by the owning fetch
// task, through sync/atomic so snapshot readers stay race-free.
type DownloadChunk struct {
	ID         int
	Source     Source
	StartByte  int64
	EndByte    int64
	Downloaded int64
	Completed  bool
}

// Size returns the number of bytes covered by the chunk's inclusive range.
func (c *DownloadChunk) Size() int64 {
	return c.EndByte - c.StartByte + 1
}

// ChunkProgress is a value copy of one chunk's state for progress reporting.
type ChunkProgress struct {
	ID         int
	Source     Source
	StartByte  int64
	EndByte    int64
	Downloaded int64
}

// ProgressSnapshot carries the state of every chunk at one point in time.
type ProgressSnapshot []ChunkProgress

// ProgressFunc receives a full snapshot after every data-arrival event.
type ProgressFunc func(ProgressSnapshot)

type DownloadConfig struct {
	Sources          []Source
	Filename         string
	OutputPath       string
	ChunkSize        int64
	MaxConnections   int
	HTTPClientConfig HTTPClientConfig
}

// SourcesFile mirrors the YAML download description accepted by --sources.
type SourcesFile struct {
	Filename  string   `yaml:"filename"`
	Output    string   `yaml:"output,omitempty"`
	ChunkSize int64    `yaml:"chunk_size,omitempty"`
	Sources   []Source `yaml:"sources"`
}
