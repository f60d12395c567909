package swarmhttp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tanq16/swarmget/utils"
)

func TestBuildChunksPartition(t *testing.T) {
	tests := []struct {
		name       string
		fileSize   int64
		chunkSize  int64
		numSources int
		wantChunks int
		wantLast   int64
	}{
		{"even split", 1024 * 1024, 256 * 1024, 2, 4, 256 * 1024},
		{"remainder", 10000000, 8388608, 2, 2, 1611392},
		{"single chunk", 500, 500, 1, 1, 500},
		{"many small chunks", 1000, 64, 3, 16, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := make([]utils.Source, tt.numSources)
			for i := range sources {
				sources[i] = utils.Source{Host: fmt.Sprintf("mirror%d.example.com", i+1), Path: "/"}
			}
			chunks, err := BuildChunks(tt.fileSize, tt.chunkSize, sources)
			if err != nil {
				t.Fatalf("BuildChunks: %v", err)
			}
			if len(chunks) != tt.wantChunks {
				t.Fatalf("expected %d chunks, got %d", tt.wantChunks, len(chunks))
			}

			// Ranges must partition [0, fileSize) contiguously
			var next int64
			for i, chunk := range chunks {
				if chunk.ID != i {
					t.Errorf("chunk %d: expected ID %d, got %d", i, i, chunk.ID)
				}
				if chunk.StartByte != next {
					t.Errorf("chunk %d: expected start %d, got %d", i, next, chunk.StartByte)
				}
				if i < len(chunks)-1 && chunk.Size() != tt.chunkSize {
					t.Errorf("chunk %d: expected size %d, got %d", i, tt.chunkSize, chunk.Size())
				}
				if chunk.Source.Host != sources[i%tt.numSources].Host {
					t.Errorf("chunk %d: expected source %s, got %s", i, sources[i%tt.numSources].Host, chunk.Source.Host)
				}
				next = chunk.EndByte + 1
			}
			if next != tt.fileSize {
				t.Errorf("expected chunks to cover %d bytes, got %d", tt.fileSize, next)
			}
			last := chunks[len(chunks)-1]
			if last.Size() != tt.wantLast {
				t.Errorf("expected last chunk size %d, got %d", tt.wantLast, last.Size())
			}
		})
	}
}

func TestBuildChunksTwoSourceExample(t *testing.T) {
	sources := []utils.Source{
		{Host: "mirror1.example.com", Path: "/"},
		{Host: "mirror2.example.com", Path: "/"},
	}
	chunks, err := BuildChunks(10000000, 8388608, sources)
	if err != nil {
		t.Fatalf("BuildChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].StartByte != 0 || chunks[0].EndByte != 8388607 {
		t.Errorf("expected first range [0, 8388607], got [%d, %d]", chunks[0].StartByte, chunks[0].EndByte)
	}
	if chunks[1].StartByte != 8388608 || chunks[1].EndByte != 9999999 {
		t.Errorf("expected second range [8388608, 9999999], got [%d, %d]", chunks[1].StartByte, chunks[1].EndByte)
	}
	if chunks[0].Source.Host != "mirror1.example.com" {
		t.Errorf("expected first chunk on mirror1, got %s", chunks[0].Source.Host)
	}
	if chunks[1].Source.Host != "mirror2.example.com" {
		t.Errorf("expected second chunk on mirror2, got %s", chunks[1].Source.Host)
	}
}

func TestBuildChunksRoundRobinWraps(t *testing.T) {
	sources := []utils.Source{
		{Host: "a.example.com", Path: "/"},
		{Host: "b.example.com", Path: "/"},
		{Host: "c.example.com", Path: "/"},
	}
	chunks, err := BuildChunks(1000, 100, sources)
	if err != nil {
		t.Fatalf("BuildChunks: %v", err)
	}
	if len(chunks) != 10 {
		t.Fatalf("expected 10 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		want := sources[i%3].Host
		if chunk.Source.Host != want {
			t.Errorf("chunk %d: expected source %s, got %s", i, want, chunk.Source.Host)
		}
	}
}

func TestBuildChunksChunkSizeTooLarge(t *testing.T) {
	sources := []utils.Source{{Host: "a.example.com", Path: "/"}}
	_, err := BuildChunks(100, 101, sources)
	if err == nil {
		t.Fatal("expected error for chunk size exceeding file size")
	}
	if !errors.Is(err, utils.ErrChunkSizeExceedsFileSize) {
		t.Errorf("expected ErrChunkSizeExceedsFileSize, got %v", err)
	}
}

func TestBuildChunksNoSources(t *testing.T) {
	_, err := BuildChunks(1000, 100, nil)
	if !errors.Is(err, utils.ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}
