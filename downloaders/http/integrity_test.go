package swarmhttp

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/tanq16/swarmget/utils"
)

func writeTestFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func apacheMetadata(etag string) utils.SourceMetadata {
	headers := http.Header{}
	headers.Set("Server", "Apache/2.4.62 (Debian)")
	if etag != "" {
		headers.Set("ETag", etag)
	}
	return utils.SourceMetadata{
		Source:  utils.Source{Host: "mirror1.example.com", Path: "/"},
		Headers: headers,
	}
}

func TestCheckStoredFileVerified(t *testing.T) {
	// 1f4 hex = 500 decimal
	path := writeTestFile(t, 500)
	result := CheckStoredFile(path, apacheMetadata(`"1a2b-1f4"`))
	if result.Status != IntegrityVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Status, result.Reason)
	}
	if result.ClaimedSize != 500 {
		t.Errorf("expected claimed size 500, got %d", result.ClaimedSize)
	}
	if result.ActualSize != 500 {
		t.Errorf("expected actual size 500, got %d", result.ActualSize)
	}
}

func TestCheckStoredFileSizeMismatch(t *testing.T) {
	path := writeTestFile(t, 499)
	result := CheckStoredFile(path, apacheMetadata(`"1a2b-1f4"`))
	if result.Status != IntegritySizeMismatch {
		t.Fatalf("expected size mismatch, got %s", result.Status)
	}
	if result.ClaimedSize != 500 || result.ActualSize != 499 {
		t.Errorf("expected claimed 500 / actual 499, got %d / %d", result.ClaimedSize, result.ActualSize)
	}
	if result.Reason == "" {
		t.Error("expected a reason for the mismatch")
	}
}

func TestCheckStoredFileSkipped(t *testing.T) {
	path := writeTestFile(t, 500)
	tests := []struct {
		name string
		meta utils.SourceMetadata
	}{
		{"missing tag", apacheMetadata("")},
		{"unquoted tag", apacheMetadata(`1a2b-1f4`)},
		{"no dash", apacheMetadata(`"abcdef"`)},
		{"non-hex length field", apacheMetadata(`"1a2b-xyz"`)},
		{"weak tag prefix", apacheMetadata(`W/"1a2b-1f4"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckStoredFile(path, tt.meta)
			if result.Status != IntegritySkipped {
				t.Errorf("expected skipped, got %s", result.Status)
			}
			if result.Reason != "no usable tag" {
				t.Errorf("expected reason 'no usable tag', got %q", result.Reason)
			}
		})
	}
}

func TestCheckStoredFileOtherServer(t *testing.T) {
	path := writeTestFile(t, 500)
	headers := http.Header{}
	headers.Set("Server", "nginx/1.27.0")
	headers.Set("ETag", `"1a2b-1f4"`)
	meta := utils.SourceMetadata{Source: utils.Source{Host: "mirror1.example.com"}, Headers: headers}
	result := CheckStoredFile(path, meta)
	if result.Status != IntegritySkipped {
		t.Errorf("expected skipped for unrecognized server, got %s", result.Status)
	}
}

func TestCheckStoredFileMissingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.bin")
	result := CheckStoredFile(path, apacheMetadata(`"1a2b-1f4"`))
	if result.Status != IntegritySkipped {
		t.Errorf("expected skipped for missing file, got %s", result.Status)
	}
	if result.Reason == "" {
		t.Error("expected a reason naming the stat failure")
	}
}

func TestParseTagContentLength(t *testing.T) {
	tests := []struct {
		tag      string
		wantSize int64
		wantOK   bool
	}{
		{`"1a2b-1f4"`, 500, true},
		{`"1a2b-1f4-61c9cbf7d6c80"`, 500, true},
		{`"0-0"`, 0, true},
		{`"1f4"`, 0, false},
		{`1a2b-1f4`, 0, false},
		{`"1a2b-1f4`, 0, false},
		{`""`, 0, false},
		{``, 0, false},
		{`"1a2b--"`, 0, false},
	}
	for _, tt := range tests {
		size, ok := parseTagContentLength(tt.tag)
		if ok != tt.wantOK || size != tt.wantSize {
			t.Errorf("parseTagContentLength(%q) = (%d, %v), want (%d, %v)", tt.tag, size, ok, tt.wantSize, tt.wantOK)
		}
	}
}
