package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

// ParseSourceArg splits a --source argument of the form "host/base/path"
// (optionally carrying a scheme) into a Source.
func ParseSourceArg(arg string) (Source, error) {
	scheme := ""
	rest := arg
	if i := strings.Index(arg, "://"); i != -1 {
		scheme = arg[:i+3]
		rest = arg[i+3:]
	}
	if rest == "" {
		return Source{}, fmt.Errorf("invalid source %q: missing hostname", arg)
	}
	host, path, _ := strings.Cut(rest, "/")
	if host == "" {
		return Source{}, fmt.Errorf("invalid source %q: missing hostname", arg)
	}
	return Source{Host: scheme + host, Path: "/" + path}, nil
}

// includes logger
func ReadSourcesFile(filePath string) (*SourcesFile, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	var list SourcesFile
	err = yaml.Unmarshal(data, &list)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %v", err)
	}
	if list.Filename == "" {
		return nil, fmt.Errorf("missing filename in %s", filePath)
	}
	for i, source := range list.Sources {
		if source.Host == "" {
			return nil, fmt.Errorf("missing host for source %d", i+1)
		}
	}
	log.Debug().Int("sources", len(list.Sources)).Str("filename", list.Filename).Msg("Sources loaded from YAML")
	return &list, nil
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func FormatSpeed(bytes int64, elapsed float64) string {
	if elapsed == 0 {
		return "0 B/s"
	}
	bps := float64(bytes) / elapsed
	formatted := FormatBytes(uint64(bps))
	return formatted[:len(formatted)-1] + "B/s" // Slice off "B" and add "B/s"
}
