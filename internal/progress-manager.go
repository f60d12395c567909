package internal

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/swarmget/utils"
)

type sourceProgress struct {
	Host        string
	Downloaded  int64
	Total       int64
	ChunksDone  int
	ChunksTotal int
}

// ProgressManager is the progress collaborator for a single swarm download.
// The fetch engine hands it a full chunk snapshot on every data event; a
// display goroutine renders the latest snapshot on a ticker.
type ProgressManager struct {
	outputPath string
	totalSize  int64
	chunks     utils.ProgressSnapshot
	mutex      sync.RWMutex
	doneCh     chan struct{}
	displayWg  sync.WaitGroup
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	speed      float64
	completed  bool
	failure    string
	numLines   int
}

func NewProgressManager(outputPath string, totalSize int64) *ProgressManager {
	return &ProgressManager{
		outputPath: outputPath,
		totalSize:  totalSize,
		doneCh:     make(chan struct{}),
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}
}

// Update stores the latest snapshot; it is safe to call from any number of
// concurrent chunk tasks.
func (pm *ProgressManager) Update(snapshot utils.ProgressSnapshot) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.chunks = snapshot
}

func (pm *ProgressManager) Complete() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.completed = true
	log.Debug().Str("file", pm.outputPath).Int64("totalDownloaded", snapshotTotal(pm.chunks)).Msg("COMPLETE CALLED")
}

func (pm *ProgressManager) ReportError(err error) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.completed = true
	pm.failure = fmt.Sprintf("Error: %v", err)
	log.Debug().Str("file", pm.outputPath).Err(err).Msg("ERROR CALLED")
}

func (pm *ProgressManager) StartDisplay() {
	pm.displayWg.Add(1)
	go func() {
		defer pm.displayWg.Done()
		ticker := time.NewTicker(500 * time.Millisecond)
		if utils.PMDebug {
			ticker = time.NewTicker(3 * time.Second)
		}
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pm.updateDisplay()
			case <-pm.doneCh:
				pm.updateDisplay()
				return
			}
		}
	}()
}

func (pm *ProgressManager) Stop() {
	close(pm.doneCh)
	pm.displayWg.Wait()
}

func (pm *ProgressManager) updateDisplay() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pm.numLines != 0 {
		fmt.Printf("\033[%dA\033[J", pm.numLines)
	}
	lines := pm.renderLines()
	for _, line := range lines {
		fmt.Println(line)
	}
	pm.numLines = len(lines)
}

// renderLines builds the display: one overall line, then one aggregate line
// per source. Callers must hold the mutex.
func (pm *ProgressManager) renderLines() []string {
	fileName := pm.outputPath
	if len(fileName) > 25 {
		fileName = "..." + fileName[len(fileName)-22:]
	}
	if pm.failure != "" {
		return []string{fmt.Sprintf("%s %s %s", utils.FError(utils.StyleSymbols["fail"]), utils.FInfo(fileName), utils.FError(pm.failure))}
	}
	downloaded := snapshotTotal(pm.chunks)
	if pm.completed {
		return []string{fmt.Sprintf("%s %s %s", utils.FSuccess(utils.StyleSymbols["pass"]), utils.FInfo(fileName), utils.FSuccess(fmt.Sprintf("Downloaded %s", utils.FormatBytes(uint64(downloaded)))))}
	}

	now := time.Now()
	timeDiff := now.Sub(pm.lastUpdate).Seconds()
	if timeDiff > 0 {
		pm.speed = float64(downloaded-pm.lastBytes) / timeDiff / 1024 / 1024 // MB/s
		pm.lastUpdate = now
		pm.lastBytes = downloaded
	}
	eta := "calculating..."
	if pm.speed > 0 && pm.totalSize > 0 {
		etaSeconds := int64(float64(pm.totalSize-downloaded) / (pm.speed * 1024 * 1024))
		if etaSeconds < 60 {
			eta = fmt.Sprintf("%ds", etaSeconds)
		} else if etaSeconds < 3600 {
			eta = fmt.Sprintf("%dm %ds", etaSeconds/60, etaSeconds%60)
		} else {
			eta = fmt.Sprintf("%dh %dm", etaSeconds/3600, (etaSeconds%3600)/60)
		}
	}

	barWidth := 30
	if available := utils.GetTerminalWidth() - 60; available < barWidth {
		barWidth = max(available, 10)
	}
	bar := utils.PrintProgressBar(downloaded, pm.totalSize, barWidth)
	lines := []string{fmt.Sprintf("%s: %s%s %.2f MB/s ETA: %s",
		utils.FInfo(fileName), bar,
		utils.FDebug(fmt.Sprintf("%s/%s", utils.FormatBytes(uint64(downloaded)), utils.FormatBytes(uint64(pm.totalSize)))),
		pm.speed, eta)}
	for _, src := range aggregateBySource(pm.chunks) {
		lines = append(lines, utils.FDetail(fmt.Sprintf("  %s %s: %d/%d chunks, %s / %s",
			utils.StyleSymbols["arrow"], src.Host, src.ChunksDone, src.ChunksTotal,
			utils.FormatBytes(uint64(src.Downloaded)), utils.FormatBytes(uint64(src.Total)))))
	}
	return lines
}

func (pm *ProgressManager) ShowSummary() {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()
	fmt.Printf("\r\033[K") // Clear the current line
	fmt.Println()
	totalDownloaded := snapshotTotal(pm.chunks)
	elapsed := time.Since(pm.startTime).Seconds()
	for _, src := range aggregateBySource(pm.chunks) {
		fmt.Printf("Source: %s, Chunks: %d/%d, Data: %s\n", src.Host, src.ChunksDone, src.ChunksTotal, utils.FormatBytes(uint64(src.Downloaded)))
	}
	fmt.Println()
	log.Info().Str("Total Data", utils.FormatBytes(uint64(totalDownloaded))).Str("Overall Speed", utils.FormatSpeed(totalDownloaded, elapsed)).Str("Time Elapsed", fmt.Sprintf("%.2fs", elapsed)).Msg("Summary")
}

func snapshotTotal(snapshot utils.ProgressSnapshot) int64 {
	var total int64
	for _, chunk := range snapshot {
		total += chunk.Downloaded
	}
	return total
}

// aggregateBySource groups the snapshot by source host, ordered by first
// appearance in the chunk list.
func aggregateBySource(snapshot utils.ProgressSnapshot) []*sourceProgress {
	byHost := make(map[string]*sourceProgress)
	var ordered []*sourceProgress
	for _, chunk := range snapshot {
		src, exists := byHost[chunk.Source.Host]
		if !exists {
			src = &sourceProgress{Host: chunk.Source.Host}
			byHost[chunk.Source.Host] = src
			ordered = append(ordered, src)
		}
		chunkSize := chunk.EndByte - chunk.StartByte + 1
		src.Downloaded += chunk.Downloaded
		src.Total += chunkSize
		src.ChunksTotal++
		if chunk.Downloaded == chunkSize {
			src.ChunksDone++
		}
	}
	return ordered
}
