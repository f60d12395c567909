package internal

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	swarmhttp "github.com/tanq16/swarmget/downloaders/http"
	"github.com/tanq16/swarmget/utils"
)

// Download runs the whole pipeline for one file: validate the sources, plan
// the chunks, fetch them concurrently into memory, persist the buffer, then
// check the stored file against each source's entity tag. Validation and
// transport errors are fatal and leave no file behind; integrity results are
// informational only.
func Download(cfg utils.DownloadConfig) error {
	jobID := uuid.New().String()
	log := utils.GetLogger("downloader").With().Str("jobId", jobID).Logger()
	log.Info().Int("sources", len(cfg.Sources)).Str("filename", cfg.Filename).Int("connections", cfg.MaxConnections).Msg("Initiating swarm download")

	httpConfig := cfg.HTTPClientConfig
	httpConfig.MaxConnections = cfg.MaxConnections
	httpConfig.HighThreadMode = cfg.MaxConnections > 5
	client := utils.NewSwarmHTTPClient(httpConfig)
	fileSize, metadata, err := swarmhttp.ValidateSources(client, cfg.Sources, cfg.Filename)
	if err != nil {
		return fmt.Errorf("source validation failed: %w", err)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = utils.DefaultChunkSize
	}
	chunks, err := swarmhttp.BuildChunks(fileSize, cfg.ChunkSize, cfg.Sources)
	if err != nil {
		return err
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = cfg.Filename
	}
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = utils.RenewOutputPath(outputPath)
		log.Debug().Str("output", outputPath).Msg("Output path renewed")
	}

	progressManager := NewProgressManager(outputPath, fileSize)
	progressManager.StartDisplay()
	buffer, err := swarmhttp.PerformSwarmDownload(client, cfg.Filename, chunks, fileSize, progressManager.Update)
	if err != nil {
		progressManager.ReportError(err)
		progressManager.Stop()
		return fmt.Errorf("download failed: %w", err)
	}
	if err := os.WriteFile(outputPath, buffer, 0644); err != nil {
		progressManager.ReportError(err)
		progressManager.Stop()
		return fmt.Errorf("error writing output file: %v", err)
	}
	log.Debug().Str("output", outputPath).Int64("size", fileSize).Msg("Buffer persisted")
	progressManager.Complete()
	progressManager.Stop()
	progressManager.ShowSummary()

	results := make([]swarmhttp.IntegrityResult, 0, len(metadata))
	for _, meta := range metadata {
		results = append(results, swarmhttp.CheckStoredFile(outputPath, meta))
	}
	displayIntegrityResults(results)
	return nil
}

func displayIntegrityResults(results []swarmhttp.IntegrityResult) {
	table := utils.NewTable([]string{"Source", "Integrity", "Details"})
	for _, result := range results {
		var status, details string
		switch result.Status {
		case swarmhttp.IntegrityVerified:
			status = utils.FSuccess(utils.StyleSymbols["pass"] + " verified")
			details = fmt.Sprintf("tag claims %s", utils.FormatBytes(uint64(result.ClaimedSize)))
		case swarmhttp.IntegritySizeMismatch:
			status = utils.FError(utils.StyleSymbols["fail"] + " size mismatch")
			details = result.Reason
		default:
			status = utils.FWarning(utils.StyleSymbols["warning"] + " skipped")
			details = result.Reason
		}
		table.Rows = append(table.Rows, []string{result.Source.Host, status, details})
	}
	utils.PrintHeader("Integrity:")
	table.PrintTable()
}
