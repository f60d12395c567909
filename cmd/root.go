package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/swarmget/internal"
	"github.com/tanq16/swarmget/utils"
)

var (
	sourceArgs  []string
	sourcesFile string
	filename    string
	output      string
	chunkSize   int64
	connections int
	timeout     time.Duration
	kaTimeout   time.Duration
	userAgent   string
	proxyURL    string
	headers     []string
	debug       bool
)

var SwarmgetVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "swarmget",
	Short:   "Swarmget downloads one file from multiple HTTP mirrors in parallel",
	Version: SwarmgetVersion,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		sources := make([]utils.Source, 0, len(sourceArgs))
		for _, arg := range sourceArgs {
			source, err := utils.ParseSourceArg(arg)
			if err != nil {
				utils.PrintError(err.Error())
				os.Exit(1)
			}
			sources = append(sources, source)
		}
		if sourcesFile != "" {
			list, err := utils.ReadSourcesFile(sourcesFile)
			if err != nil {
				utils.PrintError(fmt.Sprintf("Failed to read sources file: %v", err))
				os.Exit(1)
			}
			if filename == "" {
				filename = list.Filename
			}
			if output == "" {
				output = list.Output
			}
			if list.ChunkSize > 0 && !cmd.Flags().Changed("chunk-size") {
				chunkSize = list.ChunkSize
			}
			if len(sources) == 0 {
				sources = list.Sources
			} else if len(list.Sources) > 0 {
				utils.PrintWarning("Ignoring sources from file, using --source flags")
			}
		}
		if filename == "" {
			utils.PrintError("No filename provided")
			os.Exit(1)
		}
		if len(sources) == 0 {
			utils.PrintError("No download sources provided")
			os.Exit(1)
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		cfg := utils.DownloadConfig{
			Sources:        sources,
			Filename:       filename,
			OutputPath:     output,
			ChunkSize:      chunkSize,
			MaxConnections: connections,
			HTTPClientConfig: utils.HTTPClientConfig{
				Timeout:   timeout,
				KATimeout: kaTimeout,
				ProxyURL:  proxyURL,
				UserAgent: userAgent,
				Headers:   utils.ParseHeaderArgs(headers),
			},
		}
		if err := internal.Download(cfg); err != nil {
			fmt.Println()
			utils.PrintError(fmt.Sprintf("Download failed: %v", err))
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringArrayVarP(&sourceArgs, "source", "s", []string{}, "Source as host/base-path (e.g. mirror1.example.com/releases); can be specified multiple times")
	rootCmd.Flags().StringVarP(&sourcesFile, "sources", "l", "", "Path to YAML file describing the download (filename, chunk_size, sources)")
	rootCmd.Flags().StringVarP(&filename, "filename", "f", "", "Name of the file to fetch from every source")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (defaults to the filename in the current directory)")
	rootCmd.Flags().Int64Var(&chunkSize, "chunk-size", utils.DefaultChunkSize, "Chunk size in bytes")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", utils.DefaultMaxConnections, "Maximum simultaneous connections per source (above 5 enables high-thread-mode)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Request timeout, 0 means none (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 0, "Idle connection timeout, 0 keeps idle connections for the whole run")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser agent)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
