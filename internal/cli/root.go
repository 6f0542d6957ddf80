package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guiyumin/ytdl/internal/core/config"
	"github.com/guiyumin/ytdl/internal/core/extractor"
	"github.com/guiyumin/ytdl/internal/core/version"
	"github.com/guiyumin/ytdl/internal/core/ytdl"
)

var (
	output    string
	audioOnly bool
	bestAudio bool
	infoOnly  bool
)

var rootCmd = &cobra.Command{
	Use:     "ytdl [url]",
	Short:   "Download videos, audio and playlists from YouTube",
	Version: version.Version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		cmd.SilenceUsage = true
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	rootCmd.Flags().BoolVar(&audioOnly, "audio", false, "download audio only (mp3 when ffmpeg is available)")
	rootCmd.Flags().BoolVar(&bestAudio, "best-audio", false, "with --audio, prefer fidelity over download size")
	rootCmd.Flags().BoolVar(&infoOnly, "info", false, "show video info without downloading")
}

func Execute() error {
	return rootCmd.Execute()
}

func run(url string) error {
	cfg := config.LoadOrDefault()
	if !config.Exists() {
		color.Yellow("No config file found. Run 'ytdl init' to create one.")
	}

	client := ytdl.New(cfg.ClientPriority)
	opts := ytdl.Options{
		OutputDir:  cfg.OutputDir,
		OutputPath: output,
		AudioOnly:  audioOnly || bestAudio,
		BestAudio:  bestAudio || cfg.BestAudio(),
		MP3Quality: cfg.MP3Quality,
	}

	ctx := context.Background()

	if extractor.IsPlaylistURL(url) {
		return runPlaylist(ctx, client, url, opts)
	}

	if infoOnly {
		info, err := client.GetInfo(ctx, url)
		if err != nil {
			return err
		}
		printInfo(info)
		return nil
	}

	path, err := runDownloadTUI(client, url, func(ctx context.Context) (string, error) {
		return client.Download(ctx, url, opts)
	})
	if err != nil {
		return err
	}
	fmt.Printf("\n  %s %s\n", color.GreenString("✓"), path)
	return nil
}

func runPlaylist(ctx context.Context, client *ytdl.Client, url string, opts ytdl.Options) error {
	result, err := client.DownloadPlaylist(ctx, url, opts)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s: %d downloaded, %d failed\n",
		color.GreenString("✓"), result.Playlist.Title,
		len(result.Downloaded), len(result.Failed))
	for _, f := range result.Failed {
		fmt.Fprintf(os.Stderr, "  %s %s (%s): %v\n",
			color.RedString("✗"), f.Title, f.VideoID, f.Err)
	}
	return nil
}
