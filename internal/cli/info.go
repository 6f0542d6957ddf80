package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/guiyumin/ytdl/internal/core/downloader"
	"github.com/guiyumin/ytdl/internal/core/extractor"
)

// printInfo renders a video's metadata and format table to stdout.
func printInfo(info *extractor.VideoInfo) {
	title := color.New(color.Bold)
	dim := color.New(color.Faint)

	title.Printf("\n%s\n", info.Title)
	dim.Printf("%s  ·  %s  ·  %d views  ·  via %s client\n\n",
		info.Author,
		downloader.FormatDuration(time.Duration(info.Duration)*time.Second),
		info.ViewCount,
		info.Client,
	)

	fmt.Printf("%-6s %-6s %-12s %-10s %-10s %s\n",
		"itag", "ext", "resolution", "bitrate", "size", "codecs")
	for _, f := range info.Formats {
		size := "-"
		if f.Filesize > 0 {
			size = downloader.FormatBytes(f.Filesize)
		}
		bitrate := "-"
		if f.Bitrate > 0 {
			bitrate = fmt.Sprintf("%dk", f.Bitrate/1000)
		}
		codecs := f.VCodec
		if f.ACodec != "none" {
			if codecs != "none" {
				codecs += "+" + f.ACodec
			} else {
				codecs = f.ACodec
			}
		}
		fmt.Printf("%-6d %-6s %-12s %-10s %-10s %s\n",
			f.Itag,
			f.Ext,
			runewidth.Truncate(f.Resolution(), 12, "…"),
			bitrate,
			size,
			codecs,
		)
	}
	fmt.Println()
}
