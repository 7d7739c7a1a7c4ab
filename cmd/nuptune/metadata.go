package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/musicbrainz"
	"github.com/picccassso/nuptune/internal/store"
	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata [path]",
	Short: "Extract and display metadata for a single audio file",
	Long: `Run the metadata extractor against one file and print what it
found, without touching the metadata cache. Only --enrich-artist opens
the state database, where it caches MusicBrainz lookups. Useful for
checking why a file's tags look wrong in the library.

Examples:
  nuptune metadata "/music/Artist/Album/01 Track.flac"
  nuptune metadata --output json "/music/Artist/Album/01 Track.flac"`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

func init() {
	rootCmd.AddCommand(metadataCmd)
	metadataCmd.Flags().StringP("output", "o", "human", "output format: human, json")
	metadataCmd.Flags().Bool("enrich-artist", false, "look up the artist's canonical name via MusicBrainz (rate-limited, off by default)")
}

func runMetadata(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	opts := meta.Options{UseFFprobe: meta.CheckFFprobeAvailable()}
	song, err := meta.Extract(path, opts)
	if err != nil {
		return fmt.Errorf("extract metadata: %w", err)
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		data, err := json.MarshalIndent(song, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Path:        %s\n", song.Path)
	fmt.Printf("Title:       %s\n", formatStringOrEmpty(song.Title))
	fmt.Printf("Artist:      %s\n", formatStringOrEmpty(song.Artist))
	fmt.Printf("Album:       %s\n", formatStringOrEmpty(song.Album))
	fmt.Printf("Album artist: %s\n", formatStringOrEmpty(song.AlbumArtist))
	if song.Track > 0 {
		fmt.Printf("Track:       %d\n", song.Track)
	}
	if song.Disc > 0 {
		fmt.Printf("Disc:        %d\n", song.Disc)
	}
	if song.Year != "" {
		fmt.Printf("Year:        %s\n", song.Year)
	}
	if song.Genre != "" {
		fmt.Printf("Genre:       %s\n", song.Genre)
	}
	if song.Duration >= 0 {
		fmt.Printf("Duration:    %d:%02d\n", song.Duration/60, song.Duration%60)
	} else {
		fmt.Printf("Duration:    unknown\n")
	}
	if song.Bitrate > 0 {
		fmt.Printf("Bitrate:     %dkbps\n", song.Bitrate)
	}
	fmt.Printf("Artwork:     %v\n", song.HasArtwork)
	fmt.Printf("Size:        %s\n", formatBytes(song.SizeBytes))

	if enrich, _ := cmd.Flags().GetBool("enrich-artist"); enrich && song.Artist != "" {
		if err := enrichArtist(cmd, song.Artist); err != nil {
			return fmt.Errorf("musicbrainz lookup: %w", err)
		}
	}

	return nil
}

// enrichArtist is an optional, off-by-default enrichment step: it asks
// MusicBrainz for the artist's canonical name and known aliases, caching
// the result in the state database so repeat lookups stay within the
// API's 1req/sec rate limit.
func enrichArtist(cmd *cobra.Command, artist string) error {
	st, err := store.Open(statePath())
	if err != nil {
		return err
	}
	defer st.Close()

	client := musicbrainz.NewClient()
	defer client.Close()

	cache := musicbrainz.NewCache(st.DB(), client)
	if err := cache.EnsureSchema(); err != nil {
		return err
	}

	canonical, aliases, err := cache.GetCanonicalName(cmd.Context(), artist)
	if err != nil {
		return err
	}

	fmt.Printf("MusicBrainz:  %s\n", canonical)
	if len(aliases) > 0 {
		fmt.Printf("Aliases:     %v\n", aliases)
	}
	return nil
}

func formatStringOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

func formatBytes(n int64) string {
	return humanize.IBytes(uint64(n))
}
