package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/library"
	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/metacache"
	"github.com/picccassso/nuptune/internal/scan"
	"github.com/picccassso/nuptune/internal/util"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the scanned library as a tree of albums and tracks",
	Long: `Scan the configured music directory and print the resulting
catalogue: albums grouped with their tracks, standalone tracks, and
folder playlists. Does not start the HTTP server.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("verbose", false, "show track duration, bitrate, and artwork presence")
	showCmd.Flags().Bool("playlists-only", false, "show only folder playlists")
}

func runShow(cmd *cobra.Command, args []string) error {
	root := musicDir()
	if root == "" {
		return fmt.Errorf("%w: music directory (use --music-dir or set musicDir in config)", apperr.ErrNotConfigured)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	playlistsOnly, _ := cmd.Flags().GetBool("playlists-only")

	cache := metacache.New(metaCachePath())
	if err := cache.Load(); err != nil {
		util.WarnLog("show: loading metadata cache: %v", err)
	}
	lib := library.New(cache)

	extractOpts := meta.Options{UseFFprobe: meta.CheckFFprobeAvailable()}
	snapshot, err := lib.Scan(cmd.Context(), root, scan.Options{ExtractOpts: extractOpts})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if playlistsOnly {
		printPlaylists(snapshot)
		return nil
	}

	albums := make([]*catalog.Album, 0, len(snapshot.Albums))
	for _, a := range snapshot.Albums {
		albums = append(albums, a)
	}
	sort.Slice(albums, func(i, j int) bool {
		if albums[i].Artist != albums[j].Artist {
			return strings.ToLower(albums[i].Artist) < strings.ToLower(albums[j].Artist)
		}
		return strings.ToLower(albums[i].Title) < strings.ToLower(albums[j].Title)
	})

	fmt.Println(".")
	for i, album := range albums {
		printAlbum(album, i == len(albums)-1 && len(snapshot.Standalone) == 0, verbose)
	}

	standalone := make([]*catalog.SongMetadata, 0, len(snapshot.Standalone))
	for _, s := range snapshot.Standalone {
		standalone = append(standalone, s)
	}
	sort.Slice(standalone, func(i, j int) bool { return standalone[i].Title < standalone[j].Title })
	for i, song := range standalone {
		printTrack(song, "", i == len(standalone)-1, verbose)
	}

	fmt.Println()
	util.InfoLog("Albums: %d  Standalone: %d  Playlists: %d", len(albums), len(standalone), len(snapshot.Playlists))
	if !playlistsOnly && len(snapshot.Playlists) > 0 {
		util.InfoLog("To see only playlists: nuptune show --playlists-only")
	}
	return nil
}

func printAlbum(album *catalog.Album, isLast bool, verbose bool) {
	connector := "├── "
	childPrefix := "│   "
	if isLast {
		connector = "└── "
		childPrefix = "    "
	}
	label := album.Title
	if album.Artist != "" {
		label = fmt.Sprintf("%s — %s", album.Artist, album.Title)
	}
	if album.Year != "" {
		label += fmt.Sprintf(" (%s)", album.Year)
	}
	fmt.Printf("%s%s/\n", connector, label)

	catalog.SortSongs(album.Songs)
	for i, song := range album.Songs {
		printTrack(song, childPrefix, i == len(album.Songs)-1, verbose)
	}
}

func printTrack(song *catalog.SongMetadata, prefix string, isLast bool, verbose bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	title := song.Title
	if title == "" {
		title = song.Path
	}
	fmt.Printf("%s%s%s\n", prefix, connector, title)
	if !verbose {
		return
	}
	detailPrefix := prefix + "    "
	details := []string{}
	if song.Duration >= 0 {
		details = append(details, fmt.Sprintf("%d:%02d", song.Duration/60, song.Duration%60))
	}
	if song.Bitrate > 0 {
		details = append(details, fmt.Sprintf("%dkbps", song.Bitrate))
	}
	if song.HasArtwork {
		details = append(details, "artwork")
	}
	if len(details) > 0 {
		fmt.Printf("%s(%s)\n", detailPrefix, strings.Join(details, ", "))
	}
}

func printPlaylists(snapshot *catalog.Library) {
	fmt.Println(".")
	for i, p := range snapshot.Playlists {
		connector := "├── "
		if i == len(snapshot.Playlists)-1 {
			connector = "└── "
		}
		fmt.Printf("%s%s (%d tracks)\n", connector, p.Name, len(p.SongIDs))
	}
	fmt.Println()
	util.InfoLog("Snapshot as of %s", time.Now().Format(time.RFC3339))
}
