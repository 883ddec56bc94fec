// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func withOutputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

func trackFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "genre", Usage: "Only tracks of this genre"},
		&cli.StringFlag{Name: "key", Usage: "Only tracks in this Camelot key"},
		&cli.FloatFlag{Name: "bpm-min", Usage: "Minimum BPM (inclusive)"},
		&cli.FloatFlag{Name: "bpm-max", Usage: "Maximum BPM (inclusive)"},
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Substring of title, artists or label"},
		&cli.BoolFlag{Name: "liked", Usage: "Only liked tracks"},
		&cli.StringFlag{Name: "sort", Usage: "Sort field: title, artists, genre, bpm, key, releaseDate"},
		&cli.StringFlag{Name: "dir", Usage: "Sort direction: asc or desc", Value: "asc"},
	}
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, then create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// libraryCommand handles the track catalog
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage tracks in the library",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a track by Beatport id or from flags",
				Flags: withOutputFlags(
					&cli.IntFlag{Name: "beatport", Aliases: []string{"b"}, Usage: "Beatport track id to look up"},
					&cli.StringFlag{Name: "id", Usage: "Track id (generated when empty)"},
					&cli.StringFlag{Name: "title", Usage: "Track title"},
					&cli.StringSliceFlag{Name: "artist", Usage: "Artist name (repeatable)"},
					&cli.StringFlag{Name: "genre", Usage: "Genre"},
					&cli.FloatFlag{Name: "bpm", Usage: "Tempo"},
					&cli.StringFlag{Name: "key", Usage: "Camelot key, e.g. 8A"},
					&cli.StringFlag{Name: "label", Usage: "Record label"},
					&cli.StringFlag{Name: "release-date", Usage: "Release date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "preview-url", Usage: "Preview audio URL"},
				),
				Action: r.LibraryAdd,
			},
			{
				Name:   "list",
				Usage:  "List library tracks with optional filters and sorting",
				Flags:  withOutputFlags(trackFilterFlags()...),
				Action: r.LibraryList,
			},
			{
				Name:      "like",
				Usage:     "Toggle the liked flag of a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.LibraryLike,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track and its collection memberships",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.LibraryRemove,
			},
			{
				Name:      "search",
				Usage:     "Fuzzy search by artists and title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: withOutputFlags(
					&cli.FloatFlag{Name: "threshold", Usage: "Minimum similarity between 0 and 1", Value: 0.85},
				),
				Action: r.LibrarySearch,
			},
			{
				Name:  "dupes",
				Usage: "Report likely duplicate tracks",
				Flags: withOutputFlags(
					&cli.FloatFlag{Name: "threshold", Usage: "Minimum similarity between 0 and 1", Value: 0.85},
				),
				Action: r.LibraryDupes,
			},
			{
				Name:      "feedback",
				Usage:     "Record a listening feedback event for a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "like, skip, add_to_library, add_to_collection, play or complete", Required: true},
					&cli.StringFlag{Name: "context", Usage: "discover, collection or search"},
				},
				Action: r.LibraryFeedback,
			},
		},
	}
}

// collectionCommand handles user-curated collections
func collectionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collection",
		Aliases: []string{"col"},
		Usage:   "Manage collections",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a collection",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: withOutputFlags(
					&cli.StringSliceFlag{Name: "tag", Usage: "Tag (repeatable)"},
				),
				Action: r.CollectionCreate,
			},
			{
				Name:   "list",
				Usage:  "List collections",
				Flags:  outputFlags(),
				Action: r.CollectionList,
			},
			{
				Name:      "show",
				Usage:     "Show a collection and its tracks in order",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.CollectionShow,
			},
			{
				Name:      "update",
				Usage:     "Rename or retag a collection",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringSliceFlag{Name: "tag", Usage: "Replacement tag (repeatable)"},
					&cli.BoolFlag{Name: "clear-tags", Usage: "Remove every tag"},
					&cli.StringFlag{Name: "beatport-playlist", Usage: "Linked Beatport playlist id"},
				},
				Action: r.CollectionUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a collection and its memberships",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CollectionDelete,
			},
			{
				Name:  "add",
				Usage: "Append a library track to a collection",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "collection"},
					&cli.StringArg{Name: "track"},
				},
				Action: r.CollectionAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from a collection",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "collection"},
					&cli.StringArg{Name: "track"},
				},
				Action: r.CollectionRemove,
			},
			{
				Name:      "reorder",
				Usage:     "Reorder tracks: rhytm collection reorder <collection> <track>...",
				ArgsUsage: "<collection> <track>...",
				Action:    r.CollectionReorder,
			},
			{
				Name:      "analyze",
				Usage:     "Harmonic key and BPM analysis of a collection",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.CollectionAnalyze,
			},
		},
	}
}

// exportCommand writes collections to CSV, M3U or JSON
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export collections to CSV, M3U or JSON",
		Commands: []*cli.Command{
			{
				Name:      "collection",
				Usage:     "Export one collection",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, m3u or json", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (defaults to export.output_dir)"},
					&cli.BoolFlag{Name: "stdout", Usage: "Write the export to stdout instead of a file"},
				},
				Action: r.ExportCollection,
			},
			{
				Name:  "all",
				Usage: "Export every collection with a worker pool and write a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, m3u or json", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (defaults to export.output_dir)"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent workers (max 10, defaults to export.num_workers)"},
					&cli.FloatFlag{Name: "rate", Usage: "Collections started per second (0 is unlimited)"},
					&cli.StringSliceFlag{Name: "id", Usage: "Only export this collection (repeatable)"},
				},
				Action: r.ExportAll,
			},
		},
	}
}

// importCommand adds Beatport tracks from links
func importCommand(r *Runner) *cli.Command {
	importFlags := []cli.Flag{
		&cli.IntFlag{Name: "batch-size", Usage: "Lookups per batch (defaults to import.batch_size)"},
		&cli.FloatFlag{Name: "rate", Usage: "Batches per second (defaults to import.rate_limit)"},
	}

	return &cli.Command{
		Name:  "import",
		Usage: "Import Beatport tracks from links",
		Commands: []*cli.Command{
			{
				Name:      "urls",
				Usage:     "Import links given as arguments, from a file, or from stdin with --file -",
				ArgsUsage: "[text...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read text containing links from this file"},
				}, importFlags...),
				Action: r.ImportURLs,
			},
			{
				Name:  "watch",
				Usage: "Import links from files dropped into a folder until interrupted",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Folder to watch (defaults to import.watch_dir)"},
				}, importFlags...),
				Action: r.ImportWatch,
			},
		},
	}
}

// syncCommand replays queued offline mutations
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Replay queued changes to the sync remote",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Check the remote and replay the queue in order",
				Flags:  outputFlags(),
				Action: r.SyncRun,
			},
			{
				Name:   "status",
				Usage:  "Show queue length and the last sync outcome",
				Flags:  outputFlags(),
				Action: r.SyncStatus,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the export and library API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to server.host)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (defaults to server.port)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the collections endpoint in a browser"},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the terminal browser
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse collections and tracks interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format used by the e key", Value: "json"},
			&cli.StringFlag{Name: "log-file", Usage: "Log file while the TUI owns the terminal", Value: "./tmp/rhytm-tui.log"},
		},
		Action: r.TUI,
	}
}
