package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/beatport"
	"github.com/desertthunder/rhytm/internal/library"
	"github.com/desertthunder/rhytm/internal/models"
	"github.com/desertthunder/rhytm/internal/services"
	"github.com/desertthunder/rhytm/internal/shared"
	"github.com/desertthunder/rhytm/internal/tasks"
	tu "github.com/desertthunder/rhytm/internal/testing"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestLibrary seeds three tracks and one collection holding t1 then t2.
func newTestLibrary(t *testing.T, opts library.Options) (*library.Manager, models.Collection) {
	t.Helper()

	if opts.Store == nil {
		opts.Store = tu.NewMemoryStore()
	}
	opts.Clock = tu.Clock(epoch, time.Second)
	opts.IDFunc = tu.Sequence("id")
	m := library.New(opts)

	tracks := []models.Track{
		{ID: "t1", Title: "Opener", Artists: []string{"Vaal"}, Genre: "Techno", BPM: 128, Key: "8A"},
		{ID: "t2", Title: "Roller", Artists: []string{"Tale of Us", "Vaal"}, Genre: "Techno", BPM: 122, Key: "9A"},
		{ID: "t3", Title: "Drift", Artists: []string{"Artbat"}, Genre: "House", BPM: 124, Key: "8B"},
	}
	for _, tr := range tracks {
		if err := m.AddTrackToLibrary(tr); err != nil {
			t.Fatalf("AddTrackToLibrary failed: %v", err)
		}
	}

	c, err := m.CreateCollection("Peak Time Techno", []string{"techno"})
	if err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	for _, id := range []string{"t1", "t2"} {
		if err := m.AddTrackToCollection(c.ID, id); err != nil {
			t.Fatalf("AddTrackToCollection failed: %v", err)
		}
	}
	return m, c
}

// run executes one CLI invocation against runner and returns what it printed.
func run(t *testing.T, runner *Runner, args ...string) (string, error) {
	t.Helper()

	output := &bytes.Buffer{}
	runner.output = output
	app := &cli.Command{Name: "rhytm", Commands: runner.register()}
	err := app.Run(context.Background(), append([]string{"rhytm"}, args...))
	return output.String(), err
}

func newTestRunner(lib *library.Manager) *Runner {
	return NewRunner(RunnerOpts{
		Logger:  shared.NewLogger(io.Discard),
		Library: lib,
	})
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := beatport.Generator{Delay: time.Millisecond}
			lib := library.New(library.Options{})

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				Library:    lib,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.lib != lib {
				t.Error("expected library to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil catalog uses generator", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.catalog.(beatport.Generator); !ok {
				t.Errorf("expected beatport.Generator, got %T", runner.catalog)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "library", "collection", "export", "import", "sync", "serve", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("printProgress", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		progress, stop := runner.printProgress()
		progress <- tasks.ProgressUpdate{Message: "first"}
		progress <- tasks.ProgressUpdate{Message: "second"}
		stop()

		if result := output.String(); result != "first\nsecond\n" {
			t.Errorf("expected both messages before stop returned, got %q", result)
		}
	})

	t.Run("library opens and closes the configured database", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "rhytm.db")
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})

		lib, err := runner.library()
		if err != nil {
			t.Fatalf("library failed: %v", err)
		}
		if again, _ := runner.library(); again != lib {
			t.Error("expected the library to be opened once")
		}
		if !lib.Online() {
			t.Error("expected library to start online without a sync remote")
		}
		if err := runner.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("add from flags", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		runner := newTestRunner(lib)

		out, err := run(t, runner, "library", "add", "--id", "t9", "--title", "Nightfall", "--artist", "Kolsch", "--bpm", "121", "--key", "5A")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !strings.Contains(out, "✓ Added Kolsch - Nightfall (t9)") {
			t.Errorf("unexpected output: %q", out)
		}
		if tr, ok := lib.Track("t9"); !ok || tr.BPM != 121 {
			t.Errorf("expected t9 at 121 BPM, got %+v (found=%v)", tr, ok)
		}
	})

	t.Run("add by beatport id", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		runner := newTestRunner(lib)

		if _, err := run(t, runner, "library", "add", "--beatport", "12345"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !lib.IsTrackInLibrary(beatport.TrackID(12345)) {
			t.Error("expected Beatport track in library")
		}

		out, err := run(t, runner, "library", "add", "--beatport", "12345")
		if err != nil {
			t.Fatalf("second add failed: %v", err)
		}
		if !strings.Contains(out, "already in the library") {
			t.Errorf("expected duplicate notice, got %q", out)
		}
	})

	t.Run("list filters as JSON", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		runner := newTestRunner(lib)

		out, err := run(t, runner, "library", "list", "--json", "--genre", "Techno")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal([]byte(out), &tracks); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if len(tracks) != 2 || tracks[0].ID != "t1" || tracks[1].ID != "t2" {
			t.Errorf("expected t1 and t2 in library order, got %+v", tracks)
		}
	})

	t.Run("list sorts by bpm descending", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		runner := newTestRunner(lib)

		out, err := run(t, runner, "library", "list", "--sort", "bpm", "--dir", "desc")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		opener, drift, roller := strings.Index(out, "Opener"), strings.Index(out, "Drift"), strings.Index(out, "Roller")
		if opener < 0 || opener > drift || drift > roller {
			t.Errorf("expected Opener, Drift, Roller order, got %q", out)
		}
	})

	t.Run("list rejects unknown sort field", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		if _, err := run(t, newTestRunner(lib), "library", "list", "--sort", "energy"); err == nil {
			t.Error("expected error for unknown sort field")
		}
	})

	t.Run("like toggles", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		runner := newTestRunner(lib)

		out, err := run(t, runner, "library", "like", "t2")
		if err != nil {
			t.Fatalf("like failed: %v", err)
		}
		if !strings.Contains(out, "✓ Liked Roller") {
			t.Errorf("unexpected output: %q", out)
		}
		if tr, _ := lib.Track("t2"); !tr.Liked {
			t.Error("expected t2 to be liked")
		}

		out, _ = run(t, runner, "library", "like", "t2")
		if !strings.Contains(out, "✓ Unliked Roller") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("like unknown track", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "library", "like", "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("like without id", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "library", "like")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("remove drops memberships", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		if _, err := run(t, newTestRunner(lib), "library", "remove", "t1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if lib.IsTrackInLibrary("t1") || lib.IsTrackInCollection(c.ID, "t1") {
			t.Error("expected t1 to be gone from library and collection")
		}
	})

	t.Run("feedback", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		out, err := run(t, newTestRunner(lib), "library", "feedback", "--type", "skip", "--context", "discover", "t3")
		if err != nil {
			t.Fatalf("feedback failed: %v", err)
		}
		if !strings.Contains(out, "✓ Recorded skip for t3") {
			t.Errorf("unexpected output: %q", out)
		}

		_, err = run(t, newTestRunner(lib), "library", "feedback", "--type", "love", "t3")
		if err == nil {
			t.Error("expected error for unknown feedback type")
		}
	})
}

func TestCollectionCommands(t *testing.T) {
	t.Run("create with tags", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		out, err := run(t, newTestRunner(lib), "collection", "create", "--tag", "deep", "--tag", "warmup", "Warmup")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if !strings.Contains(out, "✓ Created collection Warmup") {
			t.Errorf("unexpected output: %q", out)
		}

		collections := lib.Collections()
		if len(collections) != 2 {
			t.Fatalf("expected 2 collections, got %d", len(collections))
		}
		if got := collections[1].Tags; len(got) != 2 || got[0] != "deep" {
			t.Errorf("expected tags [deep warmup], got %v", got)
		}
	})

	t.Run("list counts tracks", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		out, err := run(t, newTestRunner(lib), "collection", "list", "--json")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}

		var summaries []collectionSummary
		if err := json.Unmarshal([]byte(out), &summaries); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if len(summaries) != 1 || summaries[0].ID != c.ID || summaries[0].TrackCount != 2 {
			t.Errorf("unexpected summaries: %+v", summaries)
		}
	})

	t.Run("show unknown collection", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "collection", "show", "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update renames and clears tags", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		if _, err := run(t, newTestRunner(lib), "collection", "update", "--name", "Closing", "--clear-tags", c.ID); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		got, _ := lib.Collection(c.ID)
		if got.Name != "Closing" || len(got.Tags) != 0 {
			t.Errorf("expected renamed collection without tags, got %+v", got)
		}
	})

	t.Run("update without changes", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "collection", "update", c.ID)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("add and remove tracks", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})
		runner := newTestRunner(lib)

		if _, err := run(t, runner, "collection", "add", c.ID, "t3"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if !lib.IsTrackInCollection(c.ID, "t3") {
			t.Error("expected t3 in collection")
		}

		if _, err := run(t, runner, "collection", "remove", c.ID, "t1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if lib.IsTrackInCollection(c.ID, "t1") {
			t.Error("expected t1 removed from collection")
		}

		_, err := run(t, runner, "collection", "remove", c.ID, "t1")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound removing twice, got %v", err)
		}
	})

	t.Run("add unknown track", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "collection", "add", c.ID, "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reorder", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		if _, err := run(t, newTestRunner(lib), "collection", "reorder", c.ID, "t2", "t1"); err != nil {
			t.Fatalf("reorder failed: %v", err)
		}
		tracks := lib.GetCollectionTracks(c.ID)
		if len(tracks) != 2 || tracks[0].ID != "t2" || tracks[1].ID != "t1" {
			t.Errorf("expected t2 then t1, got %+v", tracks)
		}

		_, err := run(t, newTestRunner(lib), "collection", "reorder", c.ID)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("analyze", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		out, err := run(t, newTestRunner(lib), "collection", "analyze", "--json", c.ID)
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}

		var analysis collectionAnalysis
		if err := json.Unmarshal([]byte(out), &analysis); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if len(analysis.Keys) != 1 || analysis.Keys[0].From != "t1" || analysis.Keys[0].To != "t2" {
			t.Errorf("expected one 8A to 9A pair, got %+v", analysis.Keys)
		}
		if analysis.BPM.Min != 122 || analysis.BPM.Max != 128 {
			t.Errorf("expected BPM range 122-128, got %v-%v", analysis.BPM.Min, analysis.BPM.Max)
		}
	})

	t.Run("delete", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		if _, err := run(t, newTestRunner(lib), "collection", "delete", c.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, ok := lib.Collection(c.ID); ok {
			t.Error("expected collection to be deleted")
		}
		if !lib.IsTrackInLibrary("t1") {
			t.Error("expected tracks to survive collection delete")
		}
	})
}

func TestExportCommands(t *testing.T) {
	t.Run("collection to stdout", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		out, err := run(t, newTestRunner(lib), "export", "collection", "--format", "csv", "--stdout", c.ID)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out, "Opener") || !strings.Contains(out, "Tale of Us; Vaal") {
			t.Errorf("expected CSV rows, got %q", out)
		}
	})

	t.Run("collection to file", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})
		dir := t.TempDir()

		out, err := run(t, newTestRunner(lib), "export", "collection", "--format", "m3u", "--output", dir, c.ID)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		path := filepath.Join(dir, "Peak_Time_Techno.m3u")
		tu.AssertFileExists(t, path)
		if !strings.Contains(out, path) {
			t.Errorf("expected output to name %s, got %q", path, out)
		}
		if content := tu.MustReadFile(t, path); !strings.HasPrefix(content, "#EXTM3U") {
			t.Errorf("expected M3U header, got %q", content)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		lib, c := newTestLibrary(t, library.Options{})

		if _, err := run(t, newTestRunner(lib), "export", "collection", "--format", "xml", c.ID); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("all writes a manifest", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		dir := t.TempDir()

		out, err := run(t, newTestRunner(lib), "export", "all", "--format", "json", "--output", dir, "--workers", "2")
		if err != nil {
			t.Fatalf("export all failed: %v", err)
		}
		if !strings.Contains(out, "Successful:  1") {
			t.Errorf("expected one successful export, got %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})
}

func TestImportCommands(t *testing.T) {
	t.Run("urls from arguments", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		out, err := run(t, newTestRunner(lib), "import", "urls", "--rate", "1000",
			"see https://www.beatport.com/track/opener/17001 and https://www.beatport.com/track/roller/17002")
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(out, "Imported: 2") {
			t.Errorf("expected two imports, got %q", out)
		}
		for _, id := range []int{17001, 17002} {
			if !lib.IsTrackInLibrary(beatport.TrackID(id)) {
				t.Errorf("expected %s in library", beatport.TrackID(id))
			}
		}
	})

	t.Run("urls from file", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})
		path := filepath.Join(t.TempDir(), "links.txt")
		if err := os.WriteFile(path, []byte("https://www.beatport.com/track/drift/17003\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := run(t, newTestRunner(lib), "import", "urls", "--rate", "1000", "--file", path); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !lib.IsTrackInLibrary(beatport.TrackID(17003)) {
			t.Error("expected track from file in library")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "import", "urls", "--file", filepath.Join(t.TempDir(), "nope.txt"))
		if err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// syncRemote records replayed items and answers health checks.
type syncRemote struct {
	mu       sync.Mutex
	healthy  bool
	received []models.SyncQueueItem
}

func (s *syncRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case services.HealthPath:
		if !s.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	case services.SyncPath:
		var item models.SyncQueueItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.received = append(s.received, item)
		w.WriteHeader(http.StatusAccepted)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestSyncCommands(t *testing.T) {
	newOfflineRunner := func(t *testing.T, remote *syncRemote) (*Runner, *library.Manager) {
		t.Helper()

		srv := httptest.NewServer(remote)
		t.Cleanup(srv.Close)

		lib, _ := newTestLibrary(t, library.Options{
			Replayer: services.NewSyncClient(services.NewClient(srv.URL, srv.Client())),
			Offline:  true,
		})

		config := shared.DefaultConfig()
		config.Sync.RemoteURL = srv.URL
		runner := NewRunner(RunnerOpts{
			Config:     config,
			HTTPClient: srv.Client(),
			Logger:     shared.NewLogger(io.Discard),
			Library:    lib,
		})
		return runner, lib
	}

	t.Run("status reports queue", func(t *testing.T) {
		runner, lib := newOfflineRunner(t, &syncRemote{healthy: true})
		queued, _ := lib.QueueLength()

		out, err := run(t, runner, "sync", "status", "--json")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}

		var state syncState
		if err := json.Unmarshal([]byte(out), &state); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if state.Online || state.Queued != queued || state.Status.State != models.SyncIdle {
			t.Errorf("unexpected state: %+v (expected %d queued)", state, queued)
		}
	})

	t.Run("run replays the queue", func(t *testing.T) {
		remote := &syncRemote{healthy: true}
		runner, lib := newOfflineRunner(t, remote)
		queued, _ := lib.QueueLength()
		if queued == 0 {
			t.Fatal("expected offline mutations to be queued")
		}

		out, err := run(t, runner, "sync", "run", "--json")
		if err != nil {
			t.Fatalf("sync run failed: %v", err)
		}

		var report syncReport
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if report.Replayed != queued || report.Failed != 0 || report.Queued != 0 {
			t.Errorf("unexpected report: %+v", report)
		}
		if report.Status.State != models.SyncSuccess || report.Status.LastSyncAt == nil {
			t.Errorf("expected success with a sync time, got %+v", report.Status)
		}

		remote.mu.Lock()
		defer remote.mu.Unlock()
		if len(remote.received) != queued {
			t.Errorf("expected %d items at the remote, got %d", queued, len(remote.received))
		}
	})

	t.Run("run with unhealthy remote", func(t *testing.T) {
		runner, lib := newOfflineRunner(t, &syncRemote{healthy: false})
		before, _ := lib.QueueLength()

		_, err := run(t, runner, "sync", "run")
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
		if after, _ := lib.QueueLength(); after != before {
			t.Errorf("expected queue untouched, had %d now %d", before, after)
		}
	})

	t.Run("run without remote", func(t *testing.T) {
		lib, _ := newTestLibrary(t, library.Options{})

		_, err := run(t, newTestRunner(lib), "sync", "run")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
