package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/ncruces/zenity"
	"github.com/sqweek/dialog"

	"github.com/glimhq/glim/core/session"
	"github.com/glimhq/glim/core/show"
	"github.com/glimhq/glim/internal/config"
	game_log "github.com/glimhq/glim/internal/log"
	"github.com/glimhq/glim/internal/ui"
)

func main() {
	showPath := flag.String("show", "", "show file to open (a picker opens when omitted)")
	cfgPath := flag.String("config", defaultConfigPath(), "editor config file")
	seqIndex := flag.Int("seq", 0, "sequence index to edit")
	logLevel := flag.String("log", "", "log level override (DEBUG, INFO, ERROR, NONE)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		exitErr(err)
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger := game_log.New(os.Stdout, game_log.LevelFromString(level))

	path := *showPath
	if path == "" {
		path, err = dialog.File().Filter("Show files", "json").Title("Open show").Load()
		if err != nil {
			logger.Infof("[MAIN] No show selected, starting with an empty document")
			path = ""
		}
	}

	var doc *show.Show
	if path == "" {
		doc = newShow()
		if name, err := zenity.Entry("Show name?", zenity.Title("New show")); err == nil && name != "" {
			doc.Name = name
		}
	} else {
		doc, err = show.Load(path)
		if err != nil {
			zenity.Error(fmt.Sprintf("Could not open show:\n%v", err), zenity.Title("glim"))
			exitErr(err)
		}
	}
	if *seqIndex < 0 || *seqIndex >= len(doc.Sequences) {
		exitErr(fmt.Errorf("sequence index %d out of range (show has %d)", *seqIndex, len(doc.Sequences)))
	}

	sess := session.New(doc, logger)
	view := ui.New(sess, *seqIndex, path, cfg.Metrics(), logger)

	if path != "" {
		stop, err := watchShow(path, logger, view)
		if err != nil {
			logger.Warnf("[MAIN] Show file watching disabled: %v", err)
		} else {
			defer stop()
		}
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(windowTitle(path, doc.Name))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(view); err != nil {
		zenity.Error(fmt.Sprintf("Editor crashed:\n%v", err), zenity.Title("glim"))
		exitErr(err)
	}
}

func newShow() *show.Show {
	return &show.Show{
		Name:      "Untitled",
		Sequences: []show.Sequence{{Name: "Sequence 1", Duration: 60, FrameRate: 30}},
	}
}

func windowTitle(path, name string) string {
	if path == "" {
		return "glim - " + name
	}
	return "glim - " + filepath.Base(path)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "glim.yaml"
	}
	return filepath.Join(dir, "glim", "glim.yaml")
}

// watchShow reloads the show file when another program writes it and hands
// the parsed document to the view. Events are debounced because editors
// produce bursts of writes and renames per save.
func watchShow(path string, logger *game_log.Logger, view *ui.View) (func() error, error) {
	full, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve show path: %w", err)
	}
	full = filepath.Clean(full)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch show: %w", err)
	}
	// Watch the directory; saves that replace the file would drop a watch
	// on the file itself.
	if err := watcher.Add(filepath.Dir(full)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch show dir: %w", err)
	}

	go func() {
		const debounceWindow = 250 * time.Millisecond
		var (
			timer   *time.Timer
			timerCh <-chan time.Time
		)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != full {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounceWindow)
					timerCh = timer.C
				} else {
					if !timer.Stop() {
						<-timerCh
					}
					timer.Reset(debounceWindow)
				}
			case <-timerCh:
				timer = nil
				timerCh = nil
				doc, err := show.Load(full)
				if err != nil {
					logger.Warnf("[MAIN] Show file changed but failed to load: %v", err)
					continue
				}
				logger.Infof("[MAIN] Show file changed on disk, queueing reload")
				view.QueueDocument(doc)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("[MAIN] Show watcher error: %v", err)
			}
		}
	}()
	return watcher.Close, nil
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
