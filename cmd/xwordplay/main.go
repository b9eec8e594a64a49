// Command xwordplay plays a crossword in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bodul/xword/chime"
	"github.com/bodul/xword/crossword"
	"github.com/bodul/xword/glossary"
)

func main() {
	var (
		glossaryPath = flag.String("glossary", "", "YAML glossary file (default: embedded GenAI glossary)")
		mute         = flag.Bool("mute", false, "disable the celebration chime")
		volume       = flag.Float64("volume", 0.4, "chime volume in [0, 1]")
		logPath      = flag.String("log", "xwordplay.log", "log file")
		debug        = flag.Bool("debug", false, "log at debug level")
	)
	flag.Parse()

	if err := run(*glossaryPath, *logPath, *mute, *volume, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "xwordplay: %v\n", err)
		os.Exit(1)
	}
}

func run(glossaryPath, logPath string, mute bool, volume float64, debug bool) error {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()

	g, err := glossary.Load(glossaryPath)
	if err != nil {
		return err
	}
	p := crossword.Build(g.Entries)
	log.Info().Str("title", g.Title).Int("words", len(p.Words)).Int("dropped", len(p.Dropped)).Msg("puzzle built")

	var sink crossword.Sink
	if !mute {
		player := chime.New(volume)
		if err := player.Init(); err != nil {
			// The game runs silently without a speaker.
			log.Warn().Err(err).Msg("audio init failed")
		}
		defer player.Close()
		sink = player
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	a := newApp(screen, g.Title, crossword.NewController(crossword.NewBoard(p, sink)))
	a.run()
	return nil
}
