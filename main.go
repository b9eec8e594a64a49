package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bodul/xword/glossary"
)

const gracefulShutdownTimeout = 10 * time.Second

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration invalide")
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gen EntryGenerator
	if cfg.GCPProjectID != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPRegion, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Impossible d'initialiser Gemini")
		}
		gen = gemini
		log.Info().Str("project", cfg.GCPProjectID).Str("model", gemini.modelName).Msg("Client Gemini initialisé")
	} else {
		log.Info().Msg("GCP_PROJECT_ID non défini, génération de glossaire désactivée")
	}

	store := NewStore()

	g, err := glossary.Load(cfg.GlossaryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Impossible de charger le glossaire")
	}
	grid, err := NewGrid(g.Title, g.Entries)
	if err != nil {
		log.Fatal().Err(err).Str("glossary", g.Title).Msg("Aucun mot placé")
	}
	store.SaveGrid(grid)
	log.Info().
		Str("grid", grid.ID).
		Int("words", len(grid.Across)+len(grid.Down)).
		Int("dropped", len(grid.Dropped)).
		Msgf("Grille %q prête", grid.Title)

	eg, ctx := errgroup.WithContext(ctx)
	handler := NewServer(store, gen)

	// Request contexts end with ctx so open SSE streams let Shutdown finish.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	eg.Go(func() error {
		log.Info().Msgf("Serveur démarré sur http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Arrêt du serveur…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = eg.Wait()
	handler.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("Serveur arrêté")
	}
}
