package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/bodul/xword/crossword"
)

const (
	maxBodySize    = 1 << 20 // 1 Mo
	maxEntries     = 200
	defaultGenSize = 15
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go rl.cleanup(time.Minute)
	return rl
}

// cleanup drops visitors idle for five minutes, every period, until close.
func (rl *rateLimiter) cleanup(period time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// close stops the cleanup goroutine and waits for it to exit.
func (rl *rateLimiter) close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Server is the main HTTP server.
type Server struct {
	mux     *http.ServeMux
	store   *Store
	gen     EntryGenerator
	sse     *Broadcaster
	buildRL *rateLimiter
	inputRL *rateLimiter
}

// NewServer creates a configured HTTP server. gen may be nil, in which case
// grids can only be built from explicit entries.
func NewServer(store *Store, gen EntryGenerator) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		store:   store,
		gen:     gen,
		sse:     NewBroadcaster(),
		buildRL: newRateLimiter(5, time.Minute),  // 5 builds/min per IP
		inputRL: newRateLimiter(60, time.Second), // 60 inputs/sec per IP
	}
	s.routes()
	return s
}

// Close stops the server's background goroutines.
func (s *Server) Close() {
	s.buildRL.close()
	s.inputRL.close()
}

func (s *Server) routes() {
	// Grid API
	s.mux.HandleFunc("POST /api/grids", s.handleCreateGrid)
	s.mux.HandleFunc("GET /api/grids", s.handleListGrids)
	s.mux.HandleFunc("GET /api/grids/{id}", s.handleGetGrid)

	// Game API
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("POST /api/games/{id}/join", s.handleJoinGame)
	s.mux.HandleFunc("POST /api/games/{id}/click", s.handleClick)
	s.mux.HandleFunc("POST /api/games/{id}/clue", s.handleSelectClue)
	s.mux.HandleFunc("POST /api/games/{id}/key", s.handleKey)
	s.mux.HandleFunc("POST /api/games/{id}/action", s.handleAction)
	s.mux.HandleFunc("GET /api/games/{id}/events", s.handleGameEvents)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// --- Grid handlers ---

// POST /api/grids: build a grid from entries, or from a topic via Gemini.
func (s *Server) handleCreateGrid(w http.ResponseWriter, r *http.Request) {
	if !s.buildRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Title   string            `json:"title"`
		Entries []crossword.Entry `json:"entries"`
		Topic   string            `json:"topic"`
		Count   int               `json:"count"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Requête invalide", http.StatusBadRequest)
		return
	}

	switch {
	case len(req.Entries) > maxEntries:
		jsonError(w, "Trop de définitions", http.StatusBadRequest)
		return
	case len(req.Entries) == 0 && strings.TrimSpace(req.Topic) == "":
		jsonError(w, "Champ 'entries' ou 'topic' requis", http.StatusBadRequest)
		return
	case len(req.Entries) == 0:
		if s.gen == nil {
			jsonError(w, "Génération de glossaire non configurée", http.StatusServiceUnavailable)
			return
		}
		count := req.Count
		if count <= 0 {
			count = defaultGenSize
		}
		g, err := s.gen.GenerateEntries(r.Context(), strings.TrimSpace(req.Topic), count)
		if err != nil {
			log.Error().Err(err).Str("topic", req.Topic).Msg("Gemini generate error")
			jsonError(w, "Erreur lors de la génération du glossaire", http.StatusInternalServerError)
			return
		}
		req.Entries = g.Entries
		if req.Title == "" {
			req.Title = g.Title
		}
	}

	grid, err := NewGrid(strings.TrimSpace(req.Title), req.Entries)
	switch {
	case errors.Is(err, errNoWords):
		jsonError(w, "Aucun mot n'a pu être placé", http.StatusUnprocessableEntity)
		return
	case err != nil:
		log.Error().Err(err).Msg("build grid")
		jsonError(w, "Erreur interne", http.StatusInternalServerError)
		return
	}

	s.store.SaveGrid(grid)
	log.Info().Str("grid", grid.ID).Int("dropped", len(grid.Dropped)).Msg("Grille créée")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(grid)
}

// GET /api/grids: list all grids.
func (s *Server) handleListGrids(w http.ResponseWriter, _ *http.Request) {
	grids := s.store.ListGrids()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(grids)
}

// GET /api/grids/{id}: get a single grid.
func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	grid := s.store.GetGrid(r.PathValue("id"))
	if grid == nil {
		jsonError(w, "Grille introuvable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(grid)
}

// --- Game handlers ---

// POST /api/games: create a game from a grid.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GridID string `json:"grid_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GridID == "" {
		jsonError(w, "Champ 'grid_id' requis", http.StatusBadRequest)
		return
	}

	game, err := s.store.CreateGame(req.GridID)
	if err != nil {
		jsonError(w, "Grille introuvable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(game.Snapshot())
}

// GET /api/games: list game sessions, most recent first.
func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	games := s.store.ListGames()
	list := make([]GameState, 0, len(games))
	for _, g := range games {
		list = append(list, g.Snapshot())
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// GET /api/games/{id}: get current game state.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	resp := struct {
		GameState
		Grid *Grid `json:"grid"`
	}{
		GameState: game.Snapshot(),
		Grid:      s.store.GetGrid(game.GridID),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// POST /api/games/{id}/join: join a game with a pseudo.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	var req struct {
		Pseudo string `json:"pseudo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pseudo == "" {
		jsonError(w, "Champ 'pseudo' requis", http.StatusBadRequest)
		return
	}

	pseudo := sanitizePseudo(req.Pseudo)
	if pseudo == "" {
		jsonError(w, "Pseudo invalide", http.StatusBadRequest)
		return
	}

	player := game.AddPlayer(pseudo)

	s.sse.Publish(game.ID, map[string]string{
		"type":   "player_joined",
		"pseudo": player.Pseudo,
		"color":  player.Color,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(player)
}

// POST /api/games/{id}/click: focus a cell.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo string `json:"pseudo"`
		Row    int    `json:"row"`
		Col    int    `json:"col"`
	}
	s.handleInput(w, r, &req, func(g *GameSession) (Update, error) {
		return g.Click(req.Pseudo, req.Row, req.Col)
	})
}

// POST /api/games/{id}/clue: jump to a clue.
func (s *Server) handleSelectClue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo string `json:"pseudo"`
		WordID int    `json:"word_id"`
	}
	s.handleInput(w, r, &req, func(g *GameSession) (Update, error) {
		return g.SelectWord(req.Pseudo, req.WordID)
	})
}

// POST /api/games/{id}/key: apply a keystroke.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo string `json:"pseudo"`
		Key    string `json:"key"`
	}
	s.handleInput(w, r, &req, func(g *GameSession) (Update, error) {
		return g.Key(req.Pseudo, req.Key)
	})
}

// POST /api/games/{id}/action: check, reveal or clear.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pseudo string `json:"pseudo"`
		Action Action `json:"action"`
	}
	s.handleInput(w, r, &req, func(g *GameSession) (Update, error) {
		return g.Do(req.Pseudo, req.Action)
	})
}

// handleInput decodes req, runs op against the game and broadcasts the
// resulting update.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request, req any, op func(*GameSession) (Update, error)) {
	if !s.inputRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		jsonError(w, "Requête invalide", http.StatusBadRequest)
		return
	}

	upd, err := op(game)
	switch {
	case errors.Is(err, errUnknownPlayer):
		jsonError(w, "Joueur inconnu, rejoignez la partie d'abord", http.StatusForbidden)
		return
	case errors.Is(err, errUnknownAction):
		jsonError(w, "Action inconnue", http.StatusBadRequest)
		return
	case errors.Is(err, errInvalidKey):
		jsonError(w, "Touche invalide", http.StatusBadRequest)
		return
	case err != nil:
		log.Error().Err(err).Str("game", game.ID).Msg("input error")
		jsonError(w, "Erreur interne", http.StatusInternalServerError)
		return
	}

	s.publish(game, upd)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(upd)
}

// publish fans an update out to the game's SSE clients.
func (s *Server) publish(game *GameSession, upd Update) {
	pseudo := upd.Cursor.Pseudo
	if upd.Cleared {
		s.sse.Publish(game.ID, map[string]string{"type": "cleared", "pseudo": pseudo})
	}
	for _, c := range upd.Cells {
		s.sse.Publish(game.ID, map[string]any{
			"type":   "cell_update",
			"row":    c.Row,
			"col":    c.Col,
			"value":  c.Value,
			"pseudo": pseudo,
		})
	}
	s.sse.Publish(game.ID, map[string]any{"type": "cursor", "cursor": upd.Cursor})
	for _, id := range upd.Progress.Completed {
		s.sse.Publish(game.ID, map[string]any{"type": "word_completed", "word_id": id, "pseudo": pseudo})
	}
	if upd.Progress.Solved {
		s.sse.Publish(game.ID, map[string]any{"type": "puzzle_completed", "pseudo": pseudo})
	}
	for range upd.Celebrations {
		s.sse.Publish(game.ID, map[string]string{"type": "celebrate"})
	}
	if upd.Checked {
		s.sse.Publish(game.ID, map[string]any{"type": "checked", "wrong": upd.Wrong})
	}
}

// GET /api/games/{id}/events: SSE stream.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Partie introuvable", http.StatusNotFound)
		return
	}

	playerPseudo := sanitizePseudo(r.URL.Query().Get("pseudo"))

	s.sse.ServeSSE(w, r, game.ID, func(c *client) {
		// Send initial game state on connect.
		evt, _ := json.Marshal(map[string]any{
			"type":  "game_state",
			"state": game.Snapshot(),
		})
		c.ch <- string(evt)
	}, func() {
		// On disconnect: broadcast player_left if pseudo was provided.
		if playerPseudo != "" {
			game.RemovePlayer(playerPseudo)
			s.sse.Publish(game.ID, map[string]string{
				"type":   "player_left",
				"pseudo": playerPseudo,
			})
		}
	})
}

// --- Helpers ---

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizePseudo(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 20 {
		s = string([]rune(s)[:20])
	}
	return s
}
