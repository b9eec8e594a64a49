package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bodul/xword/crossword"
	"github.com/bodul/xword/glossary"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := NewServer(NewStore(), nil)
	t.Cleanup(srv.Close)
	return srv
}

// seedGrid stores NETWORK across at (12,9) and TOKEN down at (8,9).
// The visible bounds are rows 7-13, cols 8-16.
func seedGrid(t *testing.T, s *Server) *Grid {
	t.Helper()
	g, err := NewGrid("test", []crossword.Entry{
		{Term: "TOKEN", Clue: "a piece of text"},
		{Term: "NETWORK", Clue: "connected nodes"},
	})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	s.store.SaveGrid(g)
	return g
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func startGame(t *testing.T, srv *Server, pseudo string) GameState {
	t.Helper()
	grid := seedGrid(t, srv)

	w := do(srv, "POST", "/api/games", `{"grid_id":"`+grid.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var game GameState
	json.NewDecoder(w.Body).Decode(&game)
	if game.ID == "" {
		t.Fatal("game ID is empty")
	}

	w = do(srv, "POST", "/api/games/"+game.ID+"/join", `{"pseudo":"`+pseudo+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("join game: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return game
}

func sendKeys(t *testing.T, srv *Server, gameID, pseudo, keys string) []Update {
	t.Helper()
	var out []Update
	for _, k := range keys {
		w := do(srv, "POST", "/api/games/"+gameID+"/key", `{"pseudo":"`+pseudo+`","key":"`+string(k)+`"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("key %q: expected 200, got %d: %s", k, w.Code, w.Body.String())
		}
		var upd Update
		json.NewDecoder(w.Body).Decode(&upd)
		out = append(out, upd)
	}
	return out
}

func TestCreateGridFromEntries(t *testing.T) {
	srv := newTestServer(t)

	body := `{"title":"Réseaux","entries":[{"term":"token","clue":"a piece of text"},{"term":"network","clue":"connected nodes"},{"term":"ai","clue":"too short"}]}`
	w := do(srv, "POST", "/api/grids", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var grid Grid
	json.NewDecoder(w.Body).Decode(&grid)
	if grid.ID == "" {
		t.Fatal("grid ID is empty")
	}
	if len(grid.Across) != 1 || len(grid.Down) != 1 {
		t.Fatalf("expected 1 across and 1 down clue, got %d/%d", len(grid.Across), len(grid.Down))
	}
	if len(grid.Dropped) != 1 || grid.Dropped[0].Reason != crossword.DropTooShort {
		t.Fatalf("expected AI dropped as too short, got %+v", grid.Dropped)
	}
	if strings.Contains(w.Body.String(), "NETWORK") {
		t.Fatal("answers must not be sent to clients")
	}
	if len(grid.Cells) != grid.Bounds.Rows() || len(grid.Cells[0]) != grid.Bounds.Cols() {
		t.Fatal("cells should cover the visible bounds")
	}

	w = do(srv, "GET", "/api/grids/"+grid.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get grid: expected 200, got %d", w.Code)
	}
	w = do(srv, "GET", "/api/grids", "")
	var list []Grid
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("expected 1 grid, got %d", len(list))
	}
}

func TestCreateGridValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"nothing", `{"title":"x"}`, http.StatusBadRequest},
		{"no generator", `{"topic":"kubernetes"}`, http.StatusServiceUnavailable},
		{"nothing placeable", `{"entries":[{"term":"AI","clue":"x"},{"term":"42","clue":"y"}]}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(srv, "POST", "/api/grids", tc.body)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetGridNotFound(t *testing.T) {
	srv := newTestServer(t)
	if w := do(srv, "GET", "/api/grids/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

type fakeGenerator struct {
	topic string
	count int
}

func (f *fakeGenerator) GenerateEntries(_ context.Context, topic string, count int) (*glossary.Glossary, error) {
	f.topic, f.count = topic, count
	return &glossary.Glossary{
		Title: "Généré",
		Entries: []crossword.Entry{
			{Term: "TOKEN", Clue: "a piece of text"},
			{Term: "NETWORK", Clue: "connected nodes"},
		},
	}, nil
}

func TestCreateGridFromTopic(t *testing.T) {
	gen := &fakeGenerator{}
	srv := NewServer(NewStore(), gen)
	defer srv.Close()

	w := do(srv, "POST", "/api/grids", `{"topic":" réseaux "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if gen.topic != "réseaux" || gen.count != defaultGenSize {
		t.Fatalf("unexpected generator call: %q/%d", gen.topic, gen.count)
	}
	var grid Grid
	json.NewDecoder(w.Body).Decode(&grid)
	if grid.Title != "Généré" {
		t.Fatalf("expected generated title, got %q", grid.Title)
	}
}

func TestFullGameFlow(t *testing.T) {
	srv := newTestServer(t)
	game := startGame(t, srv, "Alice")

	// The first cursor sits on the T of TOKEN.
	ups := sendKeys(t, srv, game.ID, "Alice", "token")
	if len(ups[0].Cells) != 1 || ups[0].Cells[0] != (CellUpdate{Row: 8, Col: 9, Value: "T"}) {
		t.Fatalf("unexpected first update: %+v", ups[0].Cells)
	}
	last := ups[len(ups)-1]
	if len(last.Progress.Completed) != 1 || last.Celebrations != 1 {
		t.Fatalf("expected TOKEN completed once, got %+v", last)
	}

	w := do(srv, "POST", "/api/games/"+game.ID+"/click", `{"pseudo":"Alice","row":12,"col":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("click: expected 200, got %d", w.Code)
	}
	ups = sendKeys(t, srv, game.ID, "Alice", "ETWORK")
	last = ups[len(ups)-1]
	if !last.Progress.Solved || last.Celebrations != 2 {
		t.Fatalf("expected solved with word and full celebrations, got %+v", last)
	}

	w = do(srv, "GET", "/api/games/"+game.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get game: expected 200, got %d", w.Code)
	}
	var resp struct {
		State     [][]string `json:"state"`
		Completed []int      `json:"completed"`
		Solved    bool       `json:"solved"`
		Grid      *Grid      `json:"grid"`
	}
	json.NewDecoder(w.Body).Decode(&resp)

	// State is relative to the bounds origin (7,8).
	if resp.State[1][1] != "T" || resp.State[5][7] != "K" || resp.State[5][8] != "" {
		t.Fatalf("unexpected state: %v", resp.State)
	}
	if !resp.Solved || len(resp.Completed) != 2 {
		t.Fatalf("expected solved with 2 words, got %+v", resp)
	}
	if resp.Grid == nil {
		t.Fatal("grid should be included in game response")
	}
}

func TestActions(t *testing.T) {
	srv := newTestServer(t)
	game := startGame(t, srv, "Bob")

	sendKeys(t, srv, game.ID, "Bob", "X")
	w := do(srv, "POST", "/api/games/"+game.ID+"/action", `{"pseudo":"Bob","action":"check"}`)
	var upd Update
	json.NewDecoder(w.Body).Decode(&upd)
	if !upd.Checked || len(upd.Wrong) != 1 || upd.Wrong[0] != (crossword.Position{Row: 8, Col: 9}) {
		t.Fatalf("expected one wrong cell, got %+v", upd)
	}

	w = do(srv, "POST", "/api/games/"+game.ID+"/action", `{"pseudo":"Bob","action":"reveal_all"}`)
	upd = Update{}
	json.NewDecoder(w.Body).Decode(&upd)
	if !upd.Progress.Solved || upd.Celebrations != 1 {
		t.Fatalf("reveal all: expected one full celebration, got %+v", upd)
	}

	w = do(srv, "POST", "/api/games/"+game.ID+"/action", `{"pseudo":"Bob","action":"clear_all"}`)
	upd = Update{}
	json.NewDecoder(w.Body).Decode(&upd)
	if !upd.Cleared || upd.Cursor.Active || upd.Checked {
		t.Fatalf("clear all: unexpected update %+v", upd)
	}

	if w := do(srv, "POST", "/api/games/"+game.ID+"/action", `{"pseudo":"Bob","action":"explode"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown action: expected 400, got %d", w.Code)
	}
}

func TestInputValidation(t *testing.T) {
	srv := newTestServer(t)
	game := startGame(t, srv, "Bob")

	cases := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown player", "/key", `{"pseudo":"Eve","key":"A"}`, http.StatusForbidden},
		{"invalid key", "/key", `{"pseudo":"Bob","key":"Shift"}`, http.StatusBadRequest},
		{"bad json", "/click", `{`, http.StatusBadRequest},
		{"click on block", "/click", `{"pseudo":"Bob","row":0,"col":0}`, http.StatusOK},
		{"select clue", "/clue", `{"pseudo":"Bob","word_id":1}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(srv, "POST", "/api/games/"+game.ID+tc.path, tc.body)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, w.Code, w.Body.String())
			}
		})
	}

	if w := do(srv, "POST", "/api/games/nope/key", `{"pseudo":"Bob","key":"A"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown game: expected 404, got %d", w.Code)
	}
}

func TestListGames(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "GET", "/api/games", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d: %s", w.Code, w.Body.String())
	}

	game := startGame(t, srv, "Alice")
	w = do(srv, "GET", "/api/games", "")
	var list []GameState
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != game.ID {
		t.Fatalf("expected the created game, got %+v", list)
	}
	if len(list[0].Players) != 1 || list[0].Players[0].Pseudo != "Alice" {
		t.Fatalf("expected Alice in the listed game, got %+v", list[0].Players)
	}
}

func TestCreateGameInvalidGrid(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "POST", "/api/games", `{"grid_id":"nonexistent"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPublishEvents(t *testing.T) {
	srv := newTestServer(t)
	game := startGame(t, srv, "Alice")

	c := srv.sse.Register(game.ID)
	defer srv.sse.Unregister(c)

	sendKeys(t, srv, game.ID, "Alice", "T")

	var types []string
	for len(c.ch) > 0 {
		var evt struct {
			Type string `json:"type"`
		}
		json.Unmarshal([]byte(<-c.ch), &evt)
		types = append(types, evt.Type)
	}
	if strings.Join(types, ",") != "cell_update,cursor" {
		t.Fatalf("unexpected events: %v", types)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	w := do(srv, "GET", "/api/grids", "")

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	for key, expected := range headers {
		if got := w.Header().Get(key); got != expected {
			t.Errorf("header %s: expected %q, got %q", key, expected, got)
		}
	}

	csp := w.Header().Get("Content-Security-Policy")
	if csp == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Second)
	defer rl.close()

	// First 3 should pass.
	for i := range 3 {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	// 4th should be blocked.
	if rl.allow("1.2.3.4") {
		t.Fatal("4th request should be rate limited")
	}

	// Different IP should still be allowed.
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should be allowed")
	}
}

func TestRateLimiterClose(t *testing.T) {
	rl := newRateLimiter(3, time.Second)

	closed := make(chan struct{})
	go func() {
		rl.close()
		rl.close() // second close is a no-op
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close did not stop the cleanup goroutine")
	}
	if !rl.allow("1.2.3.4") {
		t.Fatal("a closed limiter still rate limits")
	}
}

func TestSanitizePseudo(t *testing.T) {
	if got := sanitizePseudo("  Alice  "); got != "Alice" {
		t.Fatalf("expected trimmed pseudo, got %q", got)
	}
	if got := sanitizePseudo(strings.Repeat("é", 30)); len([]rune(got)) != 20 {
		t.Fatalf("expected 20 runes, got %d", len([]rune(got)))
	}
}
