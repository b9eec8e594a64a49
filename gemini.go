package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/bodul/xword/crossword"
	"github.com/bodul/xword/glossary"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"

	maxGeneratedEntries = 30
	generateAttempts    = 3
)

const generatePrompt = `Tu prépares une grille de mots croisés sur le thème : %q.

Propose %d termes avec leur définition au format JSON suivant :
{
  "title": "<titre court de la grille>",
  "entries": [
    {"term": "Réseau de neurones", "clue": "Définition courte et claire"},
    ...
  ]
}

Règles :
- Chaque terme compte au moins 3 lettres une fois les espaces et la ponctuation retirés.
- La définition ne contient jamais le terme lui-même.
- Varie les longueurs des termes pour que la grille se croise bien.
- Réponds UNIQUEMENT avec le JSON, sans commentaire ni markdown.`

// GeminiClient generates glossaries with Gemini on Vertex AI.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a client using Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS). Empty region and model fall back to
// europe-west1 and gemini-2.5-flash.
func NewGeminiClient(ctx context.Context, projectID, region, model string) (*GeminiClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("create genai client: missing project ID")
	}
	if region == "" {
		region = defaultRegion
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, modelName: model}, nil
}

// EntryGenerator produces a glossary for a topic.
type EntryGenerator interface {
	GenerateEntries(ctx context.Context, topic string, count int) (*glossary.Glossary, error)
}

// GenerateEntries asks Gemini Flash for a themed glossary. Malformed or
// unusable answers are retried.
func (g *GeminiClient) GenerateEntries(ctx context.Context, topic string, count int) (*glossary.Glossary, error) {
	count = min(max(count, 1), maxGeneratedEntries)

	var out *glossary.Glossary
	err := retry.Do(
		func() error {
			resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
				[]*genai.Content{{
					Role:  "user",
					Parts: []*genai.Part{{Text: fmt.Sprintf(generatePrompt, topic, count)}},
				}},
				&genai.GenerateContentConfig{
					Temperature:      genai.Ptr(float32(0.7)),
					TopP:             genai.Ptr(float32(1)),
					ResponseMIMEType: "application/json",
				},
			)
			if err != nil {
				return fmt.Errorf("gemini generate: %w", err)
			}
			out, err = parseGlossary(resp.Text())
			return err
		},
		retry.Context(ctx),
		retry.Attempts(generateAttempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("topic", topic).Msg("Nouvelle tentative Gemini")
		}),
	)
	if err != nil {
		return nil, err
	}
	if out.Title == "" {
		out.Title = topic
	}
	return out, nil
}

// parseGlossary decodes a model answer and keeps only entries that can be
// placed in a grid.
func parseGlossary(text string) (*glossary.Glossary, error) {
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var g glossary.Glossary
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, fmt.Errorf("parse glossary JSON: %w\nraw response: %s", err, text)
	}

	usable := g.Entries[:0]
	for _, e := range g.Entries {
		if len(crossword.Normalize(e.Term)) >= crossword.MinAnswerLength && e.Clue != "" {
			usable = append(usable, e)
		}
	}
	g.Entries = usable
	if len(g.Entries) == 0 {
		return nil, fmt.Errorf("gemini returned no usable entries")
	}
	return &g, nil
}
