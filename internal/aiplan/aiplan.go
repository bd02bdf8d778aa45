// Package aiplan asks a hosted language model for weekly plans, draft
// recipes and dish recognition. Each call is a single request with no
// retries.
package aiplan

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/model"
)

var (
	ErrNoJSON        = errors.New("model reply contains no JSON")
	ErrNotRecognized = errors.New("no dish recognized in photo")
	ErrNoDishes      = errors.New("no dishes to choose from")
)

//go:embed week_prompt.md
var weekPrompt string

//go:embed recipe_prompt.md
var recipePrompt string

//go:embed recognize_prompt.md
var recognizePrompt string

var funcs = template.FuncMap{
	"join": func(items any, sep string) string {
		switch v := items.(type) {
		case []string:
			return strings.Join(v, sep)
		}
		return fmt.Sprint(items)
	},
}

var (
	weekTmpl   = template.Must(template.New("week").Funcs(funcs).Parse(weekPrompt))
	recipeTmpl = template.Must(template.New("recipe").Parse(recipePrompt))
)

// Recognition is what the model saw in a dish photo.
type Recognition struct {
	Name       string   `json:"name"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
}

type Service struct {
	gen      Generator
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(gen Generator, logger *slog.Logger) *Service {
	return &Service{
		gen:      gen,
		validate: validator.New(),
		logger:   logger.With("component", "aiplan"),
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// ExtractJSON returns the first JSON object in text, ignoring code fences and
// surrounding prose.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("%w: invalid object", ErrNoJSON)
	}
	return candidate, nil
}

func (s *Service) ask(ctx context.Context, prompt string, image *Image, out any) error {
	reply, err := s.gen.Generate(ctx, prompt, image)
	if err != nil {
		return err
	}
	raw, err := ExtractJSON(reply)
	if err != nil {
		s.logger.Debug("unparseable model reply", "reply", reply)
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}

func allowedByTime(d model.Dish, limit model.CookingTime) bool {
	rank := map[model.CookingTime]int{model.CookingQuick: 0, model.CookingMedium: 1, model.CookingLong: 2}
	if limit == "" {
		return true
	}
	return rank[d.CookingTime] <= rank[limit]
}

// GenerateWeek picks a dish name per day from dishes. Names the model invents
// and keys that are not days are dropped.
func (s *Service) GenerateWeek(ctx context.Context, req model.GenerateWeekRequest, dishes []model.Dish) (map[model.Day]string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	var candidates []model.Dish
	for _, d := range dishes {
		if allowedByTime(d, req.MaxCookingTime) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoDishes
	}

	prompt, err := render(weekTmpl, map[string]any{
		"Notes":          req.Notes,
		"MaxCookingTime": req.MaxCookingTime,
		"Cuisines":       req.Cuisines,
		"Dishes":         candidates,
	})
	if err != nil {
		return nil, err
	}

	var reply map[string]string
	if err := s.ask(ctx, prompt, nil, &reply); err != nil {
		return nil, fmt.Errorf("generate week: %w", err)
	}

	known := make(map[string]bool, len(candidates))
	for _, d := range candidates {
		known[d.Name] = true
	}
	plan := make(map[model.Day]string, 7)
	for key, name := range reply {
		day, err := model.ParseDay(key)
		if err != nil || !known[name] {
			s.logger.Debug("ignoring suggestion", "day", key, "dish", name)
			continue
		}
		plan[day] = name
	}
	return plan, nil
}

// GenerateRecipe drafts a dish for the prompt. The draft is validated like a
// submitted dish form but is not stored.
func (s *Service) GenerateRecipe(ctx context.Context, req model.RecipeRequest) (*model.DishRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	prompt, err := render(recipeTmpl, req)
	if err != nil {
		return nil, err
	}

	var draft model.DishRequest
	if err := s.ask(ctx, prompt, nil, &draft); err != nil {
		return nil, fmt.Errorf("generate recipe: %w", err)
	}
	draft.CookingTime = model.CookingTime(strings.ToLower(string(draft.CookingTime)))
	draft.Difficulty = model.Difficulty(strings.ToLower(string(draft.Difficulty)))
	if err := s.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("generate recipe: invalid draft: %w", err)
	}
	return &draft, nil
}

// RecognizeDish names the dish in a photo.
func (s *Service) RecognizeDish(ctx context.Context, image Image) (*Recognition, error) {
	var rec Recognition
	if err := s.ask(ctx, recognizePrompt, &image, &rec); err != nil {
		return nil, fmt.Errorf("recognize dish: %w", err)
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return nil, ErrNotRecognized
	}
	return &rec, nil
}
