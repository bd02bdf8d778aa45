package aiplan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukerupert/mealweek/internal/model"
)

type mockGenerator struct {
	reply  string
	err    error
	prompt string
	image  *Image
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	m.prompt = prompt
	m.image = image
	return m.reply, m.err
}

func newTestService(gen Generator) *Service {
	return NewService(gen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var dishes = []model.Dish{
	{ID: "catalog:beef-tacos", Name: "Beef Tacos", Tags: []string{"beef", "tortillas"}, CookingTime: model.CookingQuick, Difficulty: model.DifficultyEasy, Cuisine: "Mexican"},
	{ID: "catalog:beef-stew", Name: "Beef Stew", Tags: []string{"beef", "potato"}, CookingTime: model.CookingLong, Difficulty: model.DifficultyMedium, Cuisine: "French"},
	{ID: "catalog:fried-rice", Name: "Fried Rice", Tags: []string{"rice", "eggs"}, CookingTime: model.CookingQuick, Difficulty: model.DifficultyEasy, Cuisine: "Chinese"},
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, false},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, false},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`, false},
		{"prose around", "Sure! Here it is: {\"a\":{\"b\":2}} Enjoy.", `{"a":{"b":2}}`, false},
		{"no object", "I cannot help with that.", "", true},
		{"broken", `{"a":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateWeek(t *testing.T) {
	gen := &mockGenerator{reply: "```json\n" + `{"Monday":"Beef Tacos","tuesday":"Fried Rice","wednesday":"Unicorn Pie","funday":"Beef Tacos"}` + "\n```"}
	svc := newTestService(gen)

	plan, err := svc.GenerateWeek(context.Background(), model.GenerateWeekRequest{Notes: "no pork", Cuisines: []string{"Mexican", "Chinese"}}, dishes)
	if err != nil {
		t.Fatalf("generate week: %v", err)
	}
	if len(plan) != 2 || plan[model.Monday] != "Beef Tacos" || plan[model.Tuesday] != "Fried Rice" {
		t.Errorf("plan = %v", plan)
	}
	for _, want := range []string{"no pork", "Mexican, Chinese", "- Beef Stew (French, long, medium; beef, potato)"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateWeekFiltersByCookingTime(t *testing.T) {
	gen := &mockGenerator{reply: `{"monday":"Beef Stew","tuesday":"Beef Tacos"}`}
	svc := newTestService(gen)

	plan, err := svc.GenerateWeek(context.Background(), model.GenerateWeekRequest{MaxCookingTime: model.CookingQuick}, dishes)
	if err != nil {
		t.Fatalf("generate week: %v", err)
	}
	if strings.Contains(gen.prompt, "Beef Stew") {
		t.Error("long dish offered despite quick limit")
	}
	if _, ok := plan[model.Monday]; ok {
		t.Error("filtered dish accepted from reply")
	}
	if plan[model.Tuesday] != "Beef Tacos" {
		t.Errorf("tuesday = %q", plan[model.Tuesday])
	}
}

func TestGenerateWeekErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := newTestService(&mockGenerator{err: boom})
	if _, err := svc.GenerateWeek(context.Background(), model.GenerateWeekRequest{}, dishes); !errors.Is(err, boom) {
		t.Errorf("err = %v, want generator error", err)
	}

	svc = newTestService(&mockGenerator{reply: "no"})
	if _, err := svc.GenerateWeek(context.Background(), model.GenerateWeekRequest{}, dishes); !errors.Is(err, ErrNoJSON) {
		t.Errorf("err = %v, want ErrNoJSON", err)
	}

	if _, err := svc.GenerateWeek(context.Background(), model.GenerateWeekRequest{}, nil); !errors.Is(err, ErrNoDishes) {
		t.Errorf("err = %v, want ErrNoDishes", err)
	}

	if _, err := svc.GenerateWeek(context.Background(), model.GenerateWeekRequest{MaxCookingTime: "instant"}, dishes); err == nil {
		t.Error("expected validation error")
	}
}

func TestGenerateRecipe(t *testing.T) {
	gen := &mockGenerator{reply: `{"name":"Miso Salmon","tags":["salmon","miso"],"cookingTime":"Quick","difficulty":"easy","cuisine":"Japanese","category":"Fish"}`}
	svc := newTestService(gen)

	draft, err := svc.GenerateRecipe(context.Background(), model.RecipeRequest{Prompt: "something with salmon"})
	if err != nil {
		t.Fatalf("generate recipe: %v", err)
	}
	if draft.Name != "Miso Salmon" || draft.CookingTime != model.CookingQuick {
		t.Errorf("draft = %+v", draft)
	}
	if !strings.Contains(gen.prompt, "something with salmon") {
		t.Error("prompt missing request")
	}
}

func TestGenerateRecipeRejectsInvalidDraft(t *testing.T) {
	svc := newTestService(&mockGenerator{reply: `{"name":"Mystery","cookingTime":"forever","difficulty":"easy"}`})

	if _, err := svc.GenerateRecipe(context.Background(), model.RecipeRequest{Prompt: "surprise me"}); err == nil {
		t.Fatal("expected invalid draft error")
	}
	if _, err := svc.GenerateRecipe(context.Background(), model.RecipeRequest{}); err == nil {
		t.Fatal("expected validation error for empty prompt")
	}
}

func TestRecognizeDish(t *testing.T) {
	gen := &mockGenerator{reply: `{"name":" Pad Thai ","tags":["rice noodles","shrimp"],"confidence":0.9}`}
	svc := newTestService(gen)

	img := Image{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}
	rec, err := svc.RecognizeDish(context.Background(), img)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if rec.Name != "Pad Thai" || len(rec.Tags) != 2 {
		t.Errorf("recognition = %+v", rec)
	}
	if gen.image == nil || gen.image.MIMEType != "image/jpeg" {
		t.Error("image not forwarded")
	}

	gen.reply = `{"name":"","tags":[],"confidence":0}`
	if _, err := svc.RecognizeDish(context.Background(), img); !errors.Is(err, ErrNotRecognized) {
		t.Errorf("err = %v, want ErrNotRecognized", err)
	}
}
