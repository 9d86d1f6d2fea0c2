// Package gemini implements the AI classifier adapter on top of Google's
// Gemini API. The core never trusts its output: every draft is revalidated
// against the same schema as the rule-based path, and any failure here is
// absorbed by the parse orchestrator as a fallback trigger.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"cashmate/internal/core"
)

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey string
	Model  string
}

// Classifier calls Gemini to classify transaction text. It implements
// parser.Classifier.
type Classifier struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Classifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Classifier{client: client, model: model}, nil
}

// Classify sends the text to Gemini and decodes the JSON draft. Every
// failure mode (transport, empty response, malformed or non-conforming
// JSON) maps to core.ErrClassifierUnavailable so the orchestrator can
// fall back without inspecting the cause.
func (c *Classifier) Classify(ctx context.Context, text string) (core.Draft, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(text)}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return core.Draft{}, fmt.Errorf("%w: generate content: %v", core.ErrClassifierUnavailable, err)
	}

	raw := resp.Text()
	if raw == "" {
		return core.Draft{}, fmt.Errorf("%w: empty model response", core.ErrClassifierUnavailable)
	}

	draft, err := parseResponse(raw)
	if err != nil {
		slog.DebugContext(ctx, "Discarding malformed model response", "error", err)
		return core.Draft{}, err
	}
	return draft, nil
}

// wireDraft is the JSON shape the model is instructed to emit. Field names
// follow the Indonesian prompt vocabulary.
type wireDraft struct {
	Tipe       string      `json:"tipe"`
	Nominal    json.Number `json:"nominal"`
	Akun       string      `json:"akun"`
	AkunAsal   string      `json:"akun_asal"`
	AkunTujuan string      `json:"akun_tujuan"`
	Kategori   string      `json:"kategori"`
	Catatan    string      `json:"catatan"`
}

// parseResponse cleans markdown fences from the raw model output and maps
// the wire JSON onto a core draft.
func parseResponse(raw string) (core.Draft, error) {
	clean := cleanModelJSON(raw)

	var w wireDraft
	if err := json.Unmarshal([]byte(clean), &w); err != nil {
		return core.Draft{}, fmt.Errorf("%w: unmarshal model JSON: %v", core.ErrClassifierUnavailable, err)
	}

	kind, err := kindFromTipe(w.Tipe)
	if err != nil {
		return core.Draft{}, err
	}

	amount, err := w.Nominal.Int64()
	if err != nil {
		// Some responses carry a float; accept it when it is whole.
		f, ferr := w.Nominal.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return core.Draft{}, fmt.Errorf("%w: non-integer nominal %q", core.ErrClassifierUnavailable, w.Nominal)
		}
		amount = int64(f)
	}

	draft := core.Draft{
		Kind:     kind,
		Amount:   amount,
		Category: strings.TrimSpace(w.Kategori),
		Note:     strings.TrimSpace(w.Catatan),
	}
	if kind == core.Transfer {
		draft.SourceAccount = strings.TrimSpace(w.AkunAsal)
		draft.DestAccount = strings.TrimSpace(w.AkunTujuan)
		draft.Category = "transfer"
	} else {
		draft.Account = strings.TrimSpace(w.Akun)
	}
	if draft.Note == "" {
		draft.Note = core.DefaultNote
	}
	return draft, nil
}

func kindFromTipe(tipe string) (core.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(tipe)) {
	case "bukan_transaksi":
		return "", core.ErrNotATransaction
	case "pemasukan", "income":
		return core.Income, nil
	case "pengeluaran", "expense":
		return core.Expense, nil
	case "transfer":
		return core.Transfer, nil
	default:
		return "", fmt.Errorf("%w: unknown tipe %q", core.ErrClassifierUnavailable, tipe)
	}
}

// cleanModelJSON strips markdown code fences and surrounding prose when the
// model ignores the raw-JSON instruction, keeping the first {...} span.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
