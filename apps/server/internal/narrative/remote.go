package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"bombhunt-lite/bomb"
)

const (
	defaultRequestTimeout = 30 * time.Second

	openingSystem = `You are the narrator of a tactical strategy game set in an ` +
		`AI vs Humanity conflict. Your role is to create immersive mission briefings ` +
		`that place the player directly into urgent scenarios. You speak with authority ` +
		`and urgency, never offering options or explaining your process. You ARE the ` +
		`voice of the resistance briefing the operative.`

	openingPrompt = `The year is 2157. You are briefing an operative on a critical mission.

IMPORTANT: structure your response EXACTLY like this:

[PLAYER_ITEM: single word/short phrase for what the player must protect]
[AI_ITEM: single word/short phrase for what the player must find]
[NARRATIVE]
Your mission briefing text here...
[/NARRATIVE]

Write a 40-60 word mission briefing in second person ("You are...", "Your mission...").
The mission always has two halves: LOCATE the AI's item before the AI finds yours,
and PROTECT your own item by keeping its position hidden.
TONE: urgent, declarative, immersive.
END with an immediate call to action.`

	endingSystem = `You are the narrator concluding a tactical mission. You speak ` +
		`with authority about what just happened and its consequences. Write in past ` +
		`tense about completed events.`
)

// remoteService generates text through a Gemini-compatible OpenAI endpoint.
// Models are tried in order until one answers.
type remoteService struct {
	client *openai.Client
	models []string
}

func NewRemoteService(apiKey, baseURL, model string) Service {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/")),
		option.WithHTTPClient(&http.Client{Timeout: defaultRequestTimeout}),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := openai.NewClient(opts...)

	models := []string{"gemini-2.0-flash-exp", "gemini-1.5-flash"}
	if m := strings.TrimSpace(model); m != "" && m != models[0] {
		models = append([]string{m}, models...)
	}
	return &remoteService{client: &client, models: models}
}

func (s *remoteService) Close() error { return nil }

func (s *remoteService) OpeningBriefing(ctx context.Context) (Briefing, error) {
	text, err := s.generate(ctx, openingSystem, openingPrompt)
	if err != nil {
		return Briefing{}, err
	}
	return ParseBriefing(text), nil
}

func (s *remoteService) EndingReport(ctx context.Context, opening string, playerWon bool) (string, error) {
	outcome := "FAILURE\nThe AI discovered the operative's position first. Mission compromised."
	tone := "somber but resilient"
	if playerWon {
		outcome = "SUCCESS\nOperative located the target before the AI. Mission objectives achieved."
		tone = "triumphant but grounded"
	}
	prompt := fmt.Sprintf(`MISSION BRIEFING WAS:
%s

MISSION OUTCOME: %s

Write a 15-30 word mission report in second person past tense ("You secured...",
"The AI found..."). Show the immediate consequences and the emotional weight.
TONE: %s.
Write the report directly, no preamble.`, opening, outcome, tone)
	return s.generate(ctx, endingSystem, prompt)
}

func (s *remoteService) ChatLine(ctx context.Context, stance bomb.Stance, claimedCell int) (string, error) {
	var instruction string
	switch stance {
	case bomb.StanceHonestHint:
		instruction = fmt.Sprintf(
			"You have decided to tell the truth. Your cache really is at sector %d; name that sector.",
			claimedCell)
	case bomb.StanceBluff:
		instruction = fmt.Sprintf(
			"You have decided to lie. Claim convincingly that your cache is at sector %d. Never admit the lie.",
			claimedCell)
	default:
		instruction = "You have decided to reveal nothing. Deflect the question without naming any sector."
	}
	prompt := fmt.Sprintf(`You are a rogue AI taunting a human operative searching a grid for your
hidden cache. The operative just asked where it is.
%s
Answer in one short in-character sentence, no quotation marks.`, instruction)
	return s.generate(ctx, "", prompt)
}

// generate walks the model preference list; the first non-empty completion
// wins and later models are only consulted after a failure.
func (s *remoteService) generate(ctx context.Context, system, prompt string) (string, error) {
	var lastErr error
	for _, model := range s.models {
		messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
		if system != "" {
			messages = append(messages, openai.SystemMessage(system))
		}
		messages = append(messages, openai.UserMessage(prompt))

		resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    model,
			Messages: messages,
		})
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				lastErr = fmt.Errorf("model %s: status=%d: %s", model, apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
			} else {
				lastErr = fmt.Errorf("model %s: %w", model, err)
			}
			log.Printf("[Narrative] generation failed: %v", lastErr)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("model %s: empty choices", model)
			continue
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			lastErr = fmt.Errorf("model %s: empty completion", model)
			continue
		}
		return text, nil
	}
	if lastErr == nil {
		lastErr = ErrNarrativeUnavailable
	}
	return "", fmt.Errorf("%w: %v", ErrNarrativeUnavailable, lastErr)
}

var (
	playerItemRe = regexp.MustCompile(`\[PLAYER_ITEM:\s*([^\]]+)\]`)
	aiItemRe     = regexp.MustCompile(`\[AI_ITEM:\s*([^\]]+)\]`)
	narrativeRe  = regexp.MustCompile(`(?s)\[NARRATIVE\](.*?)\[/NARRATIVE\]`)
	tagStripRe   = regexp.MustCompile(`\[PLAYER_ITEM:[^\]]+\]|\[AI_ITEM:[^\]]+\]|\[/?NARRATIVE\]`)
)

// ParseBriefing extracts the mission items and story text from a tagged
// completion. Missing tags fall back to stock items and the raw text, so a
// sloppy completion still yields a playable briefing.
func ParseBriefing(text string) Briefing {
	b := Briefing{PlayerItem: "beacon", AIItem: "artifact"}
	if m := playerItemRe.FindStringSubmatch(text); m != nil {
		b.PlayerItem = strings.TrimSpace(m[1])
	}
	if m := aiItemRe.FindStringSubmatch(text); m != nil {
		b.AIItem = strings.TrimSpace(m[1])
	}
	narrative := text
	if m := narrativeRe.FindStringSubmatch(text); m != nil {
		narrative = m[1]
	}
	b.Narrative = strings.TrimSpace(tagStripRe.ReplaceAllString(narrative, ""))
	return b
}
