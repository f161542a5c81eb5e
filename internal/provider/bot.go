package provider

import (
	"fmt"
	"strings"
)

// BotID identifies one of the selectable assistants.
type BotID string

const (
	BotEubyte  BotID = "eubyte"
	BotGPT     BotID = "gpt"
	BotGemini  BotID = "gemini"
	BotWeather BotID = "weather"
)

// DefaultBot answers requests that do not name a bot.
const DefaultBot = BotEubyte

// AllBots lists every bot in display order.
var AllBots = []BotID{BotEubyte, BotGPT, BotGemini, BotWeather}

// botAliases maps lowercased selectors, including the names shown by the chat UI.
var botAliases = map[string]BotID{
	"eubyte":      BotEubyte,
	"azure":       BotEubyte,
	"gpt":         BotGPT,
	"gpt-4o":      BotGPT,
	"openai":      BotGPT,
	"chatgpt":     BotGPT,
	"gemini":      BotGemini,
	"google":      BotGemini,
	"weather":     BotWeather,
	"weatherbot":  BotWeather,
	"weather bot": BotWeather,
}

// ParseBot resolves a selector case-insensitively. An empty selector means the
// default bot; anything else outside the known set is ErrUnknownBot.
func ParseBot(selector string) (BotID, error) {
	s := strings.ToLower(strings.TrimSpace(selector))
	if s == "" {
		return DefaultBot, nil
	}
	if id, ok := botAliases[s]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBot, selector)
}

// DisplayName is the name the UI shows for the bot.
func (b BotID) DisplayName() string {
	switch b {
	case BotEubyte:
		return "Eubyte"
	case BotGPT:
		return "GPT"
	case BotGemini:
		return "Gemini"
	case BotWeather:
		return "WeatherBot"
	default:
		return string(b)
	}
}
