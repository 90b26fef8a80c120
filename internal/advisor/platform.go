package advisor

import "strings"

// Supported platforms.
const (
	PlatformTwitter  = "twitter"
	PlatformTelegram = "telegram"
)

// TwitterMaxChars is the tweet length limit.
const TwitterMaxChars = 280

func platformSuggestions(platform, content string) []string {
	switch platform {
	case PlatformTwitter:
		return twitterSuggestions(content)
	case PlatformTelegram:
		return telegramSuggestions(content)
	default:
		return nil
	}
}

func twitterSuggestions(content string) []string {
	var out []string
	if len(content) > TwitterMaxChars {
		out = append(out,
			"Content exceeds Twitter's 280 character limit",
			"Consider breaking into multiple tweets")
	}
	if strings.Contains(content, "http") {
		out = append(out, "Consider adding preview cards for links")
	}
	return out
}

func telegramSuggestions(content string) []string {
	var out []string
	if len(strings.Split(content, "\n")) < 3 {
		out = append(out, "Consider adding line breaks for better readability")
	}
	if len(content) > 300 && !strings.Contains(content, "http") {
		out = append(out, "Consider adding visual elements for long messages")
	}
	return out
}
