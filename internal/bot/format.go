package bot

import (
	"fmt"
	"strings"

	"github.com/superteamvn/stvbot/internal/advisor"
	"github.com/superteamvn/stvbot/internal/models"
)

const welcomeMessage = "👋 Welcome to Superteam Vietnam Bot!\n\n" +
	"I can help you with:\n" +
	"🔍 Finding team members\n" +
	"📚 Answering questions about Superteam\n" +
	"💡 Getting information about our projects\n\n" +
	"Use /help to see available commands!"

const helpMessage = "🤖 Available Commands:\n\n" +
	"/start - Start the bot\n" +
	"/help - Show this help message\n" +
	"/find <skills> - Find team members by skills\n" +
	"Example: /find rust defi\n\n" +
	"For Admins:\n" +
	"/upload - Upload documents to knowledge base\n" +
	"/tweet <text> - Create a new tweet draft\n" +
	"/preview - View current tweet draft\n" +
	"/improve - Get suggestions for current draft\n" +
	"/update <text> - Update draft content\n" +
	"/publish - Post the tweet\n" +
	"/optimize <text> - Optimize content\n" +
	"/abtest <text> - Create A/B test variants\n\n" +
	"❓ Ask me anything about Superteam Vietnam!\n" +
	"Just type your question, and I'll help you find the answer."

// confidenceIndicator maps a confidence score to a traffic-light label.
func confidenceIndicator(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "🟢 High Confidence"
	case confidence >= 0.7:
		return "🟡 Moderate Confidence"
	default:
		return "🔴 Low Confidence"
	}
}

func formatAnswer(ans *models.Answer) string {
	return fmt.Sprintf("%s\n\n%s", ans.Text, confidenceIndicator(ans.Confidence))
}

func formatMatchPage(page *models.MatchPage) string {
	if len(page.Results) == 0 {
		return formatNoMatches(page.AllSkills)
	}

	var b strings.Builder
	if page.Page == 0 {
		b.WriteString("🔍 Found matching members:\n\n")
	} else {
		b.WriteString("📋 Additional matching members:\n\n")
	}
	for i, match := range page.Results {
		m := match.Member
		availability := "✅ Available"
		if !m.Available() {
			availability = "❌ Not Available"
		}
		fmt.Fprintf(&b, "%d. 👤 %s\n", page.StartRank+i, m.Name)
		fmt.Fprintf(&b, "📝 Matching skills: %s\n", strings.Join(match.MatchingSkills, ", "))
		fmt.Fprintf(&b, "🌟 Projects: %s\n", strings.Join(m.Projects, ", "))
		b.WriteString(availability + "\n")
		fmt.Fprintf(&b, "🔗 Telegram: @%s\n", orNA(m.TelegramID))
		fmt.Fprintf(&b, "🐦 Twitter: %s\n\n", orNA(m.TwitterHandle))
	}
	return b.String()
}

func formatNoMatches(allSkills []string) string {
	return "❌ No members found with the specified skills.\n\n" +
		"Available skills in our database:\n" +
		fmt.Sprintf("🔹 %s\n\n", strings.Join(allSkills, ", ")) +
		"Try searching with one of these skills!"
}

func formatDraft(draft *models.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Draft (v%d):\n\n%s\n", draft.Version, draft.Content)
	if len(draft.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, s := range draft.Suggestions {
			fmt.Fprintf(&b, "• %s\n", s)
		}
	}
	if len(draft.Hashtags) > 0 {
		fmt.Fprintf(&b, "\nHashtags: %s\n", strings.Join(draft.Hashtags, " "))
	}
	fmt.Fprintf(&b, "\nEngagement Score: %d/100\n", draft.Metrics.EngagementScore)
	fmt.Fprintf(&b, "Best time to post: %s", orNA(draft.Metrics.BestTime))
	return b.String()
}

func formatOptimization(opt *advisor.Optimization) string {
	var b strings.Builder
	b.WriteString("✨ Content Optimization Results:\n\n")
	fmt.Fprintf(&b, "Original: %s\n\n", opt.Original)
	fmt.Fprintf(&b, "Optimized: %s\n\n", opt.Optimized)
	b.WriteString("Suggestions:\n")
	for _, s := range opt.Suggestions {
		fmt.Fprintf(&b, "• %s\n", s)
	}
	if len(opt.Hashtags) > 0 {
		b.WriteString("\nRecommended Hashtags:\n")
		for _, h := range opt.Hashtags {
			fmt.Fprintf(&b, "• %s\n", h)
		}
	}
	fmt.Fprintf(&b, "\nEngagement Score: %d/100", opt.EngagementScore)
	return b.String()
}

func formatVariants(variants []advisor.Variant) string {
	var b strings.Builder
	b.WriteString("🔄 A/B Test Variants:\n\n")
	for _, v := range variants {
		fmt.Fprintf(&b, "Variant %s:\n%s\nPredicted Engagement: %d/100\n\n", v.Label, v.Content, v.EngagementScore)
	}
	return b.String()
}

func formatPublished(tweet *models.Tweet) string {
	if tweet.Status == models.TweetStatusSimulated {
		return fmt.Sprintf("✅ Tweet published (SIMULATION MODE)\n\n%s", tweet.Content)
	}
	return fmt.Sprintf("✅ Tweet published successfully!\n\n%s\n\nTweet ID: %s", tweet.Content, tweet.ID)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
