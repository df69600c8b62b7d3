package insights

import "github.com/aandrew-el/habit-tracker-sub000/internal/models"

const promptPreamble = `You are a supportive habit coach. You receive a summary of one person's habit tracking data.
Base every statement on the numbers given. Do not invent habits that are not listed.
Respond with a single JSON object and nothing else.
`

const weeklySummaryPrompt = promptPreamble + `
Write a short review of the past week using this shape:
{
  "overallScore": integer from 0 to 100,
  "headline": one sentence,
  "wins": [short strings],
  "improvements": [short strings],
  "advice": one or two sentences
}`

const correlationsPrompt = promptPreamble + `
Look for relationships between habits and between habits and mood using this shape:
{
  "habitPairs": [{"habitA": name, "habitB": name, "correlation": number from -1 to 1, "insight": string}],
  "moodCorrelations": [{"habit": name, "effect": "positive" | "negative" | "neutral", "insight": string}],
  "trendAnalysis": a few sentences on the overall trend
}`

const recommendationsPrompt = promptPreamble + `
Suggest concrete next steps using this shape:
{
  "optimalTimes": [{"habit": name, "suggestedTime": "HH:MM", "reason": string}],
  "habitStacking": [{"anchor": existing habit, "newHabit": habit to attach, "reason": string}],
  "atRiskHabits": [{"habit": name, "riskLevel": "low" | "medium" | "high", "suggestion": string}]
}`

// SystemPrompt returns the fixed instructions for an insight type.
func SystemPrompt(t models.InsightType) string {
	switch t {
	case models.InsightWeeklySummary:
		return weeklySummaryPrompt
	case models.InsightCorrelations:
		return correlationsPrompt
	case models.InsightRecommendations:
		return recommendationsPrompt
	default:
		return ""
	}
}
