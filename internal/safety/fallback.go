package safety

import "github.com/support-agent/support-query/internal/response"

const fallbackAnswer = "We're sorry, we can't process this request. Please rephrase or contact a human agent."

// Fallback is the answer returned instead of calling the model for blocked input.
func Fallback() *response.Response {
	return &response.Response{
		Answer:     fallbackAnswer,
		Confidence: 0.0,
		Actions:    []string{"Escalate to human agent", "Log moderation event"},
	}
}
