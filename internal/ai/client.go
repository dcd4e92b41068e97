package ai

import (
	"context"
	"fmt"
)

// Generator produces outreach message bodies. Callers treat failures as
// non-fatal and fall back to a static greeting.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GreetingPrompt assembles the personalization prompt from the configured
// lead-in, the posting and the configured bio.
func GreetingPrompt(leadIn, jobName, description, bio string) string {
	return fmt.Sprintf("%s职位名称: %s职位描述: %sbio: %s", leadIn, jobName, description, bio)
}
