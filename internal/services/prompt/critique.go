package prompt

import (
	"fmt"

	"github.com/phambaophuc/artwork-critic/internal/models"
)

const (
	curatorSystemPrompt = "You are a world-class art curator known for your ability to find profound meaning and beauty in all forms of artistic expression, especially children's art."

	critiqueUserPrompt = `You are a sophisticated art curator at the Museum of Modern Art (MoMA). You have been asked to write a thoughtful, encouraging art critique for a piece of children's artwork%s.

Artwork description: %s

Please write a museum-quality critique that:
1. Treats the work with genuine respect and sophistication
2. Identifies interesting artistic elements (color choices, composition, emotional expression)
3. References art historical movements or techniques when appropriate
4. Celebrates the unique perspective and creativity
5. Uses encouraging but genuine museum-level language
6. Keeps the tone warm but professional (like a docent speaking to visitors)

Write 2-3 paragraphs that would make any child and parent proud to see their art treated with such respect.`
)

// LicenseAgreement is the message the vision model expects before first use.
const LicenseAgreement = "agree"

// Critique builds the curator prompt for a text description of an artwork.
func Critique(description string, age int) models.PromptPair {
	ageContext := ""
	if age > 0 {
		ageContext = fmt.Sprintf(" created by a %d-year-old artist", age)
	}

	return models.PromptPair{
		SystemPrompt: curatorSystemPrompt,
		UserPrompt:   fmt.Sprintf(critiqueUserPrompt, ageContext, description),
	}
}
