// Package prompt builds the prompts sent to the inference models. Every
// function here is pure.
package prompt

import (
	"fmt"

	"github.com/phambaophuc/artwork-critic/internal/models"
)

type template struct {
	system string
	// user is a format string taking the age clause once.
	user string
}

var templates = map[models.AnalysisStyle]template{
	models.StyleHumorous: {
		system: "You are a pretentious art critic who finds profound, overly intellectual meaning in simple children's artwork. You use unnecessarily complex art terminology and interpret heavy themes that children clearly have no knowledge of.",
		user:   "As a humorous exercise, create a highbrow artist statement for this piece of artwork%s. Make it funnier by interpreting heavier themes that a young artist would clearly have no knowledge about. Use fancy art speak when possible. Be creative and absurd while maintaining an academic tone. Try to keep it to two paragraphs.",
	},
	models.StyleSophisticated: {
		system: "You are a world-class art curator known for finding genuine artistic merit and beauty in all forms of creative expression.",
		user:   "Please provide a sophisticated art critique of this artwork%s. Focus on composition, color theory, emotional expression, and artistic techniques. Treat the work with genuine respect while using professional art terminology.",
	},
	models.StyleMuseum: {
		system: "You are a friendly museum docent explaining artwork to visitors in an engaging, accessible way.",
		user:   "Please describe this artwork%s as a museum docent would to visitors. Make it engaging and educational, pointing out interesting visual elements and artistic choices. Keep the tone warm and encouraging.",
	},
	models.StyleAcademic: {
		system: "You are an art historian and academic writing a formal analysis of artwork.",
		user:   "Please provide an academic art analysis of this artwork%s. Discuss visual elements, composition, technique, and possible influences or artistic movements. Use scholarly language and art historical references where appropriate.",
	},
	models.StyleDefault: {
		system: "You are a knowledgeable art analyst.",
		user:   "Please analyze this artwork%s.",
	},
}

// Select returns the prompt pair for style. Unknown styles use the default
// template. age <= 0 means no age is known.
func Select(style models.AnalysisStyle, age int) models.PromptPair {
	tmpl, ok := templates[style]
	if !ok {
		tmpl = templates[models.StyleDefault]
	}

	return models.PromptPair{
		SystemPrompt: tmpl.system,
		UserPrompt:   fmt.Sprintf(tmpl.user, AgeContext(age)),
	}
}

// AgeContext is the clause appended after "this artwork".
func AgeContext(age int) string {
	if age <= 0 {
		return ""
	}
	return fmt.Sprintf(" created by a %d-year-old", age)
}
