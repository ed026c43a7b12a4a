package tryon

import (
	"fmt"
	"strings"
)

// AnalysisInstruction asks a vision model for what phase two must preserve.
const AnalysisInstruction = "Describe this person's physical appearance (body type, skin tone, hair, age), " +
	"their pose, the setting and the lighting in detail. This is for generating a new fashion photo of them."

// FallbackDescription stands in for a failed photo analysis.
func FallbackDescription(subject string) string {
	return fmt.Sprintf("a %s model in a neutral pose, soft studio lighting", subject)
}

// DirectPrompt describes a catalog shot of subject wearing item.
func DirectPrompt(item, subject string) string {
	return fmt.Sprintf(
		"A high-end fashion catalog photo of a %s model wearing %s. "+
			"The %s is fully visible and looks premium. "+
			"Professional studio lighting, clean background, photorealistic.",
		subject, item, item,
	)
}

// GenerationPrompt embeds the analysed description verbatim and pins the item.
func GenerationPrompt(description, item string) string {
	return fmt.Sprintf(
		"A professional hyper-realistic fashion photo of the following person: %s\n\n"+
			"The person must be wearing exactly this item: %s. "+
			"Preserve every characteristic described above (appearance, pose, setting, lighting) and change only the clothing. "+
			"Ensure the %s is fully visible and looks high quality. Fashion catalog style.",
		strings.TrimSpace(description), item, item,
	)
}

// subjectOf normalises the subject descriptor.
func subjectOf(gender string) string {
	switch g := strings.ToLower(strings.TrimSpace(gender)); g {
	case "":
		return "person"
	case "men", "man", "male":
		return "male"
	case "women", "woman", "female":
		return "female"
	default:
		return g
	}
}
