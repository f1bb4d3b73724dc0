package domain

// FeatureID identifies one micro-tool in the catalog.
type FeatureID string

const (
	FeatureChat       FeatureID = "chat"
	FeatureImage      FeatureID = "image"
	FeatureSpeech     FeatureID = "speech"
	FeatureTranscribe FeatureID = "transcribe"
	FeatureAnalyze    FeatureID = "analyze"
	FeatureReview     FeatureID = "review"
	FeatureCompose    FeatureID = "compose"
	FeaturePackage    FeatureID = "package"
)

// Feature is one catalog entry. Premium features are gated behind the
// session unlock flag.
type Feature struct {
	ID          FeatureID
	Title       string
	Description string
	Premium     bool
}

// Catalog returns the feature catalog in display order.
func Catalog() []Feature {
	return []Feature{
		{ID: FeatureChat, Title: "Chat", Description: "Streaming conversation with image attachments"},
		{ID: FeatureImage, Title: "Image Studio", Description: "Generate images from a prompt", Premium: true},
		{ID: FeatureSpeech, Title: "Text to Speech", Description: "Synthesize speech to an audio file", Premium: true},
		{ID: FeatureTranscribe, Title: "Transcribe", Description: "Turn an audio recording into text"},
		{ID: FeatureAnalyze, Title: "Email Analyzer", Description: "Structured analysis of an email"},
		{ID: FeatureReview, Title: "Code Review", Description: "Review a source file"},
		{ID: FeatureCompose, Title: "Mail Composer", Description: "Draft an email from bullet points"},
		{ID: FeaturePackage, Title: "APK Wizard", Description: "Simulated app packaging walkthrough", Premium: true},
	}
}

// FeatureByID looks up a catalog entry. The second result is false for
// unknown ids.
func FeatureByID(id FeatureID) (Feature, bool) {
	for _, f := range Catalog() {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}
