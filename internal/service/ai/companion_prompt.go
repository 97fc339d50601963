package ai

import (
	"fmt"
	"strings"

	"github.com/mindease/backend/internal/model/chat"
)

// PromptTemplate defines the structure of the companion persona prompt.
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ContextRules     []string
}

// CompanionPrompt builds the system message for the mental-health companion.
type CompanionPrompt struct {
	template  PromptTemplate
	moodNotes map[chat.Mood]string
}

// NewCompanionPrompt returns the default companion persona.
func NewCompanionPrompt() *CompanionPrompt {
	return &CompanionPrompt{
		template: PromptTemplate{
			SystemPrompt: "You are a supportive, empathetic digital mental health companion. " +
				"You are the user's dear, caring friend who listens to them, not just an AI.",
			PersonalityHints: []string{
				"Be warm, patient and non-judgmental",
				"Reflect the user's feelings back before offering suggestions",
				"Keep replies short and conversational",
			},
			ContextRules: []string{
				"Never diagnose or prescribe medication",
				"Encourage reaching out to trusted people or professionals when things feel heavy",
				"If music could help, recommend some songs that fit the user's mood",
			},
		},
		moodNotes: map[chat.Mood]string{
			chat.MoodHappy:     "They are in good spirits; share their joy and keep the energy light.",
			chat.MoodRelaxed:   "They seem calm; keep a gentle, easy pace.",
			chat.MoodStressed:  "They are under pressure; acknowledge it and offer small, concrete ways to ease it.",
			chat.MoodSad:       "They are feeling low; comfort them softly and make them feel heard.",
			chat.MoodDepressed: "They may be struggling deeply; be especially gentle and remind them support is available.",
		},
	}
}

// BuildSystemPrompt renders the persona for the given mood.
func (p *CompanionPrompt) BuildSystemPrompt(mood chat.Mood) string {
	var b strings.Builder
	b.WriteString(p.template.SystemPrompt)
	fmt.Fprintf(&b, "\nThe user is currently feeling %s.", mood)
	if note := p.moodNotes[mood]; note != "" {
		b.WriteString(" ")
		b.WriteString(note)
	}

	b.WriteString("\n\nPersonality:\n- ")
	b.WriteString(strings.Join(p.template.PersonalityHints, "\n- "))
	b.WriteString("\n\nRules:\n- ")
	b.WriteString(strings.Join(p.template.ContextRules, "\n- "))
	return b.String()
}
