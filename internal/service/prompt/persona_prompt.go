package prompt

import (
	"fmt"
	"strings"

	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
)

// BuildSystemPrompt renders the static identity, knowledge and policy block for a persona.
func BuildSystemPrompt(p persona.Persona) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s", p.Name)
	if p.Role != "" {
		fmt.Fprintf(&b, ", %s", p.Role)
	}
	b.WriteString(".\n")

	writeSection(&b, "LANGUAGE INSTRUCTION", []string{
		"If the user writes in Hindi (Devanagari) or Hinglish: respond in Hindi (Devanagari script) only.",
		"If the user writes in English: respond in English only.",
		"For any other language: respond in that same language.",
	})

	about := make([]string, 0, 2)
	if p.Company != "" {
		line := "This is the official website for " + p.Company
		if p.Description != "" {
			line += ", " + p.Description
		}
		about = append(about, line+".")
	}
	if p.Location != "" {
		about = append(about, "Based in "+p.Location+".")
	}
	writeSection(&b, "ABOUT "+strings.ToUpper(companyOrName(p)), about)

	products := make([]string, 0, len(p.Products)+1)
	for _, item := range p.Products {
		products = append(products, fmt.Sprintf("%s: %s", item.Name, item.Summary))
	}
	if p.ProductNote != "" {
		products = append(products, p.ProductNote)
	}
	writeSection(&b, "PRODUCTS & SERVICES", products)

	contacts := make([]string, 0, len(p.Contacts))
	for _, c := range p.Contacts {
		contacts = append(contacts, fmt.Sprintf("%s: %s", c.Label, c.Value))
	}
	writeSection(&b, "CONTACT INFORMATION", contacts)

	navigation := make([]string, 0, 3)
	if len(p.Sections) > 0 {
		navigation = append(navigation, "Key sections: "+strings.Join(p.Sections, ", "))
	}
	if len(p.Social) > 0 {
		navigation = append(navigation, "Social media: "+strings.Join(p.Social, ", "))
	}
	if len(p.UnderConstruction) > 0 {
		navigation = append(navigation, fmt.Sprintf(
			"Some pages (like %s) may be under construction. Inform users politely if they ask about these.",
			strings.Join(p.UnderConstruction, " and "),
		))
	}
	writeSection(&b, "NAVIGATION & WEBSITE SECTIONS", navigation)

	writeSection(&b, "BRAND TONE & STYLE", p.ToneRules)

	guidelines := make([]string, 0, len(p.EmotionGuidelines))
	for _, g := range p.EmotionGuidelines {
		guidelines = append(guidelines, fmt.Sprintf("If user seems %s: %s", g.Emotion, g.Guidance))
	}
	writeSection(&b, "EMOTIONAL RESPONSE GUIDELINES", guidelines)

	if p.Closing != "" {
		b.WriteString("\n")
		b.WriteString(p.Closing)
		b.WriteString("\n")
	}

	low, high := p.ReplyWordRange[0], p.ReplyWordRange[1]
	if low <= 0 || high < low {
		low, high = 150, 200
	}
	fmt.Fprintf(&b, "\nIMPORTANT: All your responses must be concise and brief (within %d-%d words). ", low, high)
	b.WriteString("Only give detailed answers when asked. ")
	b.WriteString("Do not use markdown or asterisks for bullet points; use plain text only.")

	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString(":\n")
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func companyOrName(p persona.Persona) string {
	if p.Company != "" {
		return p.Company
	}
	return p.Name
}
