package service

import (
	"fmt"
	"strings"
	"time"

	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
)

// History windows per mode.
const (
	quickHistoryWindow = 10
	deepHistoryWindow  = 20
)

func historyWindow(mode model.Mode) int {
	if mode == model.ModeQuick {
		return quickHistoryWindow
	}
	return deepHistoryWindow
}

const quickInstruction = `You are AskFlow, a fast and friendly assistant.
Answer directly and concisely. Prefer short paragraphs or a compact list. Skip preambles and do not restate the question.
When web search results are available, rely on them for anything time-sensitive and cite sources inline as [title](url).
If you generated an image, the user already sees it: describe it in one sentence and do not include a link.`

const thinkInstruction = `You are AskFlow in Think mode, a careful assistant that reasons before answering.
Work through the problem step by step, weigh alternatives and state your assumptions. Then give a clear conclusion.
Use web search when facts may have changed recently and cite the sources you used as [title](url).
Structure longer answers with headings. Be thorough but avoid filler.`

const researchInstruction = `You are AskFlow in Research mode, an analyst producing well-sourced reports.
Search the web before answering unless the question is purely conceptual. Cross-check claims across several sources.
Write a structured report: a short summary, detailed findings with headings, and a "Sources" section listing every [title](url) you relied on.
Point out conflicting information and gaps in the available evidence. Never invent sources.`

func modeInstruction(mode model.Mode, now time.Time) string {
	var base string
	switch mode {
	case model.ModeThink:
		base = thinkInstruction
	case model.ModeResearch:
		base = researchInstruction
	default:
		base = quickInstruction
	}
	return fmt.Sprintf("%s\n\nCurrent date: %s.", base, now.Format("Monday, January 2, 2006"))
}

const (
	documentBegin = "----- BEGIN DOCUMENT: %s -----"
	documentEnd   = "----- END DOCUMENT -----"
)

// userTurnText is the text sent to the model for the current turn. It differs
// from the persisted prompt when a document is attached.
func userTurnText(req *model.ExchangeRequest) string {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Document == nil {
		if prompt == "" && req.Image != nil {
			return "Describe this image."
		}
		return prompt
	}

	if prompt == "" {
		prompt = "Please review the attached document."
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf(documentBegin, req.Document.Name))
	b.WriteString("\n")
	b.WriteString(req.Document.Text)
	b.WriteString("\n")
	if req.Document.Truncated {
		b.WriteString("[The document was truncated.]\n")
	}
	b.WriteString(documentEnd)
	return b.String()
}

// buildMessages assembles the context for the primary pass: optional space
// instruction, mode instruction, the history window and the current turn.
func buildMessages(req *model.ExchangeRequest, space *model.Space, history []model.Message, imageURL string, now time.Time) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+3)
	if space != nil && strings.TrimSpace(space.Instruction) != "" {
		msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: space.Instruction})
	}
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: modeInstruction(req.Mode, now)})

	for _, m := range history {
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	msgs = append(msgs, llm.Message{
		Role:     model.RoleUser,
		Content:  userTurnText(req),
		ImageURL: imageURL,
	})
	return msgs
}
