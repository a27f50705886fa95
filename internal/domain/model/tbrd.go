//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"sort"
	"time"
)

// Section is one generated TBRD section.
type Section struct {
	SectionItemID string `json:"section_item_id"`
	SectionKey    string `json:"section_key"`
	Title         string `json:"title"`
	Guidance      string `json:"guidance,omitempty"`
	Content       string `json:"content"`
	Order         int    `json:"order"`
	Locked        bool   `json:"locked"`
}

// TBRDContent is the generated document of a case.
type TBRDContent struct {
	Sections []Section `json:"sections"`
	FullHTML string    `json:"full_html,omitempty"`
}

// Ordered returns the sections sorted by Order without modifying c.
func (c TBRDContent) Ordered() []Section {
	out := make([]Section, len(c.Sections))
	copy(out, c.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// UpdateSectionRequest replaces the content of one section.
type UpdateSectionRequest struct {
	Content string `json:"content"`
}

// SearchResult is a retrieved chunk of an ingested BRD.
type SearchResult struct {
	ChunkID        string  `json:"chunk_id"`
	SectionKey     string  `json:"section_key"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Sender identifies who wrote a conversation message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// ConversationMessage is one turn of the case conversation with the agent.
type ConversationMessage struct {
	MessageID string    `json:"message_id"`
	CaseID    string    `json:"case_id"`
	Sender    Sender    `json:"sender"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SendMessageRequest posts a user turn.
type SendMessageRequest struct {
	Content string `json:"content"`
}
