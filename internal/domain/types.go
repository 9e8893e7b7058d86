// Package domain defines the conversation model shared by the wire adapters,
// the provider router, and the session controller.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one role-tagged message unit in the model-facing history.
// A turn is immutable once appended to a conversation.
type Turn struct {
	Role  Role     `json:"role"`
	Parts []string `json:"parts"`
}

// Text joins the turn's parts with newlines.
func (t Turn) Text() string {
	return strings.Join(t.Parts, "\n")
}

// Conversation is the full ordered turn history sent to the model on every
// call. It grows append-only; role alternation is intended but not enforced.
type Conversation []Turn

// Append returns a conversation extended with the given turn. The receiver is
// never mutated, so callers holding the shorter slice are unaffected.
func (c Conversation) Append(t Turn) Conversation {
	out := make(Conversation, len(c), len(c)+1)
	copy(out, c)
	return append(out, t)
}

// AppendUser appends a user turn with a single text part.
func (c Conversation) AppendUser(text string) Conversation {
	return c.Append(Turn{Role: RoleUser, Parts: []string{text}})
}

// AppendModel appends a model turn with a single text part.
func (c Conversation) AppendModel(text string) Conversation {
	return c.Append(Turn{Role: RoleModel, Parts: []string{text}})
}

// CaseInfo is the lab-case metadata collected before a session starts.
type CaseInfo struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Count string `json:"count,omitempty"`
}

// NewCaseConversation builds the initial one-turn conversation encoding the
// case metadata. Every session's history starts from this turn.
func NewCaseConversation(info CaseInfo) Conversation {
	text := fmt.Sprintf("Start identification for Prelevement ID: %s, Type: %s", info.ID, info.Type)
	if info.Count != "" {
		text += fmt.Sprintf(", Colony Count: %s", info.Count)
	}
	text += "."
	return Conversation{{Role: RoleUser, Parts: []string{text}}}
}

// IdentificationPossibility is one candidate organism in a final report.
type IdentificationPossibility struct {
	BacteriumName string `json:"bacteriumName"`
	// Possibility is a 0-100 estimate. The list need not sum to 100.
	Possibility float64 `json:"possibility"`
}

// FinalReportData is the identification report payload.
type FinalReportData struct {
	Identifications        []IdentificationPossibility `json:"identifications"`
	PathwaySummary         string                      `json:"pathwaySummary"`
	Confirmation           string                      `json:"confirmation"`
	ClinicalInterpretation string                      `json:"clinicalInterpretation"`
}

// Sensitivity verdicts reported for a single antibiotic.
const (
	SensitivitySensitive    = "Sensitive"
	SensitivityIntermediate = "Intermediate"
	SensitivityResistant    = "Resistant"
)

// SensitivityReportData is the antibiogram interpretation payload for one
// antibiotic. Diameter and MIC are mutually exclusive measurements.
type SensitivityReportData struct {
	AntibioticName    string   `json:"antibioticName"`
	AntibioticFamily  string   `json:"antibioticFamily"`
	Diameter          *float64 `json:"diameter,omitempty"`
	MIC               string   `json:"mic,omitempty"`
	Sensitivity       string   `json:"sensitivity"`
	NaturalResistance string   `json:"naturalResistance"`
	Correlation       string   `json:"correlation"`
	Recommendation    string   `json:"recommendation"`
}

// AntibioticInfo describes one antibiotic in an info report.
type AntibioticInfo struct {
	Name              string `json:"name"`
	Family            string `json:"family"`
	Purpose           string `json:"purpose"`
	NaturalResistance string `json:"naturalResistance"`
}

// AntibioticInfoReportData lists antibiotics relevant to a bacterium.
type AntibioticInfoReportData struct {
	BacteriumName string           `json:"bacteriumName"`
	Antibiotics   []AntibioticInfo `json:"antibiotics"`
}

// StructuredResponse is the normalized result of one model call. The model's
// reply is duck-typed JSON: every field may be absent, and a report flag may
// be set without its payload. Consumers must tolerate both.
type StructuredResponse struct {
	Thought                string                    `json:"thought"`
	ResponseText           string                    `json:"responseText"`
	IsFinalReport          bool                      `json:"isFinalReport"`
	FinalReport            *FinalReportData          `json:"finalReport,omitempty"`
	IsSensitivityReport    bool                      `json:"isSensitivityReport"`
	SensitivityReport      *SensitivityReportData    `json:"sensitivityReport,omitempty"`
	IsAntibioticInfoReport bool                      `json:"isAntibioticInfoReport"`
	AntibioticInfoReport   *AntibioticInfoReportData `json:"antibioticInfoReport,omitempty"`
	QuickReplies           []string                  `json:"quickReplies"`
}

// MessageKind classifies a display message.
type MessageKind string

const (
	MessageUser           MessageKind = "user"
	MessageModel          MessageKind = "model"
	MessageHelp           MessageKind = "help"
	MessageFinalReport    MessageKind = "final-report"
	MessageSensitivity    MessageKind = "sensitivity-report"
	MessageAntibioticInfo MessageKind = "antibiotic-info-report"
	MessageError          MessageKind = "error"
)

// ChatMessage is a display-facing unit shown to the end user. It is a
// projection only and is never sent back to the model. One StructuredResponse
// may expand into several chat messages.
type ChatMessage struct {
	Content   string      `json:"content"`
	Kind      MessageKind `json:"kind"`
	Data      any         `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatSession is one lab case's chat state, keyed by the case id.
type ChatSession struct {
	Info         CaseInfo      `json:"info"`
	Messages     []ChatMessage `json:"messages"`
	Conversation Conversation  `json:"conversationHistory"`
	IsFinished   bool          `json:"isFinished"`
	CreatedAt    time.Time     `json:"createdAt"`
}
