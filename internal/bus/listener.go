package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/salescribe/salescribe/internal/conversation"
	"github.com/salescribe/salescribe/internal/fields"
	"github.com/salescribe/salescribe/internal/record"
)

// Listener drives conversation sessions from chat messages on the bus. Each
// user id gets its own sticky session, so a Slack bridge can fan many users
// into one engine.
type Listener struct {
	client   *Client
	sessions *conversation.SessionStore
	ctrl     *conversation.Controller
	logger   *slog.Logger
}

func NewListener(client *Client, sessions *conversation.SessionStore, ctrl *conversation.Controller, logger *slog.Logger) *Listener {
	return &Listener{client: client, sessions: sessions, ctrl: ctrl, logger: logger}
}

// Start subscribes to the inbound chat subject.
func (l *Listener) Start(ctx context.Context) error {
	return l.client.Subscribe(SubjectChatInbound, func(_ string, data []byte) {
		l.handle(ctx, data)
	})
}

func (l *Listener) handle(ctx context.Context, data []byte) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		l.logger.Warn("bad chat message", "error", err)
		return
	}
	if msg.UserID == "" && msg.SessionID == "" {
		l.logger.Warn("chat message without user or session id")
		return
	}

	key := msg.SessionID
	if key == "" {
		key = msg.UserID
	}
	sess := l.sessions.GetOrCreate(key)

	sess.Do(func(st *conversation.State) {
		before := len(st.Messages)
		for _, act := range routeActions(st, msg.Text) {
			if err := l.ctrl.Apply(ctx, st, act); err != nil {
				l.logger.Error("apply chat action", "error", err, "session_id", st.ID)
				return
			}
		}
		reply := ChatReply{
			UserID:    msg.UserID,
			SessionID: st.ID,
			Stage:     string(st.Stage),
		}
		for _, m := range st.Messages[before:] {
			if m.Role == "assistant" {
				reply.Messages = append(reply.Messages, m.Text)
			}
		}
		if err := l.client.Publish(SubjectChatReply, reply); err != nil {
			l.logger.Error("publish chat reply", "error", err)
		}
	})
}

// routeActions maps free text onto the stage machine. Keywords handle the
// confirm/edit/submit transitions that the web UI exposes as buttons; in the
// transcript stage anything long enough to be a transcript is treated as one,
// and in the edit stages text is parsed into a field save so the form can be
// filled from chat.
func routeActions(st *conversation.State, text string) []conversation.Action {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "reset", "start over":
		return []conversation.Action{{Type: conversation.ActionReset}}
	case "confirm", "yes", "looks good":
		if isVerifyStage(st.Stage) {
			return []conversation.Action{{Type: conversation.ActionConfirm}}
		}
	case "edit":
		if isVerifyStage(st.Stage) {
			return []conversation.Action{{Type: conversation.ActionEdit}}
		}
	case "back":
		if st.Stage == conversation.StageFinalReview {
			return []conversation.Action{{Type: conversation.ActionBack}}
		}
	case "submit", "send it":
		if st.Stage == conversation.StageFinalReview {
			return []conversation.Action{{Type: conversation.ActionSubmit}}
		}
	case "chat":
		if st.Stage == conversation.StageTranscriptInput {
			return []conversation.Action{{Type: conversation.ActionStartChat}}
		}
	}

	if st.Stage == conversation.StageTranscriptInput {
		if looksLikeTranscript(text) {
			return []conversation.Action{{Type: conversation.ActionSubmitTranscript, Text: text}}
		}
		// A short first message opens the chat flow and counts as its first
		// turn, so the user's content is not discarded.
		return []conversation.Action{
			{Type: conversation.ActionStartChat},
			{Type: conversation.ActionChatMessage, Text: text},
		}
	}
	if act, ok := editSaveAction(st, text); ok {
		return []conversation.Action{act}
	}
	return []conversation.Action{{Type: conversation.ActionChatMessage, Text: text}}
}

// editSaveAction turns free text in an edit stage into a field save. Keyed
// lines ("currency: USD", "region = EMEA", "close date is Q2 2026") map onto
// the category's fields; a bare value fills the first missing required field,
// matching the order the missing-fields prompt lists them in.
func editSaveAction(st *conversation.State, text string) (conversation.Action, bool) {
	cat := conversation.StageCategory(st.Stage)
	if cat == "" || st.Stage != conversation.EditStage(cat) {
		return conversation.Action{}, false
	}
	vals := parseFieldValues(cat, text)
	if len(vals) == 0 {
		missing := fields.Missing(cat, st.Combined())
		if len(missing) == 0 {
			return conversation.Action{}, false
		}
		vals = map[string]string{missing[0]: strings.TrimSpace(text)}
	}
	return conversation.Action{Type: conversation.ActionSaveFields, Fields: vals}, true
}

func parseFieldValues(cat record.Category, text string) map[string]string {
	var vals map[string]string
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		id := strings.ReplaceAll(strings.ToLower(key), " ", "_")
		for _, f := range fields.All(cat) {
			if f.ID == id {
				if vals == nil {
					vals = make(map[string]string)
				}
				vals[id] = value
				break
			}
		}
	}
	return vals
}

func splitKeyValue(line string) (key, value string, ok bool) {
	for _, sep := range []string{":", "=", " is "} {
		if k, v, found := strings.Cut(line, sep); found {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k != "" && v != "" {
				return k, v, true
			}
		}
	}
	return "", "", false
}

func isVerifyStage(s conversation.Stage) bool {
	switch s {
	case conversation.StageAccountVerify, conversation.StageContactVerify, conversation.StageOpportunityVerify:
		return true
	}
	return false
}

// looksLikeTranscript is the same heuristic chat surfaces use: transcripts
// are long or span multiple speaker lines, greetings are neither.
func looksLikeTranscript(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 400 {
		return true
	}
	return strings.Count(trimmed, "\n") >= 3
}
