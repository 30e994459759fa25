package coordinator

import (
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
)

// ConversationHistory returns a copy of the history
func (c *Coordinator) ConversationHistory() []api.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneHistory(c.history)
}

// ClearConversationHistory empties the history
func (c *Coordinator) ClearConversationHistory() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()

	c.notifier.Publish(events.ConversationHistoryUpdated{History: []api.Message{}})
}

// AddMessageToHistory appends msg, stamping its timestamp when unset
func (c *Coordinator) AddMessageToHistory(msg api.Message) {
	msg = msg.Clone()
	if msg.Meta.Timestamp == "" {
		msg.Meta.Timestamp = c.timestamp()
	}
	c.appendHistory(msg)
	c.notifier.Publish(events.ConversationHistoryUpdated{History: c.ConversationHistory()})
}

func (c *Coordinator) appendHistory(msgs ...api.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, msgs...)
}

func (c *Coordinator) newMessage(role api.Role, parts ...api.Part) api.Message {
	return api.Message{
		Role:  role,
		Parts: parts,
		Meta:  api.MessageMeta{Timestamp: c.timestamp()},
	}
}

func (c *Coordinator) timestamp() string {
	return c.now().Format(TimestampFormat)
}

// markLatest sets the status of the most recent message whose function call
// is named name and currently has status from.
func (c *Coordinator) markLatest(name string, from, to api.FunctionCallStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.history) - 1; i >= 0; i-- {
		msg := &c.history[i]
		if msg.Meta.FunctionCallStatus != from {
			continue
		}
		if fc := msg.FunctionCall(); fc != nil && fc.Name == name {
			msg.Meta.FunctionCallStatus = to
			return true
		}
	}
	return false
}

// markAll sets the status of every message carrying a function call named name
func (c *Coordinator) markAll(name string, to api.FunctionCallStatus) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for i := range c.history {
		for _, p := range c.history[i].Parts {
			if p.FunctionCall != nil && p.FunctionCall.Name == name {
				c.history[i].Meta.FunctionCallStatus = to
				n++
				break
			}
		}
	}
	return n
}

func cloneHistory(h []api.Message) []api.Message {
	out := make([]api.Message, len(h))
	for i, m := range h {
		out[i] = m.Clone()
	}
	return out
}
