package events

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
)

func newTestNotifier(t *testing.T) *Notifier {
	return NewNotifier(testr.New(t))
}

func TestPublish_NoSubscribers(t *testing.T) {
	n := newTestNotifier(t)
	assert.False(t, n.Publish(MessageSent{Message: "hi"}))
}

func TestPublish_Order(t *testing.T) {
	n := newTestNotifier(t)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		n.Subscribe(KindMessageSent, func(Event) error {
			order = append(order, i)
			return nil
		})
	}

	assert.True(t, n.Publish(MessageSent{Message: "hi"}))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPublish_OnlyMatchingKind(t *testing.T) {
	n := newTestNotifier(t)

	called := false
	n.Subscribe(KindTaskSwitched, func(Event) error {
		called = true
		return nil
	})

	assert.False(t, n.Publish(SessionSwitched{SessionID: "S1"}))
	assert.False(t, called)
}

func TestPublish_PayloadDelivered(t *testing.T) {
	n := newTestNotifier(t)

	var got SessionSwitched
	On(n, func(e SessionSwitched) { got = e })

	n.Publish(SessionSwitched{PreviousSessionID: "S1", SessionID: "S2"})
	assert.Equal(t, "S1", got.PreviousSessionID)
	assert.Equal(t, "S2", got.SessionID)
}

func TestPublish_FailingHandlerIsolated(t *testing.T) {
	n := newTestNotifier(t)

	var delivered []string
	n.Subscribe(KindMessageReceived, func(Event) error {
		delivered = append(delivered, "first")
		return errors.New("boom")
	})
	n.Subscribe(KindMessageReceived, func(Event) error {
		panic("handler exploded")
	})
	n.Subscribe(KindMessageReceived, func(Event) error {
		delivered = append(delivered, "third")
		return nil
	})

	var ok bool
	require.NotPanics(t, func() { ok = n.Publish(MessageReceived{Message: "x"}) })
	assert.True(t, ok)
	assert.Equal(t, []string{"first", "third"}, delivered)
}

func TestSubscribeOnce(t *testing.T) {
	n := newTestNotifier(t)

	count := 0
	n.SubscribeOnce(KindSkillCalled, func(Event) error {
		count++
		return nil
	})

	assert.True(t, n.Publish(SkillCalled{SkillID: "K1"}))
	assert.False(t, n.Publish(SkillCalled{SkillID: "K1"}))
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, n.Len(KindSkillCalled))
}

func TestSubscribeOnce_ResubscribeFromHandler(t *testing.T) {
	n := newTestNotifier(t)

	var calls []string
	var handler Handler
	handler = func(ev Event) error {
		calls = append(calls, ev.(SkillCalled).SkillID)
		n.SubscribeOnce(KindSkillCalled, handler)
		return nil
	}
	n.SubscribeOnce(KindSkillCalled, handler)

	n.Publish(SkillCalled{SkillID: "K1"})
	assert.Equal(t, []string{"K1"}, calls)

	n.Publish(SkillCalled{SkillID: "K2"})
	assert.Equal(t, []string{"K1", "K2"}, calls)
	assert.Equal(t, 1, n.Len(KindSkillCalled))
}

func TestSubscribeOnce_ReentrantPublish(t *testing.T) {
	n := newTestNotifier(t)

	count := 0
	n.SubscribeOnce(KindMessageSent, func(ev Event) error {
		count++
		n.Publish(ev)
		return nil
	})

	n.Publish(MessageSent{})
	assert.Equal(t, 1, count)
}

func TestPublish_SnapshotIsStable(t *testing.T) {
	n := newTestNotifier(t)

	var calls []string
	var second Subscription
	n.Subscribe(KindTaskSwitched, func(Event) error {
		calls = append(calls, "first")
		n.Unsubscribe(second)
		n.Subscribe(KindTaskSwitched, func(Event) error {
			calls = append(calls, "late")
			return nil
		})
		return nil
	})
	second = n.Subscribe(KindTaskSwitched, func(Event) error {
		calls = append(calls, "second")
		return nil
	})

	n.Publish(TaskSwitched{TaskID: "T1"})
	assert.Equal(t, []string{"first", "second"}, calls)

	calls = nil
	n.Publish(TaskSwitched{TaskID: "T2"})
	assert.Equal(t, []string{"first", "late"}, calls)
}

func TestUnsubscribe(t *testing.T) {
	n := newTestNotifier(t)

	sub := n.Subscribe(KindFunctionCallDeclined, func(Event) error { return nil })
	assert.Equal(t, KindFunctionCallDeclined, sub.Kind())
	assert.True(t, n.Unsubscribe(sub))
	assert.False(t, n.Unsubscribe(sub))
	assert.False(t, n.Publish(FunctionCallDeclined{}))
}

func TestClear(t *testing.T) {
	n := newTestNotifier(t)
	noop := func(Event) error { return nil }

	n.Subscribe(KindMessageSent, noop)
	n.Subscribe(KindMessageReceived, noop)
	n.Subscribe(KindTaskSwitched, noop)

	n.Clear(KindMessageSent)
	assert.Equal(t, 0, n.Len(KindMessageSent))
	assert.Equal(t, 1, n.Len(KindMessageReceived))

	n.Clear()
	assert.Equal(t, 0, n.Len(KindMessageReceived))
	assert.Equal(t, 0, n.Len(KindTaskSwitched))
}

func TestOn_TypedPayload(t *testing.T) {
	n := newTestNotifier(t)

	var history []api.Message
	On(n, func(e ConversationHistoryUpdated) { history = e.History })

	n.Publish(ConversationHistoryUpdated{History: []api.Message{{Role: api.RoleUser}}})
	require.Len(t, history, 1)
	assert.Equal(t, api.RoleUser, history[0].Role)
}

func TestKind_Names(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 12)

	seen := make(map[string]bool)
	for _, k := range kinds {
		name := k.String()
		assert.NotEqual(t, "unknown", name)
		assert.False(t, seen[name], "duplicate kind name %s", name)
		seen[name] = true

		parsed, ok := ParseKind(name)
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}

	assert.Equal(t, "functionCallExecuted", KindFunctionCallExecuted.String())
	assert.Equal(t, "unknown", Kind(99).String())
	_, ok := ParseKind("nope")
	assert.False(t, ok)
}
