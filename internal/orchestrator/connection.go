package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/gemchat/internal/chat"
	"github.com/ent0n29/gemchat/internal/protocol"
	"github.com/ent0n29/gemchat/internal/reminder"
)

const outboundSendTimeout = 600 * time.Millisecond

// subscribers fan reminder fire events out to live websocket connections.
type subscriberSet struct {
	mu   sync.Mutex
	subs map[string]chan<- any
}

func (s *subscriberSet) add(ch chan<- any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[string]chan<- any)
	}
	id := uuid.NewString()
	s.subs[id] = ch
	return id
}

func (s *subscriberSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func (s *subscriberSet) broadcast(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			// A stalled connection must not hold up the sweep.
		}
	}
}

// BroadcastReminder pushes a reminder_fired event to every live connection.
// Wired as the scheduler's fire hook.
func (o *Orchestrator) BroadcastReminder(r reminder.Reminder) {
	if o.metrics != nil {
		o.metrics.RemindersFired.Inc()
	}
	o.subscribers.broadcast(protocol.ReminderFired{
		Type:       protocol.TypeReminderFired,
		ReminderID: r.ID,
		Task:       r.Task,
		FireAt:     r.FireAt.Format(time.RFC3339),
	})
}

// RunConnection drives one websocket connection: inbound frames become turns
// and lifecycle calls, outbound receives deltas, turn ends and events. It
// returns when ctx is cancelled or inbound closes.
func (o *Orchestrator) RunConnection(ctx context.Context, inbound <-chan any, outbound chan<- any) error {
	subID := o.subscribers.add(outbound)
	defer o.subscribers.remove(subID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			switch m := msg.(type) {
			case protocol.UserMessage:
				o.handleUserMessage(ctx, m, outbound)
			case protocol.ClientControl:
				o.handleControl(m, outbound)
			default:
				o.send(outbound, protocol.ErrorEvent{
					Type:   protocol.TypeErrorEvent,
					Code:   "unsupported_message",
					Detail: "unsupported inbound message",
				})
			}
		}
	}
}

func (o *Orchestrator) handleUserMessage(ctx context.Context, m protocol.UserMessage, outbound chan<- any) {
	sessionID := m.SessionID
	if sessionID == "" {
		sessionID = o.sessions.ActiveID()
	}
	turnID := uuid.NewString()

	res, err := o.RunTurn(ctx, sessionID, turnID, m.Text, func(delta string) error {
		o.send(outbound, protocol.AssistantTextDelta{
			Type:      protocol.TypeAssistantTextDelta,
			SessionID: sessionID,
			TurnID:    turnID,
			TextDelta: delta,
		})
		return nil
	})
	if err != nil {
		code := "turn_failed"
		if errors.Is(err, chat.ErrNotFound) {
			code = "session_not_found"
		}
		o.send(outbound, protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      code,
			Detail:    err.Error(),
		})
		return
	}

	if res.Renamed {
		o.send(outbound, protocol.SessionRenamed{
			Type:      protocol.TypeSessionRenamed,
			SessionID: res.SessionID,
			Name:      res.SessionName,
		})
	}
	if res.Reminder != nil {
		o.send(outbound, protocol.ReminderSet{
			Type:         protocol.TypeReminderSet,
			SessionID:    res.SessionID,
			ReminderID:   res.Reminder.Reminder.ID,
			Task:         res.Reminder.Reminder.Task,
			FireAt:       res.Reminder.Reminder.FireAt.Format(time.RFC3339),
			Local:        res.Reminder.Local,
			Confirmation: res.Confirmation,
		})
	}

	reason := "completed"
	switch {
	case res.RemoteFailed:
		reason = "remote_error"
	case res.Reminder != nil:
		reason = "reminder"
	}
	o.send(outbound, protocol.AssistantTurnEnd{
		Type:      protocol.TypeAssistantTurnEnd,
		SessionID: res.SessionID,
		TurnID:    turnID,
		Reason:    reason,
		FullText:  res.AssistantText,
	})
}

func (o *Orchestrator) handleControl(m protocol.ClientControl, outbound chan<- any) {
	switch m.Action {
	case "new":
		s := o.sessions.Create()
		if o.metrics != nil {
			o.metrics.SessionEvents.WithLabelValues("created").Inc()
			o.metrics.ActiveSessions.Set(float64(o.sessions.Count()))
		}
		o.send(outbound, protocol.SessionRenamed{
			Type:      protocol.TypeSessionRenamed,
			SessionID: s.ID,
			Name:      s.Name,
		})
	case "switch":
		if _, err := o.sessions.Switch(m.SessionID); err != nil {
			o.sendControlError(outbound, m.SessionID, err)
		}
	case "delete":
		if _, err := o.sessions.Delete(m.SessionID); err != nil {
			o.sendControlError(outbound, m.SessionID, err)
			return
		}
		if o.metrics != nil {
			o.metrics.SessionEvents.WithLabelValues("deleted").Inc()
			o.metrics.ActiveSessions.Set(float64(o.sessions.Count()))
		}
	}
}

func (o *Orchestrator) sendControlError(outbound chan<- any, sessionID string, err error) {
	code := "control_failed"
	switch {
	case errors.Is(err, chat.ErrNotFound):
		code = "session_not_found"
	case errors.Is(err, chat.ErrLastSession):
		code = "last_session"
	}
	o.send(outbound, protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      code,
		Detail:    err.Error(),
	})
}

func (o *Orchestrator) send(outbound chan<- any, msg any) {
	timer := time.NewTimer(outboundSendTimeout)
	defer timer.Stop()
	select {
	case outbound <- msg:
	case <-timer.C:
	}
}
