package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/gemchat/internal/attach"
	"github.com/ent0n29/gemchat/internal/brain"
	"github.com/ent0n29/gemchat/internal/chat"
	"github.com/ent0n29/gemchat/internal/observability"
	"github.com/ent0n29/gemchat/internal/reminder"
)

// TurnResult reports what one chat turn produced.
type TurnResult struct {
	TurnID        string
	SessionID     string
	SessionName   string
	Renamed       bool
	AssistantText string
	Reminder      *reminder.SetResult
	Confirmation  string
	RemoteFailed  bool
}

// Orchestrator drives a chat turn end to end: user append, reminder
// short-circuit, attachment pickup, model streaming, assistant append.
type Orchestrator struct {
	sessions    *chat.Manager
	adapter     brain.Adapter
	extractor   *reminder.Extractor
	reminders   *reminder.Service
	staging     *attach.Staging
	metrics     *observability.Metrics
	latency     *observability.LatencyWindow
	turnTimeout time.Duration
	now         func() time.Time
	subscribers subscriberSet
}

func New(
	sessions *chat.Manager,
	adapter brain.Adapter,
	extractor *reminder.Extractor,
	reminders *reminder.Service,
	staging *attach.Staging,
	metrics *observability.Metrics,
	latency *observability.LatencyWindow,
	turnTimeout time.Duration,
) *Orchestrator {
	if turnTimeout <= 0 {
		turnTimeout = 90 * time.Second
	}
	return &Orchestrator{
		sessions:    sessions,
		adapter:     adapter,
		extractor:   extractor,
		reminders:   reminders,
		staging:     staging,
		metrics:     metrics,
		latency:     latency,
		turnTimeout: turnTimeout,
		now:         time.Now,
	}
}

// RunTurn executes one turn against the given session (the active session
// when sessionID is empty). A parsed reminder short-circuits the model call;
// a model error becomes transcript content rather than a turn failure. Deltas
// stream through onDelta, which may be nil. An empty turnID gets generated.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, turnID, text string, onDelta brain.DeltaHandler) (TurnResult, error) {
	start := o.now()
	if sessionID == "" {
		sessionID = o.sessions.ActiveID()
	}
	if turnID == "" {
		turnID = uuid.NewString()
	}

	before, err := o.sessions.Get(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	after, err := o.sessions.AppendUser(sessionID, text)
	if err != nil {
		return TurnResult{}, err
	}

	res := TurnResult{
		TurnID:      turnID,
		SessionID:   sessionID,
		SessionName: after.Name,
		Renamed:     len(before.Messages) == 0,
	}

	if r, ok := o.extractor.Extract(text, start); ok {
		o.latency.Observe(observability.StageExtract, o.now().Sub(start))
		set := o.reminders.Set(ctx, r, text)
		if o.metrics != nil {
			target := "backend"
			if set.Local {
				target = "local"
			}
			o.metrics.RemindersSet.WithLabelValues(target).Inc()
		}
		confirmation := o.reminders.ConfirmationMessage(set)
		if _, err := o.sessions.AppendAssistant(sessionID, confirmation); err != nil {
			return TurnResult{}, err
		}
		res.Reminder = &set
		res.Confirmation = confirmation
		res.AssistantText = confirmation
		o.countTurn("reminder", start)
		o.latency.ObserveIndicator("reminder")
		return res, nil
	}

	staged := o.staging.TakeStaged()
	parts := buildParts(text, staged)

	// History seen by the model excludes the message being sent; the turn
	// text travels in parts.
	history, err := o.sessions.History(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	history = history[:len(history)-1]

	turnCtx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	firstDelta := true
	reply, err := o.adapter.StreamMessage(turnCtx, history, parts, func(delta string) error {
		if firstDelta {
			firstDelta = false
			o.latency.Observe(observability.StageFirstDelta, o.now().Sub(start))
		}
		if onDelta != nil {
			return onDelta(delta)
		}
		return nil
	})
	if err != nil {
		// Model failures land in the transcript; the session stays usable.
		log.Printf("orchestrator: model call failed session=%s: %v", sessionID, err)
		errText := fmt.Sprintf("Error: %v", err)
		if _, aerr := o.sessions.AppendAssistant(sessionID, errText); aerr != nil {
			return TurnResult{}, aerr
		}
		res.AssistantText = errText
		res.RemoteFailed = true
		o.countTurn("remote_error", start)
		o.latency.ObserveIndicator("remote_error")
		return res, nil
	}

	if _, err := o.sessions.AppendAssistant(sessionID, reply.Text); err != nil {
		return TurnResult{}, err
	}
	res.AssistantText = reply.Text
	o.countTurn("completed", start)
	return res, nil
}

func (o *Orchestrator) countTurn(outcome string, start time.Time) {
	if o.metrics != nil {
		o.metrics.Turns.WithLabelValues(outcome).Inc()
		o.metrics.ObserveTurnLatency(o.now().Sub(start))
	}
	o.latency.Observe(observability.StageTurnTotal, o.now().Sub(start))
}

// buildParts assembles the outgoing message: the turn text first, decoded
// text attachments folded in as labelled text, binary attachments inline.
func buildParts(text string, staged []attach.Attachment) []brain.Part {
	var b strings.Builder
	b.WriteString(text)
	var binary []brain.Part
	for _, a := range staged {
		switch a.Kind {
		case attach.KindText:
			b.WriteString("\n\nFile: ")
			b.WriteString(a.Name)
			b.WriteString("\n")
			b.WriteString(a.Text)
		default:
			binary = append(binary, brain.DataPart(a.MIMEType, a.Data))
		}
	}
	parts := make([]brain.Part, 0, 1+len(binary))
	parts = append(parts, brain.TextPart(b.String()))
	return append(parts, binary...)
}
