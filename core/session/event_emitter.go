package session

import "github.com/koscakluka/ema-heartcheck/core/events"

type eventEmitter func(events.Event)

func newCallbackEventEmitter(opts ControllerOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SessionStateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(Phase(typedEvent.From), Phase(typedEvent.To))
			}
		case events.QuestionAsked:
			if opts.onQuestion != nil {
				opts.onQuestion(typedEvent.Index, typedEvent.Prompt)
			}
		case events.SessionCompleted:
			if opts.onCompleted != nil {
				opts.onCompleted(typedEvent.Answers)
			}
		case events.SessionFailed:
			if opts.onError != nil {
				opts.onError(typedEvent.Err)
			}
		}
	}
}

// runCallbacks calls emit for every event until the stream is closed.
func runCallbacks(stream <-chan events.Event, emit eventEmitter) {
	for event := range stream {
		emit(event)
	}
}
