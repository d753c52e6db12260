// Package events defines the typed event contract shared by transports and
// the assessment session.
//
// Event kinds are grouped by namespace:
//
//   - user_input.*
//   - agent_output.*
//   - turn_state.*
//   - transport.*
//   - session.*
//
// user_input events
//
//   - UserAudioFrame (user_input.audio_frame): captured microphone audio.
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptFinal (user_input.transcript_final): final recognized
//     text for the user's last turn.
//
// agent_output events
//
//   - AgentSpeakingChanged (agent_output.speaking_changed): the remote agent
//     started or stopped speaking.
//   - AgentTranscriptFinal (agent_output.transcript_final): text of what the
//     agent said.
//   - AgentAudioFrame (agent_output.audio_frame): synthesized agent audio.
//
// turn_state events
//
//   - TurnCompleted (turn_state.completed): the agent finished its utterance
//     and control returns to the user. Cancelled is set when the utterance was
//     interrupted.
//
// transport events
//
//   - ConnectivityChanged (transport.connectivity_changed): connection came
//     up or went down.
//   - TransportFailed (transport.failed): network drop, malformed server
//     event or remote error payload.
//
// session events
//
//   - SessionStateChanged (session.state_changed): controller phase change.
//   - QuestionAsked (session.question_asked): a prompt was sent for the
//     question at Index.
//   - AnswerRecorded (session.answer_recorded): a value was written.
//   - AnswerRejected (session.answer_rejected): a transcript could not be
//     used and the question is asked again.
//   - AnswerSkipped (session.answer_skipped): a field was skipped.
//   - SkipConfirmationRequested (session.skip_confirmation_requested): a
//     skip is waiting for ConfirmSkip or CancelSkip.
//   - SessionCompleted (session.completed): finalized answers.
//   - SessionFailed (session.failed): terminal error.
package events
