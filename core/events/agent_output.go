package events

const (
	KindAgentSpeakingChanged Kind = "agent_output.speaking_changed"
	KindAgentTranscriptFinal Kind = "agent_output.transcript_final"
	KindAgentAudioFrame      Kind = "agent_output.audio_frame"
)

type AgentSpeakingChanged struct {
	Base
	Speaking bool
}

func NewAgentSpeakingChanged(speaking bool) AgentSpeakingChanged {
	return AgentSpeakingChanged{Base: NewBase(KindAgentSpeakingChanged), Speaking: speaking}
}

// AgentTranscriptFinal carries the text of the agent's last utterance.
type AgentTranscriptFinal struct {
	Base
	Transcript string
}

func NewAgentTranscriptFinal(transcript string) AgentTranscriptFinal {
	return AgentTranscriptFinal{Base: NewBase(KindAgentTranscriptFinal), Transcript: transcript}
}

// AgentAudioFrame carries synthesized agent audio, pcm16 at the transport's
// output sample rate.
type AgentAudioFrame struct {
	Base
	Audio []byte
}

func NewAgentAudioFrame(audio []byte) AgentAudioFrame {
	return AgentAudioFrame{Base: NewBase(KindAgentAudioFrame), Audio: audio}
}
