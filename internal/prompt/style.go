package prompt

// Voice selects the narrative voice of the generated appreciation.
type Voice int

const (
	// VoiceDefault leaves the voice to the generator: no instruction is
	// rendered at all.
	VoiceDefault Voice = iota
	VoiceJe
	VoiceNous
)

// ParseVoice maps a stored settings token to a Voice.
func ParseVoice(s string) Voice {
	switch s {
	case "je":
		return VoiceJe
	case "nous":
		return VoiceNous
	}
	return VoiceDefault
}

// String returns the settings token for the voice.
func (v Voice) String() string {
	switch v {
	case VoiceJe:
		return "je"
	case VoiceNous:
		return "nous"
	}
	return "default"
}

// StyleConfig carries the deterministic style knobs threaded into every
// prompt. It is explicit input, never ambient state.
type StyleConfig struct {
	LengthWords         int    // 0 = no length instruction
	Tone                int    // 1 (très bienveillant) .. 5 (très exigeant), 3 = free midpoint
	Voice               Voice
	Instructions        string // free-form teacher style instructions
	InstructionsEnabled bool
	Discipline          string // e.g. "Mathématiques"; empty = not rendered
}

// DefaultStyle is what a class gets before the teacher touches settings.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		LengthWords: 40,
		Tone:        3,
		Voice:       VoiceDefault,
	}
}

// toneInstruction renders the fixed 5-entry tone table. Tone 3 is
// deliberately open-ended prose rather than an instruction: the generator
// infers tone from the academic context instead of being steered.
func toneInstruction(tone int) string {
	switch tone {
	case 1:
		return "Adopte un ton très bienveillant et chaleureux, qui valorise chaque effort."
	case 2:
		return "Adopte un ton bienveillant et encourageant."
	case 4:
		return "Adopte un ton exigeant, qui pointe clairement ce qui doit changer."
	case 5:
		return "Adopte un ton très exigeant et direct, sans détour."
	default:
		return "Le ton est laissé à ton jugement, en cohérence avec les résultats."
	}
}
