package model

// Processing presets
type Preset string

const (
	PresetSpeechEnhancement Preset = "speech_enhancement"
	PresetSpeakerSeparation Preset = "speaker_separation"
	PresetMusicSeparation   Preset = "music_separation"
	PresetNoiseReduction    Preset = "noise_reduction"
)

var ValidPresets = []Preset{
	PresetSpeechEnhancement, PresetSpeakerSeparation,
	PresetMusicSeparation, PresetNoiseReduction,
}

// Job status
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusUploading  JobStatus = "uploading"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further automatic transitions occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
