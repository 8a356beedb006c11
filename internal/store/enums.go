package store

type RunKind string

const (
	RunKindTranscript RunKind = "transcript" // A single video, target is the video URL.
	RunKindPlaylist   RunKind = "playlist"   // A whole playlist, target is the playlist URL.
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusOK      RunStatus = "ok"
	RunStatusFailed  RunStatus = "failed"
)

type FailureType string

const (
	FailureTypeExtraction FailureType = "extraction" // A playlist video without transcript, data is the video URL.
)
