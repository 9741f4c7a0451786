// Package models holds the data types shared by the server's stores,
// services and HTTP layer.
package models

import "time"

// BoundingBox locates a face as ratios of the overall image size.
type BoundingBox struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

// FaceMatch is one face in the reference image that the comparison service
// matched against the source face.
type FaceMatch struct {
	Similarity  float64     `json:"similarity"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// LivenessResult is the interpreted output of one liveness run.
type LivenessResult struct {
	RawOutput string
	Confirmed bool
}

// AttendanceLogEntry is one immutable ledger record.
type AttendanceLogEntry struct {
	ID                 string      `json:"id"`
	Timestamp          time.Time   `json:"timestamp"`
	Username           string      `json:"username"`
	LivenessResult     string      `json:"liveness_result"`
	RecognitionDetails []FaceMatch `json:"recognitionDetails"`
}
