package client

import (
	"context"
	"time"
)

// FaceMatch mirrors one entry of recognitionDetails.
type FaceMatch struct {
	Similarity  float64 `json:"similarity"`
	Confidence  float64 `json:"confidence"`
	BoundingBox struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Left   float64 `json:"left"`
		Top    float64 `json:"top"`
	} `json:"boundingBox"`
}

// AttendanceResult is the server's reply to a successful check-in.
type AttendanceResult struct {
	Message            string      `json:"message"`
	Timestamp          time.Time   `json:"timestamp"`
	RecognitionDetails []FaceMatch `json:"recognitionDetails"`
	Warning            string      `json:"warning,omitempty"`
}

// AttendanceEntry is one ledger record as returned by GET /attendance.
type AttendanceEntry struct {
	ID                 string      `json:"id"`
	Timestamp          time.Time   `json:"timestamp"`
	Username           string      `json:"username"`
	LivenessResult     string      `json:"liveness_result"`
	RecognitionDetails []FaceMatch `json:"recognitionDetails"`
}

type Client interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout()
	LoggedIn() bool
	Ping(ctx context.Context) error
	LogAttendance(ctx context.Context, image []byte) (*AttendanceResult, error)
	History(ctx context.Context, limit int) ([]AttendanceEntry, error)
}
