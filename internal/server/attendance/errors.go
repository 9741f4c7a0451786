package attendance

import "fmt"

// Class groups pipeline failures by who is at fault, which decides the
// response status.
type Class int

const (
	ClassAuth Class = iota + 1
	ClassValidation
	ClassDependency
)

func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassValidation:
		return "validation"
	case ClassDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// Kind names the stage-specific failure.
type Kind string

const (
	MissingCredential Kind = "MissingCredential"
	InvalidCredential Kind = "InvalidCredential"
	ExpiredCredential Kind = "ExpiredCredential"

	LivenessNotConfirmed  Kind = "LivenessNotConfirmed"
	InvalidSourceImage    Kind = "InvalidSourceImage"
	InvalidReferenceImage Kind = "InvalidReferenceImage"
	FaceNotRecognized     Kind = "FaceNotRecognized"

	LivenessFailed           Kind = "LivenessFailed"
	MatchServiceFailed       Kind = "MatchServiceFailed"
	LedgerWriteFailed        Kind = "LedgerWriteFailed"
	ReferenceImageUnreadable Kind = "ReferenceImageUnreadable"
)

var kindClass = map[Kind]Class{
	MissingCredential:        ClassAuth,
	InvalidCredential:        ClassAuth,
	ExpiredCredential:        ClassAuth,
	LivenessNotConfirmed:     ClassValidation,
	InvalidSourceImage:       ClassValidation,
	InvalidReferenceImage:    ClassValidation,
	FaceNotRecognized:        ClassValidation,
	LivenessFailed:           ClassDependency,
	MatchServiceFailed:       ClassDependency,
	LedgerWriteFailed:        ClassDependency,
	ReferenceImageUnreadable: ClassDependency,
}

// Client-facing messages. Dependency failures share a generic one.
var kindMessage = map[Kind]string{
	MissingCredential:        "Access denied",
	InvalidCredential:        "Invalid token",
	ExpiredCredential:        "Invalid token",
	LivenessNotConfirmed:     "Liveness detection failed",
	InvalidSourceImage:       "Invalid source image",
	InvalidReferenceImage:    "Invalid reference image",
	FaceNotRecognized:        "Face not recognized",
	LivenessFailed:           "Error during liveness detection",
	MatchServiceFailed:       "Error comparing faces",
	LedgerWriteFailed:        "Error logging attendance",
	ReferenceImageUnreadable: "Error reading reference image",
}

const maxDetail = 200

// Error is the single failure a verification request terminates with.
type Error struct {
	Class  Class
	Kind   Kind
	Detail string
	Err    error
}

func newError(kind Kind, err error) *Error {
	e := &Error{Class: kindClass[kind], Kind: kind, Err: err}
	switch {
	case kind == ExpiredCredential:
		e.Detail = "Token expired"
	case err != nil && e.Class != ClassAuth:
		e.Detail = boundDetail(err.Error())
	}
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the short, safe string returned to clients.
func (e *Error) Message() string {
	if m, ok := kindMessage[e.Kind]; ok {
		return m
	}
	return string(e.Kind)
}

func boundDetail(s string) string {
	if len(s) <= maxDetail {
		return s
	}
	return s[:maxDetail]
}
