// Package facematch validates image buffers and compares a live face
// against a reference face through an external comparison service.
package facematch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

var (
	ErrInvalidSourceImage    = errors.New("invalid source image")
	ErrInvalidReferenceImage = errors.New("invalid reference image")
	ErrMatchServiceFailed    = errors.New("face comparison service failed")
)

// Comparer is the external comparison capability. An empty, non-nil
// result with a nil error means "no match" and is not a failure.
type Comparer interface {
	CompareFaces(ctx context.Context, source, reference []byte) ([]models.FaceMatch, error)
}

// Matcher wraps a Comparer with buffer validation and a per-call deadline.
type Matcher struct {
	comparer Comparer
	timeout  time.Duration
}

func NewMatcher(c Comparer, timeout time.Duration) *Matcher {
	return &Matcher{comparer: c, timeout: timeout}
}

// DecodeSource turns the request's base64 payload into image bytes. A
// "data:<mime>;base64," prefix is accepted. Undecodable or empty input is
// ErrInvalidSourceImage.
func DecodeSource(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if _, payload, ok := strings.Cut(encoded, ","); ok {
			encoded = payload
		}
	}

	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSourceImage, err)
		}
	}
	if len(b) == 0 {
		return nil, ErrInvalidSourceImage
	}
	return b, nil
}

// ValidateSource reports ErrInvalidSourceImage for an empty buffer.
func (*Matcher) ValidateSource(b []byte) error {
	if len(b) == 0 {
		return ErrInvalidSourceImage
	}
	return nil
}

// ValidateReference reports ErrInvalidReferenceImage for an empty buffer.
func (*Matcher) ValidateReference(b []byte) error {
	if len(b) == 0 {
		return ErrInvalidReferenceImage
	}
	return nil
}

// Compare validates both buffers and asks the comparison service for
// matches. Service faults are wrapped in ErrMatchServiceFailed; an empty
// result is returned as is.
func (m *Matcher) Compare(ctx context.Context, source, reference []byte) ([]models.FaceMatch, error) {
	if err := m.ValidateSource(source); err != nil {
		return nil, err
	}
	if err := m.ValidateReference(reference); err != nil {
		return nil, err
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	matches, err := m.comparer.CompareFaces(ctx, source, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatchServiceFailed, err)
	}
	if matches == nil {
		matches = []models.FaceMatch{}
	}
	return matches, nil
}
