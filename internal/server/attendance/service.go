// Package attendance runs the verification pipeline: authenticate, check
// liveness, validate images, compare faces, append to the ledger, respond.
// Every stage is terminal on failure and no stage is retried.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/dmitrijs2005/attendkeeper/internal/logging"
	"github.com/dmitrijs2005/attendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/attendkeeper/internal/server/facematch"
	"github.com/dmitrijs2005/attendkeeper/internal/server/liveness"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/ledger"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// LedgerWarning is attached to a successful result whose ledger append failed.
const LedgerWarning = "attendance log could not be persisted"

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// FaceMatcher validates buffers and compares faces.
type FaceMatcher interface {
	ValidateSource(b []byte) error
	ValidateReference(b []byte) error
	Compare(ctx context.Context, source, reference []byte) ([]models.FaceMatch, error)
}

// Result is the success payload.
type Result struct {
	Message            string             `json:"message"`
	Timestamp          time.Time          `json:"timestamp"`
	RecognitionDetails []models.FaceMatch `json:"recognitionDetails"`
	Warning            string             `json:"warning,omitempty"`
}

// Service is the verification orchestrator.
type Service struct {
	tokens     TokenVerifier
	probe      liveness.Probe
	matcher    FaceMatcher
	references facematch.ReferenceSource
	ledger     ledger.Ledger
	limiter    *semaphore.Weighted
	logger     logging.Logger
	now        func() time.Time
	newID      func() string
}

// NewService builds the orchestrator. maxConcurrent bounds the number of
// liveness runs and face comparisons in flight across all requests.
func NewService(
	tokens TokenVerifier,
	probe liveness.Probe,
	matcher FaceMatcher,
	references facematch.ReferenceSource,
	l ledger.Ledger,
	maxConcurrent int64,
	logger logging.Logger,
) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		tokens:     tokens,
		probe:      probe,
		matcher:    matcher,
		references: references,
		ledger:     l,
		limiter:    semaphore.NewWeighted(maxConcurrent),
		logger:     logger.With("module", "attendance"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Authenticate is the auth gate. Nothing downstream runs unless it succeeds.
func (s *Service) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, common.ErrMissingToken):
		return nil, newError(MissingCredential, err)
	case errors.Is(err, common.ErrTokenExpired):
		return nil, newError(ExpiredCredential, err)
	default:
		return nil, newError(InvalidCredential, err)
	}
}

// LogAttendance runs the whole pipeline for a bearer token and an encoded
// source image.
func (s *Service) LogAttendance(ctx context.Context, token, encodedImage string) (*Result, error) {
	claims, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, claims.Username, encodedImage)
}

// Verify runs every stage after authentication for username.
func (s *Service) Verify(ctx context.Context, username, encodedImage string) (*Result, error) {
	log := s.logger.With("username", username)

	live, err := s.checkLiveness(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, newError(LivenessFailed, err))
	}
	if !live.Confirmed {
		return nil, s.fail(ctx, log, newError(LivenessNotConfirmed, errors.New(live.RawOutput)))
	}

	reference, err := s.references.Load(ctx, username)
	if err != nil {
		return nil, s.fail(ctx, log, newError(ReferenceImageUnreadable, err))
	}

	source, err := facematch.DecodeSource(encodedImage)
	if err != nil {
		return nil, s.fail(ctx, log, newError(InvalidSourceImage, err))
	}
	if err := s.matcher.ValidateSource(source); err != nil {
		return nil, s.fail(ctx, log, newError(InvalidSourceImage, err))
	}
	if err := s.matcher.ValidateReference(reference); err != nil {
		return nil, s.fail(ctx, log, newError(InvalidReferenceImage, err))
	}

	matches, err := s.compare(ctx, source, reference)
	if err != nil {
		if errors.Is(err, facematch.ErrInvalidSourceImage) {
			return nil, s.fail(ctx, log, newError(InvalidSourceImage, err))
		}
		if errors.Is(err, facematch.ErrInvalidReferenceImage) {
			return nil, s.fail(ctx, log, newError(InvalidReferenceImage, err))
		}
		return nil, s.fail(ctx, log, newError(MatchServiceFailed, err))
	}
	if len(matches) == 0 {
		return nil, s.fail(ctx, log, newError(FaceNotRecognized, nil))
	}

	entry := models.AttendanceLogEntry{
		ID:                 s.newID(),
		Timestamp:          s.now().UTC(),
		Username:           username,
		LivenessResult:     live.RawOutput,
		RecognitionDetails: matches,
	}

	res := &Result{
		Message:            fmt.Sprintf("Attendance logged successfully for %s", username),
		Timestamp:          entry.Timestamp,
		RecognitionDetails: matches,
	}

	if err := s.ledger.Append(ctx, entry); err != nil {
		e := newError(LedgerWriteFailed, err)
		log.Error(ctx, "attendance matched but not persisted", "kind", e.Kind, "err", err, "entry_id", entry.ID)
		res.Warning = LedgerWarning
		return res, nil
	}

	log.Info(ctx, "attendance logged", "entry_id", entry.ID, "matches", len(matches))
	return res, nil
}

// History returns the caller's ledger entries, oldest first.
func (s *Service) History(ctx context.Context, username string, limit int) ([]models.AttendanceLogEntry, error) {
	entries, err := s.ledger.List(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return entries, nil
}

func (s *Service) checkLiveness(ctx context.Context) (models.LivenessResult, error) {
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return models.LivenessResult{}, err
	}
	defer s.limiter.Release(1)
	return s.probe.Check(ctx)
}

func (s *Service) compare(ctx context.Context, source, reference []byte) ([]models.FaceMatch, error) {
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.limiter.Release(1)
	return s.matcher.Compare(ctx, source, reference)
}

func (s *Service) fail(ctx context.Context, log logging.Logger, e *Error) *Error {
	if e.Class == ClassDependency {
		log.Error(ctx, "verification failed", "kind", e.Kind, "err", e.Err)
	} else {
		log.Info(ctx, "verification rejected", "kind", e.Kind)
	}
	return e
}
