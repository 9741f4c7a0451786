package attendance

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/dmitrijs2005/attendkeeper/internal/logging"
	"github.com/dmitrijs2005/attendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/attendkeeper/internal/server/facematch"
	"github.com/dmitrijs2005/attendkeeper/internal/server/liveness"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct{ err error }

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Claims{Username: token}, nil
}

type fakeProbe struct {
	res   models.LivenessResult
	err   error
	calls int32
}

func (f *fakeProbe) Check(context.Context) (models.LivenessResult, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.res, f.err
}

type fakeComparer struct {
	matches []models.FaceMatch
	err     error
	calls   int32
}

func (f *fakeComparer) CompareFaces(context.Context, []byte, []byte) ([]models.FaceMatch, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.matches, f.err
}

type fakeReference struct {
	b     []byte
	err   error
	calls int32
}

func (f *fakeReference) Load(context.Context, string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.b, f.err
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []models.AttendanceLogEntry
	err     error
}

func (f *fakeLedger) Append(_ context.Context, e models.AttendanceLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedger) List(_ context.Context, username string, _ int) ([]models.AttendanceLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AttendanceLogEntry
	for _, e := range f.entries {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	verifier  fakeVerifier
	probe     *fakeProbe
	comparer  *fakeComparer
	reference *fakeReference
	ledger    *fakeLedger
}

func newFixture() *fixture {
	return &fixture{
		probe:     &fakeProbe{res: models.LivenessResult{RawOutput: "frames ok\n" + liveness.ConfirmationMarker, Confirmed: true}},
		comparer:  &fakeComparer{matches: []models.FaceMatch{{Similarity: 99.9, Confidence: 99.7}}},
		reference: &fakeReference{b: []byte("reference-jpeg")},
		ledger:    &fakeLedger{},
	}
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func (f *fixture) service() *Service {
	s := NewService(f.verifier, f.probe, facematch.NewMatcher(f.comparer, time.Second), f.reference, f.ledger, 2, logging.Nop{})
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "entry-1" }
	return s
}

var sourceImage = base64.StdEncoding.EncodeToString([]byte("live-jpeg"))

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *attendance.Error, got %T (%v)", err, err)
	}
	assert.Equal(t, kind, e.Kind)
	return e
}

func TestLogAttendance_Success(t *testing.T) {
	f := newFixture()

	res, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	require.NoError(t, err)

	assert.Equal(t, "Attendance logged successfully for alice", res.Message)
	assert.Equal(t, fixedNow, res.Timestamp)
	assert.Len(t, res.RecognitionDetails, 1)
	assert.Empty(t, res.Warning)

	require.Len(t, f.ledger.entries, 1)
	got := f.ledger.entries[0]
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "entry-1", got.ID)
	assert.Equal(t, f.comparer.matches, got.RecognitionDetails)
	assert.Contains(t, got.LivenessResult, liveness.ConfirmationMarker)
}

func TestLogAttendance_AuthGateStopsEverything(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"missing", common.ErrMissingToken, MissingCredential},
		{"invalid", common.ErrInvalidToken, InvalidCredential},
		{"expired", common.ErrTokenExpired, ExpiredCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.verifier = fakeVerifier{err: tt.err}

			_, err := f.service().LogAttendance(context.Background(), "", sourceImage)
			e := requireKind(t, err, tt.kind)
			assert.Equal(t, ClassAuth, e.Class)

			assert.Zero(t, f.probe.calls)
			assert.Zero(t, f.reference.calls)
			assert.Zero(t, f.comparer.calls)
			assert.Empty(t, f.ledger.entries)
		})
	}
}

func TestLogAttendance_LivenessNotConfirmed(t *testing.T) {
	f := newFixture()
	f.probe.res = models.LivenessResult{RawOutput: "No face detected"}

	_, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	e := requireKind(t, err, LivenessNotConfirmed)
	assert.Equal(t, ClassValidation, e.Class)

	assert.Zero(t, f.reference.calls)
	assert.Zero(t, f.comparer.calls)
	assert.Empty(t, f.ledger.entries)
}

func TestLogAttendance_LivenessFailed(t *testing.T) {
	f := newFixture()
	f.probe.err = errors.New("exit status 1")

	_, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	e := requireKind(t, err, LivenessFailed)
	assert.Equal(t, ClassDependency, e.Class)
	assert.Contains(t, e.Detail, "exit status 1")
	assert.Zero(t, f.comparer.calls)
}

func TestLogAttendance_InvalidSourceImage(t *testing.T) {
	for _, img := range []string{"", "data:image/jpeg;base64,", "%%%"} {
		f := newFixture()

		_, err := f.service().LogAttendance(context.Background(), "alice", img)
		requireKind(t, err, InvalidSourceImage)
		assert.Zero(t, f.comparer.calls, "image %q", img)
		assert.Empty(t, f.ledger.entries)
	}
}

func TestLogAttendance_InvalidReferenceImage(t *testing.T) {
	f := newFixture()
	f.reference.b = nil

	_, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	requireKind(t, err, InvalidReferenceImage)
	assert.Zero(t, f.comparer.calls)
}

func TestLogAttendance_ReferenceUnreadable(t *testing.T) {
	f := newFixture()
	f.reference.err = facematch.ErrReferenceUnreadable

	_, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	e := requireKind(t, err, ReferenceImageUnreadable)
	assert.Equal(t, ClassDependency, e.Class)
	assert.Zero(t, f.comparer.calls)
}

func TestLogAttendance_NoMatch(t *testing.T) {
	f := newFixture()
	f.comparer.matches = []models.FaceMatch{}

	_, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	e := requireKind(t, err, FaceNotRecognized)
	assert.Equal(t, ClassValidation, e.Class)
	assert.Equal(t, "Face not recognized", e.Message())
	assert.Empty(t, f.ledger.entries)
}

func TestLogAttendance_MatchServiceFailed(t *testing.T) {
	f := newFixture()
	f.comparer.err = errors.New("connection refused")

	_, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	e := requireKind(t, err, MatchServiceFailed)
	assert.Equal(t, ClassDependency, e.Class)
	assert.ErrorIs(t, err, facematch.ErrMatchServiceFailed)
	assert.Empty(t, f.ledger.entries)
}

func TestLogAttendance_LedgerFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.ledger.err = errors.New("disk full")

	res, err := f.service().LogAttendance(context.Background(), "alice", sourceImage)
	require.NoError(t, err)
	assert.Equal(t, LedgerWarning, res.Warning)
	assert.Len(t, res.RecognitionDetails, 1)
}

func TestLogAttendance_ConcurrentAppends(t *testing.T) {
	f := newFixture()
	s := f.service()
	var n int32
	s.newID = func() string { return string(rune('a' + atomic.AddInt32(&n, 1))) }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.LogAttendance(context.Background(), "alice", sourceImage)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.ledger.entries, 8)
	assert.Equal(t, int32(8), f.probe.calls)
}

func TestLogAttendance_LimiterRespectsCancellation(t *testing.T) {
	f := newFixture()
	s := f.service()
	require.True(t, s.limiter.TryAcquire(2))
	defer s.limiter.Release(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LogAttendance(ctx, "alice", sourceImage)
	requireKind(t, err, LivenessFailed)
	assert.Zero(t, f.probe.calls)
}

func TestHistory(t *testing.T) {
	f := newFixture()
	s := f.service()

	_, err := s.LogAttendance(context.Background(), "alice", sourceImage)
	require.NoError(t, err)
	_, err = s.LogAttendance(context.Background(), "bob", sourceImage)
	require.NoError(t, err)

	got, err := s.History(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestError_DetailIsBounded(t *testing.T) {
	e := newError(MatchServiceFailed, errors.New(strings.Repeat("x", 1000)))
	assert.Len(t, e.Detail, maxDetail)
	assert.Equal(t, "Error comparing faces", e.Message())

	e = newError(InvalidCredential, errors.New("signature is invalid"))
	assert.Empty(t, e.Detail)
}
