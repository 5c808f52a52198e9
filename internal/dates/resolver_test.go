package dates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProber struct {
	hasData map[string]bool
	probed  []string
	err     error
}

func (f *fakeProber) ProbeHasData(_ context.Context, _ string, date time.Time) (bool, error) {
	key := date.Format("2006-01-02")
	f.probed = append(f.probed, key)
	if f.err != nil {
		return false, f.err
	}
	return f.hasData[key], nil
}

func newTestResolver(p Prober, lookback int) *Resolver {
	return NewResolver(p, "SPX", lookback, time.UTC, zap.NewNop().Sugar())
}

func TestResolve_MondayMapsToPriorFriday(t *testing.T) {
	prober := &fakeProber{hasData: map[string]bool{"2024-03-08": true}}
	r := newTestResolver(prober, 7)

	// Monday morning.
	now := time.Date(2024, 3, 11, 8, 30, 0, 0, time.UTC)
	res, err := r.Resolve(context.Background(), now, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-11", res.StoredDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-08", res.SourceDate.Format("2006-01-02"))
	assert.Equal(t, []string{"2024-03-08"}, prober.probed)
}

func TestResolve_WeekendStoredDateAdvances(t *testing.T) {
	prober := &fakeProber{hasData: map[string]bool{"2024-03-08": true}}
	r := newTestResolver(prober, 7)

	// Saturday: the stored date rolls forward to Monday, the source date
	// search still starts strictly before it.
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	res, err := r.Resolve(context.Background(), now, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-11", res.StoredDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-08", res.SourceDate.Format("2006-01-02"))
}

func TestResolve_WalksBackPastEmptySessions(t *testing.T) {
	// Thursday has data, Friday does not (late provider publish).
	prober := &fakeProber{hasData: map[string]bool{"2024-03-07": true}}
	r := newTestResolver(prober, 7)

	now := time.Date(2024, 3, 11, 8, 30, 0, 0, time.UTC)
	res, err := r.Resolve(context.Background(), now, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-07", res.SourceDate.Format("2006-01-02"))
	assert.Equal(t, []string{"2024-03-08", "2024-03-07"}, prober.probed)
}

func TestResolve_LookbackExhausted(t *testing.T) {
	prober := &fakeProber{hasData: map[string]bool{}}
	r := newTestResolver(prober, 3)

	now := time.Date(2024, 3, 11, 8, 30, 0, 0, time.UTC)
	_, err := r.Resolve(context.Background(), now, Overrides{})
	require.ErrorIs(t, err, ErrNoSourceDate)
	assert.Len(t, prober.probed, 3)
}

func TestResolve_Overrides(t *testing.T) {
	prober := &fakeProber{}
	r := newTestResolver(prober, 7)

	stored := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	source := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	res, err := r.Resolve(context.Background(), time.Now(), Overrides{
		StoredDate: &stored,
		SourceDate: &source,
	})
	require.NoError(t, err)

	assert.Equal(t, stored, res.StoredDate)
	assert.Equal(t, source, res.SourceDate)
	assert.Empty(t, prober.probed, "explicit source date should skip the probe")
}

func TestResolve_ProbeErrorIsFatal(t *testing.T) {
	prober := &fakeProber{err: errors.New("boom")}
	r := newTestResolver(prober, 7)

	now := time.Date(2024, 3, 11, 8, 30, 0, 0, time.UTC)
	_, err := r.Resolve(context.Background(), now, Overrides{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSourceDate)
}
