package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
)

type stubDiscoverer struct {
	mock.Mock
}

func (s *stubDiscoverer) Discover(ctx context.Context) (Printer, error) {
	args := s.Called(ctx)
	return args.Get(0).(Printer), args.Error(1)
}

func TestSettingsDiscovererReturnsStoredAddress(t *testing.T) {
	store := settings.NewStore(settings.Defaults())
	d := NewSettingsDiscoverer(store, 10*time.Millisecond)

	start := time.Now()
	p, err := d.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.150", p.IP)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestSettingsDiscovererReadsAfterDelay(t *testing.T) {
	store := settings.NewStore(settings.Defaults())
	d := NewSettingsDiscoverer(store, 50*time.Millisecond)

	done := make(chan Printer, 1)
	go func() {
		p, _ := d.Discover(context.Background())
		done <- p
	}()

	_, err := store.MergeJSON([]byte(`{"elegoo_ip":"10.0.0.5"}`))
	require.NoError(t, err)

	select {
	case p := <-done:
		assert.Equal(t, "10.0.0.5", p.IP)
	case <-time.After(2 * time.Second):
		t.Fatal("Discover did not return")
	}
}

func TestSettingsDiscovererCancel(t *testing.T) {
	d := NewSettingsDiscoverer(settings.NewStore(settings.Defaults()), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSettingsDiscovererEmptyAddress(t *testing.T) {
	s := settings.Defaults()
	s.ElegooIP = ""
	d := NewSettingsDiscoverer(settings.NewStore(s), time.Millisecond)

	_, err := d.Discover(context.Background())
	assert.True(t, IsNotFound(err))
}

func TestSettingsDiscovererDelayBounds(t *testing.T) {
	store := settings.NewStore(settings.Defaults())

	assert.Equal(t, DefaultDiscoveryDelay, NewSettingsDiscoverer(store, -1).Delay())
	assert.Equal(t, MaxDiscoveryDelay, NewSettingsDiscoverer(store, time.Hour).Delay())
	assert.Equal(t, DefaultDiscoveryDelay, NewSettingsDiscoverer(store, 0).Delay())
	assert.Equal(t, time.Millisecond, NewSettingsDiscoverer(store, time.Millisecond).Delay())
}

func TestFallbackDiscovererUsesPrimary(t *testing.T) {
	primary := &stubDiscoverer{}
	fallback := &stubDiscoverer{}
	primary.On("Discover", mock.Anything).Return(Printer{IP: "10.0.0.9", Name: "mars"}, nil)

	p, err := NewFallbackDiscoverer(primary, fallback).Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.9", p.IP)
	fallback.AssertNotCalled(t, "Discover", mock.Anything)
}

func TestFallbackDiscovererFallsBack(t *testing.T) {
	primary := &stubDiscoverer{}
	fallback := &stubDiscoverer{}
	primary.On("Discover", mock.Anything).Return(Printer{}, ErrNotFound)
	fallback.On("Discover", mock.Anything).Return(Printer{IP: "192.168.1.150"}, nil)

	p, err := NewFallbackDiscoverer(primary, fallback).Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.150", p.IP)
}

func TestFallbackDiscovererBothFail(t *testing.T) {
	primary := &stubDiscoverer{}
	fallback := &stubDiscoverer{}
	boom := errors.New("boom")
	primary.On("Discover", mock.Anything).Return(Printer{}, ErrNotFound)
	fallback.On("Discover", mock.Anything).Return(Printer{}, boom)

	_, err := NewFallbackDiscoverer(primary, fallback).Discover(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, boom)
}

func TestFallbackDiscovererDoesNotRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := DiscovererFunc(func(ctx context.Context) (Printer, error) {
		return Printer{}, ctx.Err()
	})
	fallback := &stubDiscoverer{}

	_, err := NewFallbackDiscoverer(primary, fallback).Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	fallback.AssertNotCalled(t, "Discover", mock.Anything)
}
