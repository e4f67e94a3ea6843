package domain

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	place string
	err   error
	calls int
}

func (s *stubResolver) ResolvePlace(_ context.Context, _, _ float64) (string, error) {
	s.calls++
	return s.place, s.err
}

func TestEnrichWithPlaceNames(t *testing.T) {
	pairs := []Located{
		{Point: GeoPoint{Lon: 15.6, Lat: 78.2}},
		{Point: GeoPoint{Lon: 16.0, Lat: 78.3}},
	}

	t.Run("nil resolver is a no-op", func(t *testing.T) {
		out := EnrichWithPlaceNames(context.Background(), pairs, nil, slog.Default())
		assert.Equal(t, pairs, out)
	})

	t.Run("fills place names", func(t *testing.T) {
		resolver := &stubResolver{place: "Longyearbyen"}

		out := EnrichWithPlaceNames(context.Background(), pairs, resolver, slog.Default())

		require.Len(t, out, 2)
		assert.Equal(t, "Longyearbyen", out[0].Place)
		assert.Equal(t, "Longyearbyen", out[1].Place)
		assert.Equal(t, 2, resolver.calls)
		// Input slice stays untouched.
		assert.Empty(t, pairs[0].Place)
	})

	t.Run("failure degrades gracefully", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		resolver := &stubResolver{err: errors.New("timeout")}

		out := EnrichWithPlaceNames(context.Background(), pairs, resolver, logger)

		require.Len(t, out, 2)
		assert.Empty(t, out[0].Place)
		assert.Empty(t, out[1].Place)
		assert.Contains(t, buf.String(), "place lookup failed")
	})
}
