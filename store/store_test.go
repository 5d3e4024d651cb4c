package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanvanderbyl/pdftakeoff"
	"github.com/ivanvanderbyl/pdftakeoff/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "takeoff.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMeasurements() []pdftakeoff.Measurement {
	return []pdftakeoff.Measurement{
		{
			ID:         "m-1",
			Type:       pdftakeoff.MeasurementDistance,
			Label:      "Wall",
			Points:     []pdftakeoff.Point2D{{X: 0, Y: 0}, {X: 120, Y: 0}},
			PageNumber: 1,
			ZoomLevel:  1.5,
			Value:      3,
			Unit:       "m",
			Timestamp:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:         "m-2",
			Type:       pdftakeoff.MeasurementSurface,
			Label:      "Kitchen",
			Points:     []pdftakeoff.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
			PageNumber: 2,
			ZoomLevel:  1,
			Value:      12.5,
			Unit:       "m²",
			Product:    &pdftakeoff.Product{Name: "Tiles", Category: "flooring", UnitPrice: 30},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	want := sampleMeasurements()
	require.NoError(t, s.Save(ctx, "house", want))

	got, err := s.Load(ctx, "house")
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Points, got[i].Points)
		assert.Equal(t, want[i].Value, got[i].Value)
		assert.Equal(t, want[i].ZoomLevel, got[i].ZoomLevel)
		assert.Equal(t, want[i].Product, got[i].Product)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "house", sampleMeasurements()))
	require.NoError(t, s.Save(ctx, "house", sampleMeasurements()[:1]))

	got, err := s.Load(ctx, "house")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].ID)
}

func TestProjectsAreIsolated(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "house", sampleMeasurements()))
	require.NoError(t, s.Save(ctx, "garage", sampleMeasurements()[1:]))

	projects, err := s.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"garage", "house"}, projects)

	require.NoError(t, s.Delete(ctx, "house"))
	got, err := s.Load(ctx, "house")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Load(ctx, "garage")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
