package scan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jpbenga/tyrecheck/internal/models"
)

func TestStoreSnapshotTracksEveryTransition(t *testing.T) {
	store := NewStore()
	require.Equal(t, StatusIdle, store.Snapshot().Status)

	c := models.Classification{Label: "defective", Confidence: 0.93}

	transitions := []struct {
		apply func()
		want  State
	}{
		{func() { store.ToCamera() }, Camera()},
		{func() { store.ToProcessing("ref-1") }, Processing("ref-1")},
		{func() { store.ToResult("ref-1", c) }, Result("ref-1", c)},
		{func() { store.ToError("boom", "details", "ref-1") }, Error("boom", "details", "ref-1")},
		{func() { store.ToIdle() }, Idle()},
	}

	for _, tr := range transitions {
		tr.apply()
		require.Equal(t, tr.want, store.Snapshot())
	}
}

func TestStoreNotifiesSubscribersInOrder(t *testing.T) {
	store := NewStore()

	var first, second []Status
	store.Subscribe(func(s State) { first = append(first, s.Status) })
	store.Subscribe(func(s State) {
		// first subscriber always runs before this one
		require.Equal(t, len(first)-1, len(second))
		second = append(second, s.Status)
	})

	store.ToCamera()
	store.ToProcessing("ref-1")
	store.ToResult("ref-1", models.Classification{Label: "good", Confidence: 0.8})

	want := []Status{StatusIdle, StatusCamera, StatusProcessing, StatusResult}
	require.Equal(t, want, first)
	require.Equal(t, want, second)
}

func TestStoreSubscribeDeliversCurrentStateFirst(t *testing.T) {
	store := NewStore()
	store.ToCamera()
	store.ToProcessing("ref-1")

	var seen []State
	store.Subscribe(func(s State) { seen = append(seen, s) })

	require.Len(t, seen, 1)
	require.Equal(t, Processing("ref-1"), seen[0])

	store.ToError("boom", "", "ref-1")
	require.Len(t, seen, 2)
	require.Equal(t, StatusError, seen[1].Status)
}

func TestStoreUnsubscribeStopsDelivery(t *testing.T) {
	store := NewStore()

	var count int
	unsubscribe := store.Subscribe(func(State) { count++ })
	require.Equal(t, 1, count) // initial delivery

	store.ToCamera()
	require.Equal(t, 2, count)

	unsubscribe()
	store.ToProcessing("ref-1")
	require.Equal(t, 2, count)
}

func TestStoreAcceptsAnyTransitionOrder(t *testing.T) {
	store := NewStore()

	// The store does not police the lifecycle: result straight from idle
	store.ToResult("ref-1", models.Classification{Label: "good", Confidence: 0.5})
	require.Equal(t, StatusResult, store.Snapshot().Status)

	store.ToProcessing("ref-2")
	require.Equal(t, StatusProcessing, store.Snapshot().Status)
}

func TestDeriveView(t *testing.T) {
	c := models.Classification{Label: "good", Confidence: 0.8}

	tests := []struct {
		name  string
		state State
		want  View
	}{
		{"idle maps to landing", Idle(), ViewLanding},
		{"camera maps to camera", Camera(), ViewCamera},
		{"processing maps to processing", Processing("ref-1"), ViewProcessing},
		{"result maps to result", Result("ref-1", c), ViewResult},
		{"error surfaces on camera", Error("boom", "", ""), ViewCamera},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DeriveView(tt.state))
		})
	}
}
