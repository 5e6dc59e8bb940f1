package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_SaturationSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: uint64(i * 300), SaturatedFrac: 0.02})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1500, SaturatedFrac: 0.1})
	if !hasBookmark(bookmarks, BookmarkSaturationSpike) {
		t.Error("expected saturation_spike bookmark")
	}
	if bookmarks[0].Tick != 1500 {
		t.Errorf("tick = %d, want 1500", bookmarks[0].Tick)
	}
}

func TestBookmarkDetector_PhaseChange(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{WindowEndTick: 300}); len(got) != 0 {
		t.Errorf("first window produced %v", got)
	}

	if got := bd.Check(WindowStats{WindowEndTick: 600, SolidFrac: 0.01}); !hasBookmark(got, BookmarkCrystallized) {
		t.Error("expected crystallized bookmark")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 900, SolidFrac: 0.02}); hasBookmark(got, BookmarkCrystallized) {
		t.Error("crystallized should trigger only on the transition")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 1200}); !hasBookmark(got, BookmarkDissolved) {
		t.Error("expected dissolved bookmark")
	}
}

func TestBookmarkDetector_AdmissionCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: uint64(i * 300), Spawns: 10, AdmitRate: 1})
	}

	low := WindowStats{WindowEndTick: 900, Spawns: 2, SpawnsRejected: 8, AdmitRate: 0.2}
	if !hasBookmark(bd.Check(low), BookmarkAdmissionCollapse) {
		t.Error("expected admission_collapse bookmark")
	}

	// Peak resets after triggering
	low.WindowEndTick = 1200
	if hasBookmark(bd.Check(low), BookmarkAdmissionCollapse) {
		t.Error("collapse should not re-trigger at the same rate")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: uint64(i * 300), LiveShapes: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1500, LiveShapes: 50})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}
}

func TestBookmarkDetector_SteadyState(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var triggered []uint64
	for i := 1; i <= 12; i++ {
		for _, bm := range bd.Check(WindowStats{WindowEndTick: uint64(i * 300), SaturatedFrac: 0.1}) {
			if bm.Type == BookmarkSteadyState {
				triggered = append(triggered, bm.Tick)
			}
		}
	}

	if len(triggered) != 1 {
		t.Fatalf("steady_state triggered %d times, want 1", len(triggered))
	}
	if triggered[0] != 9*300 {
		t.Errorf("steady_state at tick %d, want %d", triggered[0], 9*300)
	}
}

func TestBookmarkDetector_HistoryOrder(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 1; i <= 7; i++ {
		bd.Check(WindowStats{WindowEndTick: uint64(i)})
	}

	history := bd.getHistory()
	if len(history) != 5 {
		t.Fatalf("history len = %d, want 5", len(history))
	}
	for i, h := range history {
		if want := uint64(i + 3); h.WindowEndTick != want {
			t.Errorf("history[%d] = %d, want %d", i, h.WindowEndTick, want)
		}
	}
}
