package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSaturationSpike   BookmarkType = "saturation_spike"
	BookmarkCrystallized      BookmarkType = "crystallized"
	BookmarkDissolved         BookmarkType = "dissolved"
	BookmarkAdmissionCollapse BookmarkType = "admission_collapse"
	BookmarkPopulationCrash   BookmarkType = "population_crash"
	BookmarkSteadyState       BookmarkType = "steady_state"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        uint64       `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable windows from the stats stream.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	hadSolid          bool    // previous window contained solid cells
	recentAdmitPeak   float64 // peak admit rate since the last collapse
	recentShapePeak   int     // peak live shapes since the last crash
	steadyWindowCount int     // consecutive windows with stable saturation
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkSaturationSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPhaseChange(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkAdmissionCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSteadyState(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	bd.hadSolid = stats.SolidFrac > 0
	if stats.AdmitRate > bd.recentAdmitPeak {
		bd.recentAdmitPeak = stats.AdmitRate
	}
	if stats.LiveShapes > bd.recentShapePeak {
		bd.recentShapePeak = stats.LiveShapes
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns recorded windows oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkSaturationSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.SaturatedFrac
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.SaturatedFrac > avg*2.0 && stats.SaturatedFrac > 0.01 {
		return &Bookmark{
			Type:        BookmarkSaturationSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Saturated %.1f%% is %.1fx average (%.1f%%)", stats.SaturatedFrac*100, stats.SaturatedFrac/avg, avg*100),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPhaseChange(stats WindowStats) *Bookmark {
	solid := stats.SolidFrac > 0
	switch {
	case solid && !bd.hadSolid:
		return &Bookmark{
			Type:        BookmarkCrystallized,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Solid regime appeared over %.2f%% of cells", stats.SolidFrac*100),
		}
	case !solid && bd.hadSolid:
		return &Bookmark{
			Type:        BookmarkDissolved,
			Tick:        stats.WindowEndTick,
			Description: "Solid regime dissolved",
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkAdmissionCollapse(stats WindowStats) *Bookmark {
	if bd.recentAdmitPeak == 0 || stats.Spawns+stats.SpawnsRejected == 0 {
		return nil
	}

	drop := 1.0 - stats.AdmitRate/bd.recentAdmitPeak
	if drop > 0.30 && stats.AdmitRate < 0.5 {
		oldPeak := bd.recentAdmitPeak
		bd.recentAdmitPeak = stats.AdmitRate

		return &Bookmark{
			Type:        BookmarkAdmissionCollapse,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Admit rate fell from %.2f to %.2f", oldPeak, stats.AdmitRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentShapePeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.LiveShapes)/float64(bd.recentShapePeak)
	if dropPercent > 0.30 && stats.LiveShapes < bd.recentShapePeak-10 {
		oldPeak := bd.recentShapePeak
		bd.recentShapePeak = stats.LiveShapes

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Live shapes crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.LiveShapes),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.SaturatedFrac == 0 {
		bd.steadyWindowCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.SaturatedFrac
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.SaturatedFrac - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.steadyWindowCount++
	} else {
		bd.steadyWindowCount = 0
	}

	if bd.steadyWindowCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Saturation steady at %.1f%% over 5+ windows", stats.SaturatedFrac*100),
		}
	}

	return nil
}
