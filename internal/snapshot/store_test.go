package snapshot

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
)

func TestEmptyStore(t *testing.T) {
	s := New()
	assert.Nil(t, s.Current())
	assert.Nil(t, s.Tickers())
}

func TestPublishReplaces(t *testing.T) {
	s := New()

	first := &models.Snapshot{UpdatedAt: time.Now()}
	s.Publish(first)
	assert.Same(t, first, s.Current())

	second := &models.Snapshot{UpdatedAt: time.Now()}
	s.Publish(second)
	assert.Same(t, second, s.Current())
}

// consistentSnapshot builds a snapshot where every analysis carries the same
// marker and the summary records the count; a torn read would break one of
// the two invariants.
func consistentSnapshot(marker int) *models.Snapshot {
	n := marker%5 + 1
	analyses := make([]models.CoinAnalysis, n)
	for i := range analyses {
		analyses[i] = models.CoinAnalysis{
			Symbol: fmt.Sprintf("COIN%d", marker),
			Sector: fmt.Sprintf("sector-%d", marker),
		}
	}
	return &models.Snapshot{
		UpdatedAt: time.Now(),
		Analyses:  analyses,
		Summary:   models.UpdateSummary{Analyzed: n},
	}
}

func TestConcurrentPublishAndRead(t *testing.T) {
	s := New()
	s.Publish(consistentSnapshot(0))

	done := make(chan struct{})
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-done:
					return
				default:
				}
				s.Publish(consistentSnapshot(seed*1000 + i))
			}
		}(w + 1)
	}

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				snap := s.Current()
				if snap == nil {
					t.Error("reader observed nil after first publish")
					return
				}
				if len(snap.Analyses) != snap.Summary.Analyzed {
					t.Errorf("torn snapshot: %d analyses, summary says %d",
						len(snap.Analyses), snap.Summary.Analyzed)
					return
				}
				marker := snap.Analyses[0].Symbol
				for _, a := range snap.Analyses {
					if a.Symbol != marker {
						t.Errorf("mixed snapshot: %s vs %s", a.Symbol, marker)
						return
					}
				}
			}
		}()
	}

	// Let readers finish, then stop the publishers.
	time.Sleep(50 * time.Millisecond)
	close(done)
	wg.Wait()
}
