// Package snapshot owns the published state the HTTP layer reads. Both
// values are replaced by a single atomic pointer swap: a reader always sees
// either the fully old or the fully new value, never a mix, and published
// values are treated as immutable.
package snapshot

import (
	"sync/atomic"

	"github.com/Dmitrii6776/PersonalTradeAssist/internal/models"
)

// Store holds the current Snapshot and the current raw ticker book.
type Store struct {
	full    atomic.Pointer[models.Snapshot]
	tickers atomic.Pointer[models.TickerBook]
}

// New creates an empty store. Both slots are nil until the first publish.
func New() *Store {
	return &Store{}
}

// Publish installs a new snapshot. The previous one is simply dropped;
// readers holding it keep a consistent view.
func (s *Store) Publish(snap *models.Snapshot) {
	s.full.Store(snap)
}

// Current returns the latest snapshot, or nil before the first full cycle.
func (s *Store) Current() *models.Snapshot {
	return s.full.Load()
}

// PublishTickers installs a new ticker book.
func (s *Store) PublishTickers(book *models.TickerBook) {
	s.tickers.Store(book)
}

// Tickers returns the latest ticker book, or nil before the first fetch.
func (s *Store) Tickers() *models.TickerBook {
	return s.tickers.Load()
}
