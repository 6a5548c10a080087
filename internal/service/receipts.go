package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

const maxConcurrentUploads = 4

// ReceiptSaver persists upload results locally. Optional; nil skips
// persistence and the match is only joined in memory.
type ReceiptSaver interface {
	SaveReceiptMatch(ctx context.Context, m store.ReceiptMatch) error
}

// ReceiptService uploads receipt files to the matching collaborator and
// joins the results back onto transaction rows. All matching logic lives
// on the other side; only MatchedTransactionID is consumed here.
type ReceiptService struct {
	Uploader store.ReceiptUploader
	Saver    ReceiptSaver
}

// UploadAll uploads the given files concurrently and returns every match
// result that succeeded. A failed upload fails the batch; successful
// results already collected are still returned to the caller.
func (s *ReceiptService) UploadAll(ctx context.Context, entityID, tenantID string, paths []string) ([]store.ReceiptMatch, error) {
	if s.Uploader == nil {
		return nil, fmt.Errorf("receipt matching requires the remote store")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)

	var mu sync.Mutex
	var matches []store.ReceiptMatch
	for _, path := range paths {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()
			m, err := s.Uploader.UploadReceipt(ctx, f, filepath.Base(path), entityID, tenantID)
			if err != nil {
				return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
			}
			if s.Saver != nil {
				// best-effort: a failed local save must not fail the upload
				_ = s.Saver.SaveReceiptMatch(ctx, m)
			}
			mu.Lock()
			matches = append(matches, m)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return matches, err
}

// AttachMatches stamps matched receipts onto rows by transaction id and
// returns a new slice; unmatched results are ignored.
func AttachMatches(rows []ledger.Transaction, matches []store.ReceiptMatch) []ledger.Transaction {
	byTx := make(map[string]string, len(matches))
	for _, m := range matches {
		if m.MatchedTransactionID != "" {
			byTx[m.MatchedTransactionID] = m.ReceiptID
		}
	}
	out := make([]ledger.Transaction, len(rows))
	copy(out, rows)
	if len(byTx) == 0 {
		return out
	}
	for i := range out {
		if rid, ok := byTx[out[i].ID]; ok {
			r := rid
			out[i].ReceiptID = &r
		}
	}
	return out
}
