package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
)

// SyncResult reports how a SignIn call ended.
type SyncResult int

const (
	// SyncCompleted means every merged line was written back.
	SyncCompleted SyncResult = iota
	// SyncPartial means some lines failed write-back and stay on the device.
	SyncPartial
	// SyncFailed means the remote set could not be fetched.
	SyncFailed
	// SyncIgnored means another sync was already running.
	SyncIgnored
	// SyncAlreadyBound means the store was already bound to the user.
	SyncAlreadyBound
	// SyncAborted means a session transition happened while syncing.
	SyncAborted
)

func (r SyncResult) String() string {
	switch r {
	case SyncCompleted:
		return "completed"
	case SyncPartial:
		return "partial"
	case SyncFailed:
		return "failed"
	case SyncIgnored:
		return "ignored"
	case SyncAlreadyBound:
		return "already_bound"
	case SyncAborted:
		return "aborted"
	default:
		return fmt.Sprintf("sync(%d)", int(r))
	}
}

// SignIn binds the store to userID and merges the anonymous cart into the
// user's remote cart. Calls made while a sync is running are ignored. When
// the store is already bound to userID the call only retries lines left
// unmerged by an earlier partial sync.
func (s *Store) SignIn(ctx context.Context, userID string) SyncResult {
	if userID == "" {
		s.logger.Warn("sign-in without user id ignored")
		return SyncIgnored
	}
	s.mu.Lock()
	s.lastActive = timeNow()
	// syncing outlives the SYNCING state: a sign-out during the sync resets
	// the state while the write-back is still running.
	if s.syncing {
		s.mu.Unlock()
		s.logger.Info("sign-in ignored, sync in flight", zap.String("user_id", userID))
		return SyncIgnored
	}
	resume := false
	switch s.state {
	case StateAuthenticated:
		if s.userID == userID {
			if len(s.unmerged) == 0 {
				s.mu.Unlock()
				return SyncAlreadyBound
			}
			resume = true
			break
		}
		s.logger.Info("switching user, signing out first",
			zap.String("from", s.userID), zap.String("to", userID))
		s.resetLocked()
	}

	known := cloneLines(s.lines)
	var local []domain.CartLine
	if resume {
		local = cloneLines(s.unmerged)
	} else {
		local = cloneLines(s.lines)
	}
	s.state = StateSyncing
	s.syncing = true
	s.userID = userID
	s.deferred = nil
	s.epoch++
	epoch := s.epoch
	s.publishLocked()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.syncing = false
		s.mu.Unlock()
	}()

	logger := s.logger.With(zap.String("user_id", userID))
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	// Writes issued under an earlier binding must land before the remote
	// set is read.
	if err := s.queue.flush(ctx); err != nil {
		return s.abandon(epoch, resume, logger, fmt.Errorf("flush pending writes: %w", err))
	}

	remote, err := s.remote.List(ctx, userID)
	if err != nil {
		return s.abandon(epoch, resume, logger, err)
	}

	merged, remoteQty := s.merge(ctx, remote, local, known, logger)
	failed := s.writeBack(ctx, userID, merged, logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		logger.Info("sync result discarded, session changed")
		return SyncAborted
	}

	final := make([]domain.CartLine, 0, len(merged))
	for _, line := range merged {
		if _, bad := failed[line.ProductID]; bad {
			q, ok := remoteQty[line.ProductID]
			if !ok {
				continue
			}
			line.Quantity = q
		}
		final = append(final, line)
	}
	var pending []domain.CartLine
	for _, line := range local {
		if _, bad := failed[line.ProductID]; bad {
			pending = append(pending, line)
		}
	}

	s.device.Set(pending)
	s.unmerged = pending
	s.state = StateAuthenticated
	s.lines = final
	for _, d := range s.deferred {
		touched := s.applyLocked(d.m)
		s.enqueueLocked(touched, d.m.clearAll)
	}
	s.deferred = nil
	s.publishLocked()

	if len(pending) > 0 {
		logger.Warn("sync partially applied, unmerged lines kept on device",
			zap.Int("unmerged", len(pending)), zap.Int("lines", len(final)))
		return SyncPartial
	}
	logger.Info("cart synced", zap.Int("lines", len(final)), zap.Int("merged_local", len(local)))
	return SyncCompleted
}

// abandon restores the pre-sync binding after the remote set could not be read.
func (s *Store) abandon(epoch uint64, resume bool, logger *zap.Logger, err error) SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return SyncAborted
	}
	logger.Warn("sync abandoned", zap.Error(err), zap.Bool("resume", resume))
	if resume {
		s.state = StateAuthenticated
		for _, d := range s.deferred {
			s.enqueueLocked(d.touched, d.m.clearAll)
		}
	} else {
		s.state = StateAnonymous
		s.userID = ""
		s.device.Set(s.lines)
	}
	s.deferred = nil
	s.publishLocked()
	return SyncFailed
}

// merge adds local quantities onto the remote set. Remote order comes first,
// local-only lines follow in their cart order. Remote-only lines reuse the
// metadata of a known line before falling back to the catalog.
func (s *Store) merge(ctx context.Context, remote []domain.Item, local, known []domain.CartLine, logger *zap.Logger) ([]domain.CartLine, map[string]int) {
	remoteQty := make(map[string]int, len(remote))
	var order []string
	for _, item := range remote {
		if item.ProductID == "" || item.Quantity < 1 {
			logger.Warn("skipping invalid remote cart row",
				zap.String("product_id", item.ProductID), zap.Int("quantity", item.Quantity))
			continue
		}
		if _, seen := remoteQty[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		remoteQty[item.ProductID] = domain.AddQuantity(remoteQty[item.ProductID], item.Quantity)
	}

	merged := make([]domain.CartLine, 0, len(order)+len(local))
	for _, id := range order {
		if i := indexOf(local, id); i >= 0 {
			line := local[i]
			line.Quantity = domain.AddQuantity(line.Quantity, remoteQty[id])
			merged = append(merged, line)
			continue
		}
		if i := indexOf(known, id); i >= 0 {
			line := known[i]
			line.Quantity = remoteQty[id]
			merged = append(merged, line)
			continue
		}
		merged = append(merged, s.lookup(ctx, id, remoteQty[id], logger))
	}
	for _, line := range local {
		if _, ok := remoteQty[line.ProductID]; !ok {
			merged = append(merged, line)
		}
	}
	return merged, remoteQty
}

// lookup joins a remote-only row with catalog metadata. Unknown products keep
// their id as display name and a zero price.
func (s *Store) lookup(ctx context.Context, productID string, quantity int, logger *zap.Logger) domain.CartLine {
	fallback := domain.CartLine{ProductID: productID, Quantity: quantity, DisplayName: productID}
	if s.catalog == nil {
		return fallback
	}
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		logger.Warn("catalog lookup failed for remote cart row",
			zap.String("product_id", productID), zap.Error(err))
		return fallback
	}
	return p.CartLine(quantity)
}

// writeBack upserts every merged line and returns the ids that failed.
func (s *Store) writeBack(ctx context.Context, userID string, merged []domain.CartLine, logger *zap.Logger) map[string]struct{} {
	failed := make(map[string]struct{})
	for _, line := range merged {
		out := s.queue.execute(ctx, remoteOp{
			kind:      opUpsert,
			userID:    userID,
			productID: line.ProductID,
			quantity:  line.Quantity,
		})
		if !out.OK() {
			failed[line.ProductID] = struct{}{}
		}
	}
	if len(failed) > 0 {
		logger.Warn("cart write-back incomplete", zap.Int("failed", len(failed)), zap.Int("total", len(merged)))
	}
	return failed
}

// SignOut returns the store to an empty anonymous cart and clears the device.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnonymous {
		s.logger.Info("cart signed out", zap.String("user_id", s.userID), zap.Stringer("from", s.state))
	}
	s.resetLocked()
	s.publishLocked()
}

func (s *Store) resetLocked() {
	s.epoch++
	s.lastActive = timeNow()
	s.state = StateAnonymous
	s.userID = ""
	s.lines = nil
	s.deferred = nil
	if len(s.unmerged) > 0 {
		s.logger.Warn("discarding unmerged device lines on sign-out", zap.Int("lines", len(s.unmerged)))
	}
	s.unmerged = nil
	s.device.Set(nil)
}
