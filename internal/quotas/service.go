package quotas

import (
	"context"
	"fmt"
	"time"

	"hutsync/internal/hrs"
	"hutsync/internal/shared/constants"
	"hutsync/pkg/cache"
	"hutsync/pkg/logger"

	"github.com/google/uuid"
)

// EventPublisher pushes quota-change events to downstream consumers.
// Implemented by the notifications package; nil means events are off.
type EventPublisher interface {
	PublishQuotaEvent(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// Event types emitted after mirror-changing operations.
const (
	EventQuotaReconciled = "quota.reconciled"
	EventQuotaImported   = "quota.imported"
)

type Service interface {
	// Service dependency injection
	SetCacheService(cacheService cache.Service)
	SetEventPublisher(publisher EventPublisher)

	// Reconcile drives the split-preserve-recreate algorithm for the given
	// target days, then refreshes the local mirror window.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)

	// ImportRange refreshes the mirror for [from, to) from the platform.
	ImportRange(ctx context.Context, from, to time.Time) (*ImportResult, error)

	// ListMirror serves mirror rows intersecting [from, to).
	ListMirror(ctx context.Context, from, to time.Time) ([]QuotaResponse, error)
}

type service struct {
	client           *hrs.Client
	repo             Repository
	cacheService     cache.Service
	publisher        EventPublisher
	safetyMarginDays int
	log              *logger.Logger
}

func NewService(client *hrs.Client, repo Repository, safetyMarginDays int) Service {
	if safetyMarginDays <= 0 {
		safetyMarginDays = 30
	}
	return &service{
		client:           client,
		repo:             repo,
		safetyMarginDays: safetyMarginDays,
		log:              logger.GetDefault(),
	}
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// SetEventPublisher injects the event publisher dependency
func (s *service) SetEventPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

// parseTargets validates the request and resolves it into day-keyed
// capacities plus the adjusted-closed day set. Any defect rejects the whole
// request before a single remote call is made.
func parseTargets(req ReconcileRequest) (map[time.Time]Capacities, DaySet, error) {
	if len(req.Days) == 0 {
		return nil, nil, fmt.Errorf("%w: no target days", ErrValidation)
	}

	targets := make(map[time.Time]Capacities, len(req.Days))
	closed := make(DaySet)

	for _, dc := range req.Days {
		day, err := hrs.ParseDate(dc.Day)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: day %q: %v", ErrValidation, dc.Day, err)
		}
		day = hrs.Day(day)
		if _, dup := targets[day]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate day %s", ErrValidation, dc.Day)
		}

		caps := make(Capacities, len(dc.Capacities))
		for code, beds := range dc.Capacities {
			if _, ok := hrs.CategoryID(code); !ok {
				return nil, nil, fmt.Errorf("%w: unknown category %q", ErrValidation, code)
			}
			if beds < 0 {
				return nil, nil, fmt.Errorf("%w: negative capacity for %q on %s", ErrValidation, code, dc.Day)
			}
			caps[code] = beds
		}

		targets[day] = caps
		if dc.Closed {
			closed[day] = struct{}{}
		}
	}

	return targets, closed, nil
}

func (s *service) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	start := time.Now()

	targets, closed, err := parseTargets(req)
	if err != nil {
		return nil, err
	}

	targetSet := make(DaySet, len(targets))
	for day := range targets {
		targetSet[day] = struct{}{}
	}
	minDay, maxDay, _ := targetSet.Bounds()

	// The window is widened so multi-day remote records that only partially
	// overlap the target days are still fetched.
	windowFrom := minDay.AddDate(0, 0, -s.safetyMarginDays)
	windowTo := maxDay.AddDate(0, 0, s.safetyMarginDays+1)

	result := &ReconcileResult{RunID: uuid.New().String()}

	// Fetch phase: a transport failure here aborts the run; acting on a
	// partial view could destroy capacity we never saw.
	dtos, err := s.client.ListQuotas(ctx, windowFrom, windowTo)
	if err != nil {
		return nil, fmt.Errorf("fetching overlapping quotas: %w", err)
	}

	type deletion struct {
		rec QuotaRecord
		cls classification
	}
	var deletions []deletion
	var preserveCreates []QuotaRecord
	seen := make(map[int64]bool)

	for _, dto := range dtos {
		rec, err := recordFromDTO(dto)
		if err != nil {
			s.log.ErrorWithContext(ctx, "Skipping undecodable remote quota", err, map[string]interface{}{
				"remote_id": dto.ID,
			})
			continue
		}

		cls := classify(rec, targetSet)
		if cls.kind == overlapNone {
			continue
		}
		if !req.Options.cleanupExisting() {
			// caller opted out of pre-deleting overlapping records
			continue
		}
		if seen[rec.RemoteID] {
			continue
		}
		seen[rec.RemoteID] = true

		deletions = append(deletions, deletion{rec: rec, cls: cls})

		if rec.Mode == hrs.ModeClosed {
			result.ClosedOverlaps = append(result.ClosedOverlaps, ItemResult{
				RemoteID: rec.RemoteID,
				DateFrom: rec.DateFrom.Format(hrs.ISODateFormat),
				DateTo:   rec.DateTo.Format(hrs.ISODateFormat),
				Title:    rec.Title,
				Success:  true,
				Outcome:  "OVERWRITTEN",
			})
		}

		if cls.kind == overlapPartial && req.Options.autoSplit() {
			for _, rng := range cls.preserved {
				preserveCreates = append(preserveCreates, QuotaRecord{
					Title:      rec.Title + " (split)",
					Mode:       rec.Mode,
					DateFrom:   rng.From,
					DateTo:     rng.To,
					Capacities: rec.Capacities.Clone(),
					Languages:  rec.Languages,
				})
			}
		}
	}

	// Delete phase. Per-item failures are recorded and the batch continues;
	// the platform offers no multi-record transaction to lean on.
	delOpts := hrs.DeleteOptions{
		PermitOverbook:   req.Options.PermitOverbook,
		PermitModeChange: req.Options.PermitModeChange,
		SeriesWide:       req.Options.SeriesWide,
	}
	for _, d := range deletions {
		item := ItemResult{
			RemoteID: d.rec.RemoteID,
			DateFrom: d.rec.DateFrom.Format(hrs.ISODateFormat),
			DateTo:   d.rec.DateTo.Format(hrs.ISODateFormat),
			Title:    d.rec.Title,
		}

		outcome, msg, err := s.client.DeleteQuota(ctx, d.rec.RemoteID, delOpts)
		if err != nil {
			item.Outcome = hrs.OutcomeTransportError.String()
			item.Message = err.Error()
		} else {
			item.Success = outcome.IsSuccess()
			item.Outcome = outcome.String()
			item.Message = msg.Message
		}

		result.Deleted = append(result.Deleted, item)
		s.pause()
	}

	// Create phase: first the preserved split fragments, then the target
	// days themselves.
	for _, rec := range preserveCreates {
		s.createOne(ctx, rec, result)
	}

	for _, day := range targetSet.Sorted() {
		caps := targets[day]
		isClosed := closed.Contains(day)
		if caps.Total() == 0 && !isClosed {
			// nothing to offer and no blackout to preserve
			continue
		}

		mode := hrs.ModeServiced
		if isClosed {
			mode = hrs.ModeClosed
		}
		s.createOne(ctx, QuotaRecord{
			Title:      "Kontingent " + hrs.FormatDate(day),
			Mode:       mode,
			DateFrom:   day,
			DateTo:     day.AddDate(0, 0, 1),
			Capacities: caps,
		}, result)
	}

	// Mirror refresh: the remote has no change feed, so the whole affected
	// window is re-imported.
	records, refreshErr := s.refreshWindow(ctx, windowFrom, windowTo)
	if refreshErr == nil {
		result.RefreshedFrom = windowFrom.Format(hrs.ISODateFormat)
		result.RefreshedTo = windowTo.Format(hrs.ISODateFormat)
	}

	failed := result.failedCount()
	result.Success = failed == 0 && refreshErr == nil
	switch {
	case refreshErr != nil:
		result.Message = fmt.Sprintf("remote writes done, mirror refresh failed: %v", refreshErr)
	case failed > 0:
		result.Message = fmt.Sprintf("%d of %d operations failed", failed, len(result.Deleted)+len(result.Created))
	default:
		result.Message = fmt.Sprintf("reconciled %d days, %d records refreshed", len(targets), records)
	}

	s.log.LogReconcileRun(ctx, result.RunID, len(result.Deleted), len(result.Created), failed, time.Since(start))
	s.publish(ctx, EventQuotaReconciled, map[string]interface{}{
		"run_id":          result.RunID,
		"hut_id":          s.client.HutID(),
		"success":         result.Success,
		"deleted":         len(result.Deleted),
		"created":         len(result.Created),
		"failed":          failed,
		"closed_overlaps": len(result.ClosedOverlaps),
	})

	return result, nil
}

// createOne issues one remote create and records its per-item result.
func (s *service) createOne(ctx context.Context, rec QuotaRecord, result *ReconcileResult) {
	item := ItemResult{
		DateFrom: rec.DateFrom.Format(hrs.ISODateFormat),
		DateTo:   rec.DateTo.Format(hrs.ISODateFormat),
		Title:    rec.Title,
	}

	outcome, msg, err := s.client.SaveQuota(ctx, recordToDTO(rec))
	if err != nil {
		item.Outcome = hrs.OutcomeTransportError.String()
		item.Message = err.Error()
	} else {
		item.Success = outcome.IsSuccess()
		item.Outcome = outcome.String()
		item.Message = msg.Message
	}

	result.Created = append(result.Created, item)
	s.pause()
}

// pause is the courtesy gap between sequential vendor mutations.
func (s *service) pause() {
	if p := s.client.MutationPause(); p > 0 {
		time.Sleep(p)
	}
}

func (s *service) ImportRange(ctx context.Context, from, to time.Time) (*ImportResult, error) {
	from = hrs.Day(from)
	to = hrs.Day(to)
	if !to.After(from) {
		return nil, fmt.Errorf("%w: import range end must be after start", ErrValidation)
	}

	records, err := s.refreshWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		RunID:    uuid.New().String(),
		Success:  true,
		Records:  records,
		DateFrom: from.Format(hrs.ISODateFormat),
		DateTo:   to.Format(hrs.ISODateFormat),
	}

	s.publish(ctx, EventQuotaImported, map[string]interface{}{
		"run_id":  result.RunID,
		"hut_id":  s.client.HutID(),
		"records": records,
		"from":    result.DateFrom,
		"to":      result.DateTo,
	})
	return result, nil
}

// refreshWindow re-imports [from, to) from the platform and rewrites the
// mirror window. Returns the number of records written.
func (s *service) refreshWindow(ctx context.Context, from, to time.Time) (int, error) {
	dtos, err := s.client.ListQuotas(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("listing quotas for refresh: %w", err)
	}

	rows := make([]Quota, 0, len(dtos))
	for _, dto := range dtos {
		row, err := mirrorRowFromDTO(dto, s.client.HutID())
		if err != nil {
			s.log.ErrorWithContext(ctx, "Skipping undecodable remote quota during refresh", err, map[string]interface{}{
				"remote_id": dto.ID,
			})
			continue
		}
		rows = append(rows, row)
	}

	if err := s.repo.ReplaceWindow(ctx, s.client.HutID(), from, to, rows); err != nil {
		return 0, fmt.Errorf("rewriting mirror window: %w", err)
	}

	s.invalidateWindowCache(ctx)
	s.log.LogMirrorRefresh(ctx, from.Format(hrs.ISODateFormat), to.Format(hrs.ISODateFormat), len(rows))
	return len(rows), nil
}

func (s *service) ListMirror(ctx context.Context, from, to time.Time) ([]QuotaResponse, error) {
	from = hrs.Day(from)
	to = hrs.Day(to)
	if !to.After(from) {
		return nil, fmt.Errorf("%w: range end must be after start", ErrValidation)
	}

	fetch := func() (interface{}, error) {
		rows, err := s.repo.ListWindow(ctx, s.client.HutID(), from, to)
		if err != nil {
			return nil, err
		}
		responses := make([]QuotaResponse, 0, len(rows))
		for i := range rows {
			responses = append(responses, rows[i].ToResponse())
		}
		return responses, nil
	}

	if s.cacheService == nil {
		data, err := fetch()
		if err != nil {
			return nil, err
		}
		return data.([]QuotaResponse), nil
	}

	key := constants.QuotaWindowKey(s.client.HutID(), from.Format(hrs.ISODateFormat), to.Format(hrs.ISODateFormat))
	var responses []QuotaResponse
	if err := s.cacheService.GetOrSet(ctx, key, constants.TTL_QUOTA_WINDOW, fetch, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// invalidateWindowCache drops every cached mirror window after a rewrite.
func (s *service) invalidateWindowCache(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.DeletePattern(ctx, constants.QuotaWindowPattern(s.client.HutID())); err != nil {
		s.log.ErrorWithContext(ctx, "Mirror cache invalidation failed", err, nil)
	}
}

// publish emits a quota event, best effort.
func (s *service) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishQuotaEvent(ctx, eventType, payload); err != nil {
		s.log.ErrorWithContext(ctx, "Quota event publish failed", err, map[string]interface{}{
			"event_type": eventType,
		})
	}
}
