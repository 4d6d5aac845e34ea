package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"kakebo/internal/allocation"
	"kakebo/internal/cycle"
	apperrors "kakebo/internal/errors"
	"kakebo/internal/logger"
	"kakebo/internal/models"
)

// cycleService implements the budget cycle engine: resolving which cycle a
// request refers to, lazily creating current-cycle records, and freezing
// completed cycles into snapshots. The clock is injected so cycle math is
// deterministic under test.
type cycleService struct {
	db            *gorm.DB
	budgetService BudgetServicer
	now           func() time.Time
}

// NewCycleService creates a new CycleServicer.
func NewCycleService(db *gorm.DB, budgetService BudgetServicer) CycleServicer {
	return &cycleService{db: db, budgetService: budgetService, now: time.Now}
}

// newLiveView builds a cycle view whose totals come from live expense data
// and whose allocations are evaluated against the live category set.
func newLiveView(c *models.BudgetCycle, totals map[string]int64, totalSpent int64,
	budgetTotal int64, categories []models.Category, isCurrent bool) *CycleView {
	return &CycleView{
		Cycle:            c,
		CategoryTotals:   totals,
		AllocatedAmounts: allocation.Plan(budgetTotal, categories),
		TotalSpent:       totalSpent,
		IsCurrentCycle:   isCurrent,
	}
}

// newSnapshotView builds a cycle view whose totals come from the frozen
// snapshot; live expense and category data is not consulted. Allocations
// are re-evaluated from the frozen category set and budget total, so later
// budget edits cannot change how a closed cycle displays.
func newSnapshotView(c *models.BudgetCycle) *CycleView {
	return &CycleView{
		Cycle:            c,
		CategoryTotals:   c.Snapshot.CategoryTotals,
		AllocatedAmounts: snapshotAllocations(c.Snapshot),
		TotalSpent:       c.Snapshot.TotalSpent,
		IsCurrentCycle:   false,
		Snapshot:         c.Snapshot,
	}
}

// snapshotAllocations evaluates the allocation plan of a frozen snapshot.
func snapshotAllocations(snapshot *models.Snapshot) map[string]int64 {
	categories := make([]models.Category, 0, len(snapshot.Categories))
	for _, sc := range snapshot.Categories {
		categories = append(categories, models.Category{
			Base:             models.Base{ID: sc.ID},
			AllocationMethod: sc.AllocationMethod,
			AllocationValue:  sc.AllocationValue,
		})
	}
	return allocation.Plan(snapshot.BudgetTotal, categories)
}

// ResolveCycle determines the cycle a request refers to: an explicit cycle
// ID, the cycle containing an explicit date, or the current cycle.
// Resolving "current" is the only path that creates records; it also
// snapshots the immediately preceding cycle if that has not happened yet, so
// rollover needs no background scheduler.
func (s *cycleService) ResolveCycle(userID, budgetID string, opts ResolveOptions) (*CycleView, error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}
	if opts.CycleID != nil && opts.Date != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cycleId and date are mutually exclusive")
	}

	var budget models.Budget
	if err := s.db.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	cfg := cycle.ConfigFromBudget(&budget)

	currentBounds, err := cycle.BoundsForDate(s.now(), cfg)
	if err != nil {
		return nil, err
	}

	var target *models.BudgetCycle
	switch {
	case opts.CycleID != nil:
		target, err = s.findCycleByID(budgetID, *opts.CycleID)
	case opts.Date != nil:
		// Historical dates are not retroactively materialized; only
		// resolving "current" creates cycle records.
		var requestedBounds cycle.Bounds
		requestedBounds, err = cycle.BoundsForDate(*opts.Date, cfg)
		if err != nil {
			return nil, err
		}
		target, err = s.findCycleByStart(budgetID, requestedBounds.Start)
	default:
		target, err = s.getOrCreateCurrentCycle(&budget, cfg, currentBounds)
	}
	if err != nil {
		return nil, err
	}

	isCurrent := target.StartDate.Equal(currentBounds.Start)

	// Past cycles with snapshots answer from frozen data. The current
	// cycle, and old cycles that pre-date snapshotting, compute live.
	if !isCurrent && target.HasSnapshot() {
		return newSnapshotView(target), nil
	}

	totals, totalSpent, err := s.liveTotals(budgetID, target.StartDate, target.EndDate)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Where("budget_id = ?", budgetID).Order("sort_order asc").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return newLiveView(target, totals, totalSpent, budget.TotalAmount, categories, isCurrent), nil
}

// ListCycles returns all cycles of a budget, newest first.
func (s *cycleService) ListCycles(userID, budgetID string) ([]CycleSummary, error) {
	if _, err := s.budgetService.AuthorizeMember(budgetID, userID); err != nil {
		return nil, err
	}

	var cycles []models.BudgetCycle
	if err := s.db.Where("budget_id = ?", budgetID).Order("start_date desc").Find(&cycles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summaries := make([]CycleSummary, 0, len(cycles))
	for _, c := range cycles {
		summaries = append(summaries, CycleSummary{
			ID:          c.ID,
			StartDate:   c.StartDate,
			EndDate:     c.EndDate,
			HasSnapshot: c.HasSnapshot(),
			CreatedAt:   c.CreatedAt,
		})
	}
	return summaries, nil
}

// AppendSnapshotCategory appends a category to a closed cycle's snapshot.
// The appended category gets a synthetic id distinct from live category
// ids and starts with zero historical spend; committed totals are not
// recomputed. Viewers may not append.
func (s *cycleService) AppendSnapshotCategory(userID, budgetID, cycleID string, input SnapshotCategoryInput) (*models.SnapshotCategory, error) {
	if _, err := s.budgetService.AuthorizeEditor(budgetID, userID); err != nil {
		return nil, err
	}
	if input.Name == "" || input.AllocationMethod == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and allocation method are required")
	}

	target, err := s.findCycleByID(budgetID, cycleID)
	if err != nil {
		return nil, err
	}
	if !target.HasSnapshot() {
		return nil, apperrors.ErrCycleNotSnapshotted
	}

	for _, existing := range target.Snapshot.Categories {
		if strings.EqualFold(existing.Name, input.Name) {
			return nil, apperrors.ErrDuplicateCategoryName
		}
	}

	category := models.SnapshotCategory{
		ID:               fmt.Sprintf("snapshot_%s_%d", cycleID, s.now().UnixMilli()),
		Name:             input.Name,
		Icon:             input.Icon,
		Color:            input.Color,
		AllocationMethod: input.AllocationMethod,
		AllocationValue:  input.AllocationValue,
		SortOrder:        len(target.Snapshot.Categories),
	}

	updated := *target.Snapshot
	updated.Categories = append(append([]models.SnapshotCategory{}, target.Snapshot.Categories...), category)

	if err := s.db.Model(target).Update("snapshot", &updated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &category, nil
}

// getOrCreateCurrentCycle looks up the cycle covering now and creates it
// if missing. Before creating, the immediately preceding cycle is
// snapshotted if present and still open, in that order, so a crash between
// the two steps re-runs both idempotently on the next request.
func (s *cycleService) getOrCreateCurrentCycle(budget *models.Budget, cfg cycle.Config, bounds cycle.Bounds) (*models.BudgetCycle, error) {
	existing, err := s.findCycleByStart(budget.ID, bounds.Start)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrCycleNotFound) {
		return nil, err
	}

	previousBounds, err := cycle.PreviousBounds(bounds.Start, cfg)
	if err != nil {
		return nil, err
	}
	previous, err := s.findCycleByStart(budget.ID, previousBounds.Start)
	if err != nil && !errors.Is(err, apperrors.ErrCycleNotFound) {
		return nil, err
	}
	if previous != nil && !previous.HasSnapshot() {
		if err := s.snapshotCycle(budget.ID, previous); err != nil {
			return nil, err
		}
	}

	created := &models.BudgetCycle{
		BudgetID:  budget.ID,
		StartDate: bounds.Start,
		EndDate:   bounds.End,
	}
	if err := s.db.Create(created).Error; err != nil {
		// A concurrent request created the same cycle first; the unique
		// (budget_id, start_date) index makes the race benign.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.findCycleByStart(budget.ID, bounds.Start)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created, nil
}

// snapshotCycle builds and persists the snapshot for a completed cycle.
// The write is guarded with "snapshot IS NULL" so snapshots are
// write-once: the second of two concurrent writers is a no-op.
func (s *cycleService) snapshotCycle(budgetID string, target *models.BudgetCycle) error {
	snapshot, err := s.buildSnapshot(budgetID, target.StartDate, target.EndDate)
	if err != nil {
		return err
	}

	result := s.db.Model(&models.BudgetCycle{}).
		Where("id = ? AND snapshot IS NULL", target.ID).
		Update("snapshot", snapshot)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		logger.Get().Debugw("cycle already snapshotted by a concurrent request", "cycle_id", target.ID)
	}
	return nil
}

// buildSnapshot materializes the immutable summary of a cycle: the
// budget's configuration and categories as they are right now, plus
// aggregated spending for the cycle window.
func (s *cycleService) buildSnapshot(budgetID string, cycleStart, cycleEnd time.Time) (*models.Snapshot, error) {
	var budget models.Budget
	if err := s.db.First(&budget, "id = ?", budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.db.Where("budget_id = ?", budgetID).Order("sort_order asc").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	SortRemainingLast(categories)

	expenses, err := s.cycleExpenses(budgetID, cycleStart, cycleEnd)
	if err != nil {
		return nil, err
	}

	categoryTotals := make(map[string]int64)
	var totalSpent int64
	for _, expense := range expenses {
		// Total spend comes from parent amounts, not re-derived from
		// splits, to tolerate split/parent drift.
		totalSpent += expense.Amount
		for _, split := range expense.Splits {
			categoryTotals[split.CategoryID] += split.SpentAmount()
		}
	}

	snapshotCategories := make([]models.SnapshotCategory, 0, len(categories))
	for _, c := range categories {
		snapshotCategories = append(snapshotCategories, models.SnapshotCategory{
			ID:               c.ID,
			Name:             c.Name,
			Icon:             c.Icon,
			Color:            c.Color,
			AllocationMethod: c.AllocationMethod,
			AllocationValue:  c.AllocationValue,
			SortOrder:        c.SortOrder,
		})
	}

	return &models.Snapshot{
		SchemaVersion:  models.SnapshotSchemaVersion,
		BudgetTotal:    budget.TotalAmount,
		Currency:       budget.Currency,
		Locale:         budget.Locale,
		Categories:     snapshotCategories,
		TotalSpent:     totalSpent,
		CategoryTotals: categoryTotals,
	}, nil
}

// liveTotals aggregates spending from live expense data for a cycle window.
func (s *cycleService) liveTotals(budgetID string, start, end time.Time) (map[string]int64, int64, error) {
	expenses, err := s.cycleExpenses(budgetID, start, end)
	if err != nil {
		return nil, 0, err
	}

	totals := make(map[string]int64)
	var totalSpent int64
	for _, expense := range expenses {
		totalSpent += expense.Amount
		for _, split := range expense.Splits {
			totals[split.CategoryID] += split.SpentAmount()
		}
	}
	return totals, totalSpent, nil
}

func (s *cycleService) cycleExpenses(budgetID string, start, end time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.Preload("Splits").
		Where("budget_id = ? AND date >= ? AND date <= ?", budgetID, start, end).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

func (s *cycleService) findCycleByID(budgetID, cycleID string) (*models.BudgetCycle, error) {
	var target models.BudgetCycle
	err := s.db.Where("id = ? AND budget_id = ?", cycleID, budgetID).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCycleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &target, nil
}

func (s *cycleService) findCycleByStart(budgetID string, start time.Time) (*models.BudgetCycle, error) {
	var target models.BudgetCycle
	err := s.db.Where("budget_id = ? AND start_date = ?", budgetID, start).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCycleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &target, nil
}
