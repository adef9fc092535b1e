package keepsake

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jun/babymemories/internal/model"
)

const defaultMilestoneIcon = "fa-star"

// Milestones lists the timeline in date order.
func (s *Service) Milestones(ctx context.Context) ([]model.Milestone, error) {
	milestones, err := s.milestones.Load(ctx, MilestonesKey, DefaultMilestones)
	if err != nil {
		return nil, err
	}
	sortMilestones(milestones)
	return milestones, nil
}

// AddMilestone inserts m into the timeline. Date must be YYYY-MM-DD and the
// title is required.
func (s *Service) AddMilestone(ctx context.Context, m model.Milestone) (model.Milestone, error) {
	m.Date = strings.TrimSpace(m.Date)
	m.Title = strings.TrimSpace(m.Title)
	if !validDate(m.Date) {
		return model.Milestone{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}
	if m.Title == "" {
		return model.Milestone{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if m.Icon == "" {
		m.Icon = defaultMilestoneIcon
	}
	m.ID = uuid.New().String()

	_, err := s.milestones.Update(ctx, MilestonesKey, DefaultMilestones, func(milestones *[]model.Milestone) error {
		*milestones = append(*milestones, m)
		sortMilestones(*milestones)
		return nil
	})
	if err != nil {
		return model.Milestone{}, err
	}
	return m, nil
}

// sortMilestones orders by date. YYYY-MM-DD sorts lexically; equal dates
// keep insertion order.
func sortMilestones(milestones []model.Milestone) {
	sort.SliceStable(milestones, func(i, j int) bool {
		return milestones[i].Date < milestones[j].Date
	})
}

// DefaultMilestones is the seed used before anything was stored.
func DefaultMilestones() []model.Milestone {
	return []model.Milestone{
		{ID: "1", Date: "2024-01-01", Title: "宝宝出生", Description: "体重：3.2kg，身长：50cm", Icon: "fa-baby"},
		{ID: "2", Date: "2024-03-15", Title: "第一次微笑", Description: "宝宝第一次对妈妈露出了甜美的微笑", Icon: "fa-smile-o"},
		{ID: "3", Date: "2024-06-20", Title: "第一次爬行", Description: "宝宝学会了用手和膝盖爬行，开始探索世界", Icon: "fa-child"},
		{ID: "4", Date: "2024-09-01", Title: "第一次说话", Description: "宝宝第一次清晰地说出了\"妈妈\"", Icon: "fa-comment-o"},
	}
}
