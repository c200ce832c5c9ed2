package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nutribruin-backend/services/dining"
)

// TemplateStore caches weekly menu templates in a run-local map in
// front of the durable store. Menus repeat on a weekly cycle, so a
// known (restaurant, day-of-week) structure lets a later scrape skip
// the full page parse and only refresh nutrition through the recipe
// cache.
type TemplateStore struct {
	store dining.Store

	mu    sync.Mutex
	local map[string]*dining.WeeklyTemplate
}

func NewTemplateStore(store dining.Store) *TemplateStore {
	return &TemplateStore{
		store: store,
		local: map[string]*dining.WeeklyTemplate{},
	}
}

func templateKey(restaurant string, dayOfWeek int) string {
	return fmt.Sprintf("%s-%d", restaurant, dayOfWeek)
}

// Get returns nil without error when no template exists for the pair.
func (t *TemplateStore) Get(ctx context.Context, restaurant string, dayOfWeek int) (*dining.WeeklyTemplate, error) {
	key := templateKey(restaurant, dayOfWeek)

	t.mu.Lock()
	cached, hit := t.local[key]
	t.mu.Unlock()
	if hit {
		return cached, nil
	}

	template, err := t.store.GetTemplate(ctx, restaurant, dayOfWeek)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}

	t.mu.Lock()
	t.local[key] = template
	t.mu.Unlock()
	return template, nil
}

// Upsert flattens a freshly parsed structure into the station ->
// recipe-id shape and overwrites any prior template for the pair.
// Only identifiers accepted by resolvable are recorded, so a replayed
// template never references a recipe that failed nutrition parsing.
// Returns false when nothing resolvable was left to record.
func (t *TemplateStore) Upsert(ctx context.Context, restaurant string, dayOfWeek int, structure MenuStructure, resolvable func(recipeID string) bool) (bool, error) {
	mealPeriods := map[string]map[string][]string{}
	total := 0
	for period, stations := range structure.MealPeriods {
		for station, items := range stations {
			for _, item := range items {
				if !resolvable(item.RecipeID) {
					continue
				}
				if mealPeriods[period] == nil {
					mealPeriods[period] = map[string][]string{}
				}
				mealPeriods[period][station] = append(mealPeriods[period][station], item.RecipeID)
				total++
			}
		}
	}
	if total == 0 {
		return false, nil
	}

	template := &dining.WeeklyTemplate{
		Restaurant:  restaurant,
		DayOfWeek:   dayOfWeek,
		MealPeriods: mealPeriods,
		LastUpdated: time.Now(),
	}
	err := t.store.UpsertTemplate(ctx, *template)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	t.local[templateKey(restaurant, dayOfWeek)] = template
	t.mu.Unlock()
	return true, nil
}
