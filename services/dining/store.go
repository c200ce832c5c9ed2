package dining

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"nutribruin-backend/services/dining/db"

	_ "modernc.org/sqlite"
)

// Store is the durable source of truth for menu items, recipe masters
// and weekly templates. Cache tiers in front of it may lag, never lead.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// SaveMenuItems upserts each item on its (name, restaurant, date)
// identity inside one transaction and returns the number written.
// Re-running a scrape converges instead of duplicating rows.
func (s Store) SaveMenuItems(ctx context.Context, items []MenuItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	now := time.Now().Unix()
	saved := 0
	for _, item := range items {
		tags, err := json.Marshal(item.DietaryTags)
		if err != nil {
			return saved, err
		}
		nutrition, err := json.Marshal(item.Nutrition)
		if err != nil {
			return saved, err
		}

		err = txqry.UpsertMenuItem(ctx, db.UpsertMenuItemParams{
			Name:           item.Name,
			ServingSize:    item.ServingSize,
			ServingSizeOz:  item.ServingSizeOz,
			Restaurant:     item.Restaurant,
			RestaurantType: string(item.RestaurantType),
			Category:       item.Category,
			Station:        item.Station,
			DietaryTags:    string(tags),
			Nutrition:      string(nutrition),
			Date:           item.Date,
			MealPeriod:     item.MealPeriod,
			UpdatedAt:      now,
		})
		if err != nil {
			return saved, err
		}
		saved++
	}

	return saved, tx.Commit()
}

func (s Store) MenuItemsFor(ctx context.Context, restaurant, date string) ([]MenuItem, error) {
	rows, err := s.qry.ListMenuItems(ctx, restaurant, date)
	if err != nil {
		return nil, err
	}

	items := make([]MenuItem, 0, len(rows))
	for _, r := range rows {
		item := MenuItem{
			Name:           r.Name,
			ServingSize:    r.ServingSize,
			ServingSizeOz:  r.ServingSizeOz,
			Restaurant:     r.Restaurant,
			RestaurantType: RestaurantType(r.RestaurantType),
			Category:       r.Category,
			Station:        r.Station,
			Date:           r.Date,
			MealPeriod:     r.MealPeriod,
		}
		if err := json.Unmarshal([]byte(r.DietaryTags), &item.DietaryTags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(r.Nutrition), &item.Nutrition); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetRecipe returns nil without error when the recipe identifier is
// not in the durable store.
func (s Store) GetRecipe(ctx context.Context, recipeID string) (*RecipeMaster, error) {
	row, err := s.qry.GetRecipeMaster(ctx, recipeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	recipe := &RecipeMaster{
		RecipeID:      row.RecipeID,
		Name:          row.Name,
		ServingSize:   row.ServingSize,
		ServingSizeOz: row.ServingSizeOz,
		LastUpdated:   time.Unix(row.LastUpdated, 0),
	}
	if err := json.Unmarshal([]byte(row.Nutrition), &recipe.Nutrition); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.DietaryTags), &recipe.DietaryTags); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s Store) SaveRecipe(ctx context.Context, recipe RecipeMaster) error {
	nutrition, err := json.Marshal(recipe.Nutrition)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(recipe.DietaryTags)
	if err != nil {
		return err
	}

	return s.qry.UpsertRecipeMaster(ctx, db.UpsertRecipeMasterParams{
		RecipeID:      recipe.RecipeID,
		Name:          recipe.Name,
		ServingSize:   recipe.ServingSize,
		ServingSizeOz: recipe.ServingSizeOz,
		Nutrition:     string(nutrition),
		DietaryTags:   string(tags),
		LastUpdated:   recipe.LastUpdated.Unix(),
	})
}

func (s Store) GetTemplate(ctx context.Context, restaurant string, dayOfWeek int) (*WeeklyTemplate, error) {
	row, err := s.qry.GetWeeklyTemplate(ctx, restaurant, int64(dayOfWeek))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	template := &WeeklyTemplate{
		Restaurant:  row.Restaurant,
		DayOfWeek:   int(row.DayOfWeek),
		LastUpdated: time.Unix(row.LastUpdated, 0),
	}
	if err := json.Unmarshal([]byte(row.MealPeriods), &template.MealPeriods); err != nil {
		return nil, err
	}
	return template, nil
}

func (s Store) UpsertTemplate(ctx context.Context, template WeeklyTemplate) error {
	periods, err := json.Marshal(template.MealPeriods)
	if err != nil {
		return err
	}

	return s.qry.UpsertWeeklyTemplate(ctx, db.UpsertWeeklyTemplateParams{
		Restaurant:  template.Restaurant,
		DayOfWeek:   int64(template.DayOfWeek),
		MealPeriods: string(periods),
		LastUpdated: template.LastUpdated.Unix(),
	})
}

func (s Store) CountRecipes(ctx context.Context) (int64, error) {
	return s.qry.CountRecipeMasters(ctx)
}

func (s Store) CountTemplates(ctx context.Context) (int64, error) {
	return s.qry.CountWeeklyTemplates(ctx)
}

func (s Store) CountMenuItemsOn(ctx context.Context, date string) (int64, error) {
	return s.qry.CountMenuItemsOnDate(ctx, date)
}
