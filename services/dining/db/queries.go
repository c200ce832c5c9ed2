package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertMenuItem = `
INSERT INTO menu_items (
    name, serving_size, serving_size_oz, restaurant, restaurant_type,
    category, station, dietary_tags, nutrition, date, meal_period, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name, restaurant, date) DO UPDATE SET
    serving_size = excluded.serving_size,
    serving_size_oz = excluded.serving_size_oz,
    restaurant_type = excluded.restaurant_type,
    category = excluded.category,
    station = excluded.station,
    dietary_tags = excluded.dietary_tags,
    nutrition = excluded.nutrition,
    meal_period = excluded.meal_period,
    updated_at = excluded.updated_at
`

type UpsertMenuItemParams struct {
	Name           string
	ServingSize    string
	ServingSizeOz  float64
	Restaurant     string
	RestaurantType string
	Category       string
	Station        string
	DietaryTags    string
	Nutrition      string
	Date           string
	MealPeriod     string
	UpdatedAt      int64
}

func (q *Queries) UpsertMenuItem(ctx context.Context, arg UpsertMenuItemParams) error {
	_, err := q.db.ExecContext(ctx, upsertMenuItem,
		arg.Name,
		arg.ServingSize,
		arg.ServingSizeOz,
		arg.Restaurant,
		arg.RestaurantType,
		arg.Category,
		arg.Station,
		arg.DietaryTags,
		arg.Nutrition,
		arg.Date,
		arg.MealPeriod,
		arg.UpdatedAt,
	)
	return err
}

const listMenuItems = `
SELECT name, serving_size, serving_size_oz, restaurant, restaurant_type,
    category, station, dietary_tags, nutrition, date, meal_period
FROM menu_items
WHERE restaurant = ? AND date = ?
ORDER BY category, name
`

type MenuItemRow struct {
	Name           string
	ServingSize    string
	ServingSizeOz  float64
	Restaurant     string
	RestaurantType string
	Category       string
	Station        string
	DietaryTags    string
	Nutrition      string
	Date           string
	MealPeriod     string
}

func (q *Queries) ListMenuItems(ctx context.Context, restaurant, date string) ([]MenuItemRow, error) {
	rows, err := q.db.QueryContext(ctx, listMenuItems, restaurant, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItemRow
	for rows.Next() {
		var r MenuItemRow
		err := rows.Scan(
			&r.Name,
			&r.ServingSize,
			&r.ServingSizeOz,
			&r.Restaurant,
			&r.RestaurantType,
			&r.Category,
			&r.Station,
			&r.DietaryTags,
			&r.Nutrition,
			&r.Date,
			&r.MealPeriod,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const countMenuItemsOnDate = `
SELECT COUNT(*) FROM menu_items WHERE date = ?
`

func (q *Queries) CountMenuItemsOnDate(ctx context.Context, date string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countMenuItemsOnDate, date).Scan(&count)
	return count, err
}

const getRecipeMaster = `
SELECT recipe_id, name, serving_size, serving_size_oz, nutrition, dietary_tags, last_updated
FROM recipe_masters
WHERE recipe_id = ?
`

type RecipeMasterRow struct {
	RecipeID      string
	Name          string
	ServingSize   string
	ServingSizeOz float64
	Nutrition     string
	DietaryTags   string
	LastUpdated   int64
}

func (q *Queries) GetRecipeMaster(ctx context.Context, recipeID string) (RecipeMasterRow, error) {
	var r RecipeMasterRow
	err := q.db.QueryRowContext(ctx, getRecipeMaster, recipeID).Scan(
		&r.RecipeID,
		&r.Name,
		&r.ServingSize,
		&r.ServingSizeOz,
		&r.Nutrition,
		&r.DietaryTags,
		&r.LastUpdated,
	)
	return r, err
}

const upsertRecipeMaster = `
INSERT INTO recipe_masters (
    recipe_id, name, serving_size, serving_size_oz, nutrition, dietary_tags, last_updated
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (recipe_id) DO UPDATE SET
    name = excluded.name,
    serving_size = excluded.serving_size,
    serving_size_oz = excluded.serving_size_oz,
    nutrition = excluded.nutrition,
    dietary_tags = excluded.dietary_tags,
    last_updated = excluded.last_updated
`

type UpsertRecipeMasterParams struct {
	RecipeID      string
	Name          string
	ServingSize   string
	ServingSizeOz float64
	Nutrition     string
	DietaryTags   string
	LastUpdated   int64
}

func (q *Queries) UpsertRecipeMaster(ctx context.Context, arg UpsertRecipeMasterParams) error {
	_, err := q.db.ExecContext(ctx, upsertRecipeMaster,
		arg.RecipeID,
		arg.Name,
		arg.ServingSize,
		arg.ServingSizeOz,
		arg.Nutrition,
		arg.DietaryTags,
		arg.LastUpdated,
	)
	return err
}

const countRecipeMasters = `
SELECT COUNT(*) FROM recipe_masters
`

func (q *Queries) CountRecipeMasters(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRecipeMasters).Scan(&count)
	return count, err
}

const getWeeklyTemplate = `
SELECT restaurant, day_of_week, meal_periods, last_updated
FROM weekly_templates
WHERE restaurant = ? AND day_of_week = ?
`

type WeeklyTemplateRow struct {
	Restaurant  string
	DayOfWeek   int64
	MealPeriods string
	LastUpdated int64
}

func (q *Queries) GetWeeklyTemplate(ctx context.Context, restaurant string, dayOfWeek int64) (WeeklyTemplateRow, error) {
	var r WeeklyTemplateRow
	err := q.db.QueryRowContext(ctx, getWeeklyTemplate, restaurant, dayOfWeek).Scan(
		&r.Restaurant,
		&r.DayOfWeek,
		&r.MealPeriods,
		&r.LastUpdated,
	)
	return r, err
}

const upsertWeeklyTemplate = `
INSERT INTO weekly_templates (restaurant, day_of_week, meal_periods, last_updated)
VALUES (?, ?, ?, ?)
ON CONFLICT (restaurant, day_of_week) DO UPDATE SET
    meal_periods = excluded.meal_periods,
    last_updated = excluded.last_updated
`

type UpsertWeeklyTemplateParams struct {
	Restaurant  string
	DayOfWeek   int64
	MealPeriods string
	LastUpdated int64
}

func (q *Queries) UpsertWeeklyTemplate(ctx context.Context, arg UpsertWeeklyTemplateParams) error {
	_, err := q.db.ExecContext(ctx, upsertWeeklyTemplate,
		arg.Restaurant,
		arg.DayOfWeek,
		arg.MealPeriods,
		arg.LastUpdated,
	)
	return err
}

const countWeeklyTemplates = `
SELECT COUNT(*) FROM weekly_templates
`

func (q *Queries) CountWeeklyTemplates(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countWeeklyTemplates).Scan(&count)
	return count, err
}
