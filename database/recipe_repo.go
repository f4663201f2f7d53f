package database

import (
	"context"

	"github.com/rpupo63/foodgram-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	favoritedExistsSQL = "EXISTS (SELECT 1 FROM favorite_recipes fr WHERE fr.recipe_id = recipes.id AND fr.user_id = ?)"
	inCartExistsSQL    = "EXISTS (SELECT 1 FROM shopping_cart_recipes sc WHERE sc.recipe_id = recipes.id AND sc.user_id = ?)"
)

// RecipeFilter narrows a recipe listing. ViewerID is the requesting user, or
// zero for an anonymous request.
type RecipeFilter struct {
	ViewerID           uint
	AuthorID           uint
	TagSlugs           []string
	OnlyFavorited      bool
	OnlyInShoppingCart bool
}

type RecipeRepo struct {
	db *gorm.DB
}

func NewRecipeRepo(db *gorm.DB) *RecipeRepo {
	return &RecipeRepo{db}
}

// annotated selects recipes together with the per-viewer favorite and cart
// flags, computed as correlated EXISTS subqueries in the same statement.
func (r *RecipeRepo) annotated(ctx context.Context, viewerID uint) *gorm.DB {
	return annotate(r.db.WithContext(ctx), viewerID)
}

func annotate(db *gorm.DB, viewerID uint) *gorm.DB {
	q := db.Model(&models.Recipe{})
	if viewerID == 0 {
		return q.Select("recipes.*")
	}
	return q.Select(
		"recipes.*, "+favoritedExistsSQL+" AS is_favorited, "+inCartExistsSQL+" AS is_in_shopping_cart",
		viewerID, viewerID,
	)
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("IngredientAmounts", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredient_amounts.id") }).
		Preload("IngredientAmounts.Ingredient")
}

func applyFilter(q *gorm.DB, filter RecipeFilter) *gorm.DB {
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := q.Session(&gorm.Session{NewDB: true}).
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if filter.OnlyFavorited {
		if filter.ViewerID == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where(favoritedExistsSQL, filter.ViewerID)
		}
	}
	if filter.OnlyInShoppingCart {
		if filter.ViewerID == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where(inCartExistsSQL, filter.ViewerID)
		}
	}
	return q
}

// List returns one page of recipes, newest first, and the number of recipes
// matching filter.
func (r *RecipeRepo) List(ctx context.Context, filter RecipeFilter, page Page) ([]*models.Recipe, int64, error) {
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Recipe{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []*models.Recipe
	err := withDetails(applyFilter(r.annotated(ctx, filter.ViewerID), filter)).
		Order("recipes.id DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&recipes).Error
	return recipes, total, err
}

// FindByID returns a fully loaded recipe annotated for viewerID
func (r *RecipeRepo) FindByID(ctx context.Context, id uint, viewerID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withDetails(r.annotated(ctx, viewerID)).
		Where("recipes.id = ?", id).
		Take(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindFresh is FindByID for reading back a write. It runs inside a
// transaction, which keeps every statement on the primary even when read
// replicas are configured.
func (r *RecipeRepo) FindFresh(ctx context.Context, id uint, viewerID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return withDetails(annotate(tx, viewerID)).
			Where("recipes.id = ?", id).
			Take(&recipe).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindBare returns the recipe row alone, without associations
func (r *RecipeRepo) FindBare(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).Select("recipes.*").First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindByAuthor returns the newest recipes of an author. A non-positive limit
// returns all of them.
func (r *RecipeRepo) FindByAuthor(ctx context.Context, authorID uint, limit int) ([]*models.Recipe, error) {
	q := r.db.WithContext(ctx).
		Select("recipes.*").
		Where("author_id = ?", authorID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recipes []*models.Recipe
	err := q.Find(&recipes).Error
	return recipes, err
}

// CountByAuthors returns the number of recipes per author id
func (r *RecipeRepo) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

// Create inserts a recipe with its tag links and line items in one transaction
func (r *RecipeRepo) Create(ctx context.Context, recipe *models.Recipe, tagIDs []uint, items []models.RecipeIngredientAmount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, tagIDs); err != nil {
			return err
		}
		return replaceIngredientAmounts(tx, recipe.ID, items)
	})
}

// Update saves the scalar fields of recipe. Tag links and line items are
// replaced only when the corresponding argument is non-nil.
func (r *RecipeRepo) Update(ctx context.Context, recipe *models.Recipe, tagIDs []uint, items []models.RecipeIngredientAmount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Recipe{ID: recipe.ID}).
			Select("name", "image", "text", "cooking_time").
			Updates(map[string]any{
				"name":         recipe.Name,
				"image":        recipe.Image,
				"text":         recipe.Text,
				"cooking_time": recipe.CookingTime,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if tagIDs != nil {
			if err := replaceTags(tx, recipe.ID, tagIDs); err != nil {
				return err
			}
		}
		if items != nil {
			if err := replaceIngredientAmounts(tx, recipe.ID, items); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a recipe and every row that references it
func (r *RecipeRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		for _, dependent := range []any{
			&models.RecipeIngredientAmount{},
			&models.FavoriteRecipe{},
			&models.ShoppingCartRecipe{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.Recipe{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func replaceTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, map[string]any{"recipe_id": recipeID, "tag_id": tagID})
	}
	return tx.Table("recipe_tags").Create(rows).Error
}

func replaceIngredientAmounts(tx *gorm.DB, recipeID uint, items []models.RecipeIngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredientAmount{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredientAmount, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredientAmount{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}
