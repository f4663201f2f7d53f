package database

import (
	"context"
	"strings"

	"github.com/rpupo63/foodgram-backend/models"
	"gorm.io/gorm"
)

type IngredientRepo struct {
	db *gorm.DB
}

func NewIngredientRepo(db *gorm.DB) *IngredientRepo {
	return &IngredientRepo{db}
}

// Search returns ingredients whose name starts with prefix, case-insensitively.
// An empty prefix returns the whole catalog.
func (r *IngredientRepo) Search(ctx context.Context, prefix string) ([]*models.Ingredient, error) {
	q := r.db.WithContext(ctx).Order("name").Order("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where("name_lower LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []*models.Ingredient
	err := q.Find(&ingredients).Error
	return ingredients, err
}

// FindByID returns an ingredient by its ID
func (r *IngredientRepo) FindByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// FindByIDs returns the ingredients with the given ids keyed by id.
// Missing ids are simply absent from the map.
func (r *IngredientRepo) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Ingredient, error) {
	found := make(map[uint]models.Ingredient, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var ingredients []models.Ingredient
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	for _, ingredient := range ingredients {
		found[ingredient.ID] = ingredient
	}
	return found, nil
}

// Add inserts a new ingredient into the database
func (r *IngredientRepo) Add(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

type TagRepo struct {
	db *gorm.DB
}

func NewTagRepo(db *gorm.DB) *TagRepo {
	return &TagRepo{db}
}

// FindAll returns all tags from the database
func (r *TagRepo) FindAll(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.WithContext(ctx).Order("id").Find(&tags).Error
	return tags, err
}

// FindByID returns a tag by its ID
func (r *TagRepo) FindByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByIDs returns the tags with the given ids keyed by id
func (r *TagRepo) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Tag, error) {
	found := make(map[uint]models.Tag, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var tags []models.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	for _, tag := range tags {
		found[tag.ID] = tag
	}
	return found, nil
}

// Add inserts a new tag into the database
func (r *TagRepo) Add(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
