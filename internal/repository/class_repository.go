package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"elearning/internal/model"
)

// ErrOrderMismatch is returned by Reorder when the given class ids are not
// exactly the classes of the course.
var ErrOrderMismatch = errors.New("order does not match the classes of the course")

// ClassRepository defines class persistence operations. Class numbers of a
// course always form the sequence 1..N.
type ClassRepository interface {
	// Create appends the class at the end of its course.
	Create(ctx context.Context, class *model.Class) error
	FindByID(ctx context.Context, id uint) (*model.Class, error)
	ListByCourse(ctx context.Context, routeID uint) ([]model.Class, error)
	Update(ctx context.Context, class *model.Class) error
	// Delete removes the class and closes the gap it leaves in the numbering.
	Delete(ctx context.Context, id uint) (*model.Class, error)
	// Reorder assigns new class numbers in one transaction. positions maps
	// class id to its new number.
	Reorder(ctx context.Context, routeID uint, positions map[uint]int) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&model.Class{}).
			Where("route_id = ?", class.RouteID).
			Select("COALESCE(MAX(class_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		class.ClassNumber = last + 1
		return tx.Omit("Course").Create(class).Error
	})
}

func (r *classRepository) FindByID(ctx context.Context, id uint) (*model.Class, error) {
	var class model.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) ListByCourse(ctx context.Context, routeID uint) ([]model.Class, error) {
	classes := []model.Class{}
	if err := r.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("class_number ASC").
		Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) Update(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Omit("Course").Save(class).Error
}

func (r *classRepository) Delete(ctx context.Context, id uint) (*model.Class, error) {
	var deleted model.Class
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Class{}, id).Error; err != nil {
			return err
		}

		// Park the later classes on negative numbers first so the unique
		// index never sees two classes on the same position.
		if err := tx.Model(&model.Class{}).
			Where("route_id = ? AND class_number > ?", deleted.RouteID, deleted.ClassNumber).
			Update("class_number", gorm.Expr("-(class_number - 1)")).Error; err != nil {
			return err
		}
		return unpark(tx, deleted.RouteID)
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (r *classRepository) Reorder(ctx context.Context, routeID uint, positions map[uint]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&model.Class{}).
			Where("route_id = ?", routeID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) != len(positions) {
			return ErrOrderMismatch
		}
		for _, id := range ids {
			if _, ok := positions[id]; !ok {
				return ErrOrderMismatch
			}
		}

		for id, number := range positions {
			if err := tx.Model(&model.Class{}).
				Where("id = ? AND route_id = ?", id, routeID).
				Update("class_number", -number).Error; err != nil {
				return err
			}
		}
		return unpark(tx, routeID)
	})
}

// unpark flips the parked negative class numbers of a course back to
// positive.
func unpark(tx *gorm.DB, routeID uint) error {
	return tx.Model(&model.Class{}).
		Where("route_id = ? AND class_number < 0", routeID).
		Update("class_number", gorm.Expr("-class_number")).Error
}
