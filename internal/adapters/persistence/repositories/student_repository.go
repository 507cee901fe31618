package repositories

import (
	"context"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// studentRepository implements StudentRepository interface
// This is READ-ONLY access to the campus_students registry table
type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student registry repository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// GetByStudentNo gets a student record from the campus registry
func (r *studentRepository) GetByStudentNo(ctx context.Context, studentNo string) (*models.StudentRecord, error) {
	var student models.StudentRecord
	err := r.db.WithContext(ctx).
		Where("student_no = ?", studentNo).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Exists checks if a student exists in the campus registry
func (r *studentRepository) Exists(ctx context.Context, studentNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudentRecord{}).
		Where("student_no = ?", studentNo).
		Count(&count).Error
	return count > 0, err
}

// Search searches students by name or student number
func (r *studentRepository) Search(ctx context.Context, query string, limit int) ([]*models.StudentRecord, error) {
	var students []*models.StudentRecord
	searchQuery := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("student_no LIKE ? OR full_name LIKE ?", searchQuery, searchQuery).
		Limit(limit).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}
