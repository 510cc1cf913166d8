package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Skotchmaster/security_backend/internal/models"
)

// StudentRegistry is the in-memory demo list. It is not persisted.
type StudentRegistry struct {
	mu       sync.RWMutex
	students []models.Student
}

func NewStudentRegistry() *StudentRegistry {
	return &StudentRegistry{students: []models.Student{
		{ID: 1, Name: "Navin", Marks: 60},
		{ID: 2, Name: "Kiran", Marks: 65},
	}}
}

func (r *StudentRegistry) List(_ context.Context) []models.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Student, len(r.students))
	copy(out, r.students)
	return out
}

func (r *StudentRegistry) Add(_ context.Context, s models.Student) (models.Student, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return models.Student{}, fmt.Errorf("%w: student name is required", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.students = append(r.students, s)
	return s, nil
}
