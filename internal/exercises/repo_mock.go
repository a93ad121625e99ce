package exercises

import (
	"context"
	"strings"
	"sync"
)

type repoMock struct {
	mutex     sync.Mutex
	exercises map[int]Exercise
	nextID    int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		exercises: make(map[int]Exercise),
		nextID:    1,
	}
}

func (r *repoMock) Seed(_ context.Context, catalog []Exercise) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, e := range catalog {
		if r.findByName(e.Name) != nil {
			continue
		}
		e.ID = r.nextID
		r.nextID++
		r.exercises[e.ID] = e
	}
	return nil
}

func (r *repoMock) Add(_ context.Context, exercise Exercise) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.findByName(exercise.Name) != nil {
		return nil, ErrExerciseExists
	}
	exercise.ID = r.nextID
	r.nextID++
	r.exercises[exercise.ID] = exercise
	return &exercise, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	return &exercise, nil
}

func (r *repoMock) List(_ context.Context) ([]Exercise, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	exercises := make([]Exercise, 0, len(r.exercises))
	for _, e := range r.exercises {
		exercises = append(exercises, e)
	}
	return exercises, nil
}

func (r *repoMock) MuscleGroups(_ context.Context) ([]string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	seen := map[string]bool{}
	var groups []string
	for _, e := range r.exercises {
		if !seen[e.MuscleGroup] {
			seen[e.MuscleGroup] = true
			groups = append(groups, e.MuscleGroup)
		}
	}
	return groups, nil
}

func (r *repoMock) findByName(name string) *Exercise {
	for _, e := range r.exercises {
		if strings.EqualFold(e.Name, name) {
			return &e
		}
	}
	return nil
}
