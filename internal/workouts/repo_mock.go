package workouts

import (
	"context"
	"sort"
	"sync"
)

type repoMock struct {
	mutex    sync.Mutex
	workouts map[int]Workout
	nextID   int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		workouts: make(map[int]Workout),
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	workout.ID = r.nextID
	r.nextID++
	for i := range workout.Sets {
		workout.Sets[i].ID = r.nextID
		r.nextID++
		workout.Sets[i].WorkoutID = workout.ID
	}
	r.workouts[workout.ID] = workout
	return &workout, nil
}

func (r *repoMock) Update(_ context.Context, workout Workout) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	existing, ok := r.workouts[workout.ID]
	if !ok {
		return ErrWorkoutNotFound
	}
	existing.Date = workout.Date
	existing.Sets = nil
	for i := range workout.Sets {
		workout.Sets[i].ID = r.nextID
		r.nextID++
		workout.Sets[i].WorkoutID = workout.ID
		existing.Sets = append(existing.Sets, workout.Sets[i])
	}
	r.workouts[workout.ID] = existing
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.workouts[id]; !ok {
		return ErrWorkoutNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	workout, ok := r.workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	return &workout, nil
}

func (r *repoMock) ListByUser(_ context.Context, userID int) ([]Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var workouts []Workout
	for _, w := range r.workouts {
		if w.UserID == userID {
			workouts = append(workouts, w)
		}
	}
	sort.Slice(workouts, func(i, j int) bool {
		if !workouts[i].Date.Equal(workouts[j].Date) {
			return workouts[i].Date.After(workouts[j].Date)
		}
		return workouts[i].ID > workouts[j].ID
	})
	return workouts, nil
}
