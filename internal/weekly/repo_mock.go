package weekly

import (
	"context"
	"sort"
	"sync"
)

type repoMock struct {
	mutex  sync.Mutex
	weeks  map[int]WeeklyWorkout
	nextID int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		weeks:  make(map[int]WeeklyWorkout),
		nextID: 1,
	}
}

func (r *repoMock) Add(_ context.Context, week WeeklyWorkout) (*WeeklyWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	week.ID = r.nextID
	r.nextID++
	r.weeks[week.ID] = week
	return &week, nil
}

func (r *repoMock) Update(_ context.Context, week WeeklyWorkout) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.weeks[week.ID]; !ok {
		return ErrWeekNotFound
	}
	r.weeks[week.ID] = week
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.weeks[id]; !ok {
		return ErrWeekNotFound
	}
	delete(r.weeks, id)
	return nil
}

func (r *repoMock) Get(_ context.Context, id int) (*WeeklyWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	week, ok := r.weeks[id]
	if !ok {
		return nil, ErrWeekNotFound
	}
	return &week, nil
}

func (r *repoMock) Latest(_ context.Context) (*WeeklyWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	weeks := r.sortedLocked()
	if len(weeks) == 0 {
		return nil, ErrWeekNotFound
	}
	return &weeks[0], nil
}

func (r *repoMock) List(_ context.Context) ([]WeeklyWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.sortedLocked(), nil
}

func (r *repoMock) sortedLocked() []WeeklyWorkout {
	weeks := make([]WeeklyWorkout, 0, len(r.weeks))
	for _, w := range r.weeks {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool {
		if !weeks[i].WeekStartDate.Equal(weeks[j].WeekStartDate) {
			return weeks[i].WeekStartDate.After(weeks[j].WeekStartDate)
		}
		return weeks[i].ID > weeks[j].ID
	})
	return weeks
}
