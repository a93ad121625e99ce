package strava

import (
	"context"
	"sort"
	"sync"
	"time"
)

type repoMock struct {
	mutex    sync.Mutex
	accounts map[int]Account
	workouts map[int64]ImportedWorkout
	nextID   int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		accounts: make(map[int]Account),
		workouts: make(map[int64]ImportedWorkout),
		nextID:   1,
	}
}

func (r *repoMock) SaveAccount(_ context.Context, account Account) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if existing, ok := r.accounts[account.UserID]; ok {
		account.ID = existing.ID
	} else {
		account.ID = r.nextID
		r.nextID++
	}
	r.accounts[account.UserID] = account
	return nil
}

func (r *repoMock) GetAccount(_ context.Context, userID int) (*Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (r *repoMock) DeleteAccount(_ context.Context, userID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.accounts[userID]; !ok {
		return ErrAccountNotFound
	}
	delete(r.accounts, userID)
	return nil
}

func (r *repoMock) SaveWorkout(_ context.Context, workout ImportedWorkout) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.workouts[workout.StravaID]; ok {
		return false, nil
	}
	workout.ID = r.nextID
	r.nextID++
	r.workouts[workout.StravaID] = workout
	return true, nil
}

func (r *repoMock) ListWorkouts(_ context.Context, userID int) ([]ImportedWorkout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var workouts []ImportedWorkout
	for _, w := range r.workouts {
		if w.UserID == userID {
			workouts = append(workouts, w)
		}
	}
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].StartDate.After(workouts[j].StartDate)
	})
	return workouts, nil
}

func (r *repoMock) LastStartDate(_ context.Context, userID int) (*time.Time, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var last *time.Time
	for _, w := range r.workouts {
		if w.UserID != userID {
			continue
		}
		if last == nil || w.StartDate.After(*last) {
			startDate := w.StartDate
			last = &startDate
		}
	}
	return last, nil
}
