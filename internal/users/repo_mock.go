package users

import (
	"context"
	"sync"
	"time"
)

var _ usersRepo = (*repoMock)(nil)

type repoMock struct {
	Users  map[int]User
	nextID int
	mutex  sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Users:  map[int]User{},
		nextID: 1,
	}
}

func (r *repoMock) Add(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Username == user.Username {
			return nil, ErrUsernameTaken
		}
	}

	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = DefaultProfilePicture
	}
	r.Users[user.ID] = user
	return &user, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *repoMock) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) IsAdmin(ctx context.Context, id int) (bool, error) {
	user, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (r *repoMock) UpdateProfilePicture(_ context.Context, id int, pictureKey string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.Users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.ProfilePicture = pictureKey
	r.Users[id] = user
	return nil
}
