package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeContactRepo struct {
	mu       sync.Mutex
	contacts map[primitive.ObjectID]*models.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: make(map[primitive.ObjectID]*models.Contact)}
}

func (r *fakeContactRepo) Create(_ context.Context, c *models.Contact) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.ID = primitive.NewObjectID()
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	r.contacts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, owner, id primitive.ObjectID) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.OwnerID != owner {
		return nil, repository.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) List(_ context.Context, owner primitive.ObjectID, limit, offset int64) ([]models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Contact{}
	for _, c := range r.contacts {
		if c.OwnerID == owner {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeContactRepo) Update(_ context.Context, owner, id primitive.ObjectID, in *models.Contact) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.OwnerID != owner {
		return nil, repository.ErrContactNotFound
	}
	c.FirstName = in.FirstName
	c.SecondName = in.SecondName
	c.Email = in.Email
	c.Birthday = in.Birthday
	c.AddInfo = in.AddInfo
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) Delete(_ context.Context, owner, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.OwnerID != owner {
		return repository.ErrContactNotFound
	}
	delete(r.contacts, id)
	return nil
}

func (r *fakeContactRepo) Search(_ context.Context, owner primitive.ObjectID, f repository.ContactFilter) ([]models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Contact{}
	for _, c := range r.contacts {
		if c.OwnerID != owner {
			continue
		}
		if f.FirstName != "" && c.FirstName != f.FirstName {
			continue
		}
		if f.SecondName != "" && c.SecondName != f.SecondName {
			continue
		}
		if f.Email != "" && c.Email != f.Email {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeContactRepo) UpcomingBirthdays(_ context.Context, owner primitive.ObjectID, window []repository.MonthDay) ([]models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Contact{}
	for _, c := range r.contacts {
		if c.OwnerID != owner {
			continue
		}
		for _, md := range window {
			if c.Birthday.Month() == md.Month && c.Birthday.Day() == md.Day {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func birthdayInput(name string, birthday time.Time) ContactInput {
	return ContactInput{
		FirstName:  name,
		SecondName: "Wilson",
		Email:      name + "@example.com",
		Birthday:   birthday,
	}
}

func TestContactOwnerBinding(t *testing.T) {
	repo := newFakeContactRepo()
	svc := NewContactService(repo)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, birthdayInput("wade", time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerID)
}

func TestContactOwnerIsolation(t *testing.T) {
	repo := newFakeContactRepo()
	svc := NewContactService(repo)
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	created, err := svc.Create(ctx, alice, birthdayInput("wade", time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	// bob cannot read, update or delete alice's contact
	_, err = svc.Get(ctx, bob, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)
	_, err = svc.Update(ctx, bob, created.ID, birthdayInput("hijack", time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)))
	assert.ErrorIs(t, err, ErrContactNotFound)
	err = svc.Delete(ctx, bob, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)

	// bob's listing is empty, alice still sees hers
	bobs, err := svc.List(ctx, bob, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, bobs)
	own, err := svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "wade", own.FirstName)
}

func TestContactUpdateAndDelete(t *testing.T) {
	repo := newFakeContactRepo()
	svc := NewContactService(repo)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	created, err := svc.Create(ctx, owner, birthdayInput("wade", time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, created.ID, ContactInput{
		FirstName:  "Wade",
		SecondName: "Wilson",
		Email:      "wade@example.com",
		Birthday:   time.Date(1991, 6, 21, 0, 0, 0, 0, time.UTC),
		AddInfo:    "mercenary",
	})
	require.NoError(t, err)
	assert.Equal(t, "Wade", updated.FirstName)
	assert.Equal(t, "mercenary", updated.AddInfo)
	assert.Equal(t, time.Date(1991, 6, 21, 0, 0, 0, 0, time.UTC), updated.Birthday)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	_, err = svc.Get(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)

	err = svc.Delete(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactSearch(t *testing.T) {
	repo := newFakeContactRepo()
	svc := NewContactService(repo)
	ctx := context.Background()
	owner := primitive.NewObjectID()

	_, err := svc.Create(ctx, owner, birthdayInput("wade", time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, birthdayInput("logan", time.Date(1985, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	found, err := svc.Search(ctx, owner, repository.ContactFilter{FirstName: "wade"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "wade@example.com", found[0].Email)

	none, err := svc.Search(ctx, owner, repository.ContactFilter{FirstName: "wade", Email: "logan@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpcomingBirthdays(t *testing.T) {
	repo := newFakeContactRepo()
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	svc := &contactService{repo: repo, now: func() time.Time { return now }}
	ctx := context.Background()
	owner := primitive.NewObjectID()

	// birth years differ deliberately: only month/day count
	inWindow, err := svc.Create(ctx, owner, birthdayInput("today", time.Date(1990, 4, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	lastDay, err := svc.Create(ctx, owner, birthdayInput("edge", time.Date(1975, 4, 16, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, birthdayInput("outside", time.Date(1990, 4, 17, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	got, err := svc.UpcomingBirthdays(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []primitive.ObjectID{got[0].ID, got[1].ID}
	assert.Contains(t, ids, inWindow.ID)
	assert.Contains(t, ids, lastDay.ID)
}

func TestBirthdayWindowRollover(t *testing.T) {
	t.Run("plain week", func(t *testing.T) {
		w := birthdayWindow(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 7)
		require.Len(t, w, 7)
		assert.Equal(t, repository.MonthDay{Month: time.May, Day: 1}, w[0])
		assert.Equal(t, repository.MonthDay{Month: time.May, Day: 7}, w[6])
	})

	t.Run("month rollover", func(t *testing.T) {
		w := birthdayWindow(time.Date(2023, 1, 29, 0, 0, 0, 0, time.UTC), 7)
		require.Len(t, w, 7)
		assert.Equal(t, repository.MonthDay{Month: time.January, Day: 31}, w[2])
		assert.Equal(t, repository.MonthDay{Month: time.February, Day: 1}, w[3])
		assert.Equal(t, repository.MonthDay{Month: time.February, Day: 4}, w[6])
	})

	t.Run("year rollover", func(t *testing.T) {
		w := birthdayWindow(time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC), 7)
		require.Len(t, w, 7)
		assert.Equal(t, repository.MonthDay{Month: time.December, Day: 31}, w[1])
		assert.Equal(t, repository.MonthDay{Month: time.January, Day: 1}, w[2])
		assert.Equal(t, repository.MonthDay{Month: time.January, Day: 5}, w[6])
	})

	t.Run("leap february", func(t *testing.T) {
		w := birthdayWindow(time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC), 7)
		assert.Equal(t, repository.MonthDay{Month: time.February, Day: 29}, w[2])
		assert.Equal(t, repository.MonthDay{Month: time.March, Day: 1}, w[3])
	})
}
