package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/models"
	"github.com/fathima-sithara/contacts-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// birthdayWindowDays is the length of the rolling forward window: today plus
// the following six calendar days.
const birthdayWindowDays = 7

type contactService struct {
	repo repository.ContactRepository
	now  func() time.Time
}

func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactService{repo: repo, now: time.Now}
}

// Create binds the owner from the authenticated identity; the input carries
// no owner field a client could set.
func (s *contactService) Create(ctx context.Context, owner primitive.ObjectID, in ContactInput) (*models.Contact, error) {
	contact := &models.Contact{
		OwnerID:    owner,
		FirstName:  in.FirstName,
		SecondName: in.SecondName,
		Email:      in.Email,
		Birthday:   in.Birthday.UTC(),
		AddInfo:    in.AddInfo,
	}
	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", ErrInternal)
	}
	return created, nil
}

func (s *contactService) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Contact, error) {
	contact, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, mapContactErr(err)
	}
	return contact, nil
}

func (s *contactService) List(ctx context.Context, owner primitive.ObjectID, limit, offset int64) ([]models.Contact, error) {
	contacts, err := s.repo.List(ctx, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", ErrInternal)
	}
	return contacts, nil
}

// Update overwrites all mutable fields together; partial patches are not
// supported.
func (s *contactService) Update(ctx context.Context, owner, id primitive.ObjectID, in ContactInput) (*models.Contact, error) {
	contact := &models.Contact{
		FirstName:  in.FirstName,
		SecondName: in.SecondName,
		Email:      in.Email,
		Birthday:   in.Birthday.UTC(),
		AddInfo:    in.AddInfo,
	}
	updated, err := s.repo.Update(ctx, owner, id, contact)
	if err != nil {
		return nil, mapContactErr(err)
	}
	return updated, nil
}

func (s *contactService) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return mapContactErr(err)
	}
	return nil
}

func (s *contactService) Search(ctx context.Context, owner primitive.ObjectID, f repository.ContactFilter) ([]models.Contact, error) {
	contacts, err := s.repo.Search(ctx, owner, f)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", ErrInternal)
	}
	return contacts, nil
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls on one
// of the next seven calendar days, starting today.
func (s *contactService) UpcomingBirthdays(ctx context.Context, owner primitive.ObjectID) ([]models.Contact, error) {
	window := birthdayWindow(s.now(), birthdayWindowDays)
	contacts, err := s.repo.UpcomingBirthdays(ctx, owner, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthdays: %w", ErrInternal)
	}
	return contacts, nil
}

// birthdayWindow lists the (month, day) pairs of `days` consecutive calendar
// days starting at `start`. Walking real dates keeps the window correct
// across month and year rollovers.
func birthdayWindow(start time.Time, days int) []repository.MonthDay {
	window := make([]repository.MonthDay, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		window = append(window, repository.MonthDay{Month: d.Month(), Day: d.Day()})
	}
	return window
}

func mapContactErr(err error) error {
	if errors.Is(err, repository.ErrContactNotFound) {
		return ErrContactNotFound
	}
	return fmt.Errorf("contact store error: %w", ErrInternal)
}
