package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrContactNotFound = errors.New("contact not found")

// ContactFilter holds the optional equality filters for Search. Empty fields
// are no-ops, not wildcards.
type ContactFilter struct {
	FirstName  string
	SecondName string
	Email      string
}

// MonthDay identifies one calendar day independent of year, used for the
// birthday window match.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ContactRepository scopes every operation to the owning user. The owner
// clause is part of the base filter, so no query can reach another owner's
// document even before further conditions apply.
type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) (*models.Contact, error)
	GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Contact, error)
	List(ctx context.Context, owner primitive.ObjectID, limit, offset int64) ([]models.Contact, error)
	Update(ctx context.Context, owner, id primitive.ObjectID, c *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, owner, id primitive.ObjectID) error
	Search(ctx context.Context, owner primitive.ObjectID, f ContactFilter) ([]models.Contact, error)
	UpcomingBirthdays(ctx context.Context, owner primitive.ObjectID, window []MonthDay) ([]models.Contact, error)
}

type mongoContactRepo struct {
	col *mongo.Collection
}

func NewMongoContactRepo(db *mongo.Database, collection string) ContactRepository {
	col := db.Collection(collection)
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "email", Value: 1}}},
	})
	return &mongoContactRepo{col: col}
}

// ownerScope is the mandatory base filter every read/update/delete starts from.
func ownerScope(owner primitive.ObjectID) bson.D {
	return bson.D{{Key: "owner_id", Value: owner}}
}

func (r *mongoContactRepo) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return c, nil
}

func (r *mongoContactRepo) GetByID(ctx context.Context, owner, id primitive.ObjectID) (*models.Contact, error) {
	filter := append(ownerScope(owner), bson.E{Key: "_id", Value: id})
	var c models.Contact
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoContactRepo) List(ctx context.Context, owner primitive.ObjectID, limit, offset int64) ([]models.Contact, error) {
	opts := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, ownerScope(owner), opts)
	if err != nil {
		return nil, err
	}
	return decodeContacts(ctx, cur)
}

// Update overwrites all mutable fields together; there is no partial patch.
func (r *mongoContactRepo) Update(ctx context.Context, owner, id primitive.ObjectID, c *models.Contact) (*models.Contact, error) {
	filter := append(ownerScope(owner), bson.E{Key: "_id", Value: id})
	update := bson.M{"$set": bson.M{
		"first_name":  c.FirstName,
		"second_name": c.SecondName,
		"email":       c.Email,
		"birthday":    c.Birthday,
		"add_info":    c.AddInfo,
		"updated_at":  time.Now().UTC(),
	}}
	var updated models.Contact
	err := r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *mongoContactRepo) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	filter := append(ownerScope(owner), bson.E{Key: "_id", Value: id})
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *mongoContactRepo) Search(ctx context.Context, owner primitive.ObjectID, f ContactFilter) ([]models.Contact, error) {
	filter := ownerScope(owner)
	if f.FirstName != "" {
		filter = append(filter, bson.E{Key: "first_name", Value: f.FirstName})
	}
	if f.SecondName != "" {
		filter = append(filter, bson.E{Key: "second_name", Value: f.SecondName})
	}
	if f.Email != "" {
		filter = append(filter, bson.E{Key: "email", Value: f.Email})
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeContacts(ctx, cur)
}

// UpcomingBirthdays matches contacts whose birthday month/day equals any pair
// in the window. The window is computed by the service from real calendar
// dates, so month and year rollovers are already accounted for.
func (r *mongoContactRepo) UpcomingBirthdays(ctx context.Context, owner primitive.ObjectID, window []MonthDay) ([]models.Contact, error) {
	if len(window) == 0 {
		return []models.Contact{}, nil
	}
	ors := bson.A{}
	for _, md := range window {
		ors = append(ors, bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$month": "$birthday"}, int(md.Month)}},
			bson.M{"$eq": bson.A{bson.M{"$dayOfMonth": "$birthday"}, md.Day}},
		}})
	}
	filter := append(ownerScope(owner), bson.E{Key: "$expr", Value: bson.M{"$or": ors}})
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeContacts(ctx, cur)
}

func decodeContacts(ctx context.Context, cur *mongo.Cursor) ([]models.Contact, error) {
	contacts := []models.Contact{}
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}
