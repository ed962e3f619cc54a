package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movietrack/internal/model"
)

const usersCollection = "users"

// MongoUserRepository stores each user as one document with the lists
// embedded, the layout the original deployment used.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a MongoDB-backed user repository.
// Call EnsureIndexes once at startup.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

type userDocument struct {
	ID                string               `bson:"_id"`
	Username          string               `bson:"username"`
	Email             string               `bson:"email"`
	PasswordHash      string               `bson:"password"`
	AvatarURL         *string              `bson:"avatarUrl,omitempty"`
	WatchList         []string             `bson:"watchList"`
	CurrentlyWatching []string             `bson:"currentlyWatching"`
	WatchedMovies     []model.WatchedEntry `bson:"watchedMovies"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:                d.ID,
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		AvatarURL:         d.AvatarURL,
		WatchList:         d.WatchList,
		CurrentlyWatching: d.CurrentlyWatching,
		WatchedMovies:     d.WatchedMovies,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	doc := userDocument{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		WatchList:         nonNilStrings(u.WatchList),
		CurrentlyWatching: nonNilStrings(u.CurrentlyWatching),
		WatchedMovies:     nonNilEntries(u.WatchedMovies),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return n > 0, nil
}

func (r *MongoUserRepository) UpdateLists(ctx context.Context, u *model.User) error {
	update := bson.M{"$set": bson.M{
		"watchList":         nonNilStrings(u.WatchList),
		"currentlyWatching": nonNilStrings(u.CurrentlyWatching),
		"watchedMovies":     nonNilEntries(u.WatchedMovies),
		"updatedAt":         time.Now().UTC(),
	}}
	return r.updateByID(ctx, u.ID, update)
}

func (r *MongoUserRepository) UpdateAvatar(ctx context.Context, id string, avatarURL string) error {
	update := bson.M{"$set": bson.M{"avatarUrl": avatarURL, "updatedAt": time.Now().UTC()}}
	return r.updateByID(ctx, id, update)
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilEntries(e []model.WatchedEntry) []model.WatchedEntry {
	if e == nil {
		return []model.WatchedEntry{}
	}
	return e
}
