package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/secretkeeper/secretkeeper/internal/core/domain"
)

const userCollection = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(userCollection)}
}

// mongoUser is the persisted document shape. Identity bindings use omitempty
// so absent fields stay out of the sparse unique indexes.
type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	GoogleID     string             `bson:"google_id,omitempty"`
	FacebookID   string             `bson:"facebook_id,omitempty"`
	Secret       string             `bson:"secret,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

// providerFields maps provider names to their document field.
var providerFields = map[string]string{
	domain.ProviderGoogle:   "google_id",
	domain.ProviderFacebook: "facebook_id",
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !user.HasIdentity() {
		return nil, fmt.Errorf("create user: no identity binding")
	}

	doc := toDoc(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w: %v", domain.ErrStoreUnavailable, err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByProviderID(ctx context.Context, provider, subjectID string) (*domain.User, error) {
	field, ok := providerFields[provider]
	if !ok {
		return nil, fmt.Errorf("unknown identity provider %q", provider)
	}
	return r.findOne(ctx, bson.M{field: subjectID})
}

// FindWithSecrets returns all users that have submitted a secret. The filter
// matches the original listing query: any document whose secret is set.
func (r *UserRepository) FindWithSecrets(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{"secret": bson.M{"$exists": true, "$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("find secrets: %w: %v", domain.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, fromDoc(&mu))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"secret":     user.Secret,
		"updated_at": user.UpdatedAt.Unix(),
	}}
	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("update user: %w: %v", domain.ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return fromDoc(&mu), nil
}

func toDoc(u *domain.User) mongoUser {
	return mongoUser{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		GoogleID:     u.GoogleID,
		FacebookID:   u.FacebookID,
		Secret:       u.Secret,
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
}

func fromDoc(mu *mongoUser) *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		Username:     mu.Username,
		PasswordHash: mu.PasswordHash,
		GoogleID:     mu.GoogleID,
		FacebookID:   mu.FacebookID,
		Secret:       mu.Secret,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
