package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsersRepository stores users in the users collection.
type UsersRepository struct {
	coll *mongo.Collection
}

// Create inserts a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll.InsertOne(ctx, toUserRecord(user))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUserAlreadyExists
	}
	return err
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetByEmail retrieves a user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByTempPasswordHash retrieves the user holding a reset code hash that is
// still valid at now.
func (r *UsersRepository) GetByTempPasswordHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx, bson.M{
		"temp_password_hash": hash,
		"otp_expiration":     bson.M{"$gt": now.UTC()},
	})
}

// Update applies a partial update and returns the stored user.
func (r *UsersRepository) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	if upd.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var rec userRecord
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		userUpdateDoc(upd, time.Now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrUserAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain()
}

func (r *UsersRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var rec userRecord
	err := r.coll.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain()
}
