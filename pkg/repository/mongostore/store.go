// Package mongostore implements the repository contracts on MongoDB.
// Ids are stored as their canonical uuid strings.
package mongostore

import (
	"context"
	"time"

	"github.com/tendant/scanvault/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	documentsCollection = "documents"
)

var (
	_ repository.UserStore     = (*UsersRepository)(nil)
	_ repository.DocumentStore = (*DocumentsRepository)(nil)
)

// Store wraps a connected client and its database.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewStore connects to uri and selects dbname.
func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Store{Client: cli, DB: cli.Database(dbname)}, nil
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes both collections rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	users := s.DB.Collection(usersCollection)
	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "temp_password_hash", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}); err != nil {
		return err
	}

	docs := s.DB.Collection(documentsCollection)
	_, err := docs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Users returns the user store backed by this database.
func (s *Store) Users() *UsersRepository {
	return &UsersRepository{coll: s.DB.Collection(usersCollection)}
}

// Documents returns the document store backed by this database.
func (s *Store) Documents() *DocumentsRepository {
	return &DocumentsRepository{coll: s.DB.Collection(documentsCollection)}
}
