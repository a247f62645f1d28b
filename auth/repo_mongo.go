package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	emailIndexName = "email_unique"
	tokenIndexName = "email_verification_token_unique"
)

// MongoAccountRepository stores accounts in a MongoDB collection.
type MongoAccountRepository struct {
	collection *mongo.Collection
}

type dbAccount struct {
	ID                     ID        `bson:"_id"`
	Email                  string    `bson:"email"`
	Name                   string    `bson:"name"`
	PasswordHash           string    `bson:"password_hash"`
	IsEmailVerified        bool      `bson:"is_email_verified"`
	EmailVerificationToken *string   `bson:"email_verification_token,omitempty"`
	CreatedAt              time.Time `bson:"created_at"`
}

func NewMongoAccountRepository(c *mongo.Collection) *MongoAccountRepository {
	return &MongoAccountRepository{collection: c}
}

// EnsureIndexes creates the unique email index that Create relies on, and a
// sparse unique index on the verification token.
func (m *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndexName),
		},
		{
			Keys:    bson.D{{Key: "email_verification_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(tokenIndexName),
		},
	})
	if err != nil {
		return StoreError("create indexes", err)
	}
	return nil
}

func (m *MongoAccountRepository) FindByID(ctx context.Context, id ID) (*Account, error) {
	return m.findAccountBy(ctx, "_id", string(id))
}

func (m *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return m.findAccountBy(ctx, "email", email)
}

func (m *MongoAccountRepository) FindByVerificationToken(ctx context.Context, token string) (*Account, error) {
	return m.findAccountBy(ctx, "email_verification_token", token)
}

func (m *MongoAccountRepository) findAccountBy(ctx context.Context, key string, val string) (*Account, error) {
	var a dbAccount
	err := m.collection.FindOne(ctx, bson.M{key: val}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, StoreError("find account by "+key, err)
	}

	acc := accountFromDBAccount(a)
	return &acc, nil
}

func (m *MongoAccountRepository) Create(ctx context.Context, email, name, passwordHash, verificationToken string) (*Account, error) {
	token := verificationToken
	dba := dbAccount{
		ID:                     NewID(),
		Email:                  email,
		Name:                   name,
		PasswordHash:           passwordHash,
		EmailVerificationToken: &token,
		CreatedAt:              time.Now().UTC().Truncate(time.Millisecond),
	}

	if _, err := m.collection.InsertOne(ctx, &dba); err != nil {
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), emailIndexName) {
			return nil, ErrDuplicateEmail
		}
		return nil, StoreError("insert account", err)
	}

	acc := accountFromDBAccount(dba)
	return &acc, nil
}

func (m *MongoAccountRepository) Save(ctx context.Context, acc *Account) error {
	update := bson.M{"$set": bson.M{"is_email_verified": acc.IsEmailVerified}}
	if acc.EmailVerificationToken == nil {
		update["$unset"] = bson.M{"email_verification_token": ""}
	} else {
		update["$set"] = bson.M{
			"is_email_verified":        acc.IsEmailVerified,
			"email_verification_token": *acc.EmailVerificationToken,
		}
	}

	filter := bson.M{"_id": acc.ID, "is_email_verified": false}
	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return StoreError("update account", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func accountFromDBAccount(a dbAccount) Account {
	return Account{
		ID:                     a.ID,
		Email:                  a.Email,
		Name:                   a.Name,
		PasswordHash:           a.PasswordHash,
		IsEmailVerified:        a.IsEmailVerified,
		EmailVerificationToken: a.EmailVerificationToken,
		CreatedAt:              a.CreatedAt,
	}
}
