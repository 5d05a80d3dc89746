package otps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "otps"

type tempUserDocument struct {
	Name     string `bson:"name"`
	Email    string `bson:"email"`
	Password string `bson:"password"`
}

type otpDocument struct {
	Email     string            `bson:"email"`
	OTP       string            `bson:"otp"`
	TempUser  *tempUserDocument `bson:"tempUser,omitempty"`
	ExpiresAt time.Time         `bson:"expiresAt"`
	CreatedAt time.Time         `bson:"createdAt"`
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique email index backing Upsert and a TTL
// index so abandoned codes are eventually purged by the server.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(3600).SetName("expires_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Upsert(ctx context.Context, otp *models.OTP) error {
	doc := otpDocument{
		Email:     otp.Email,
		OTP:       otp.Code,
		ExpiresAt: otp.ExpiresAt,
		CreatedAt: otp.CreatedAt,
	}
	if p := otp.PendingUser; p != nil {
		doc.TempUser = &tempUserDocument{Name: p.Name, Email: p.Email, Password: p.PasswordHash}
	}

	_, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "email", Value: otp.Email}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, email, code string) (*models.OTP, error) {
	var doc otpDocument
	err := r.coll.FindOne(ctx, bson.D{
		{Key: "email", Value: email},
		{Key: "otp", Value: code},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	otp := &models.OTP{
		Email:     doc.Email,
		Code:      doc.OTP,
		ExpiresAt: doc.ExpiresAt,
		CreatedAt: doc.CreatedAt,
	}
	if t := doc.TempUser; t != nil {
		otp.PendingUser = &models.PendingUser{Name: t.Name, Email: t.Email, PasswordHash: t.Password}
	}
	return otp, nil
}

func (r *MongoRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{{Key: "email", Value: email}}); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
