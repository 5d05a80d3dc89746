package faculties

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "faculties"

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      string             `bson:"user"`
	Date      time.Time          `bson:"date"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	UserImage string             `bson:"userImage"`
	Likes     int                `bson:"likes"`
	Replies   int                `bson:"replies"`
	UserID    primitive.ObjectID `bson:"userId,omitempty"`
}

type facultyDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	ProfileImage string             `bson:"profileImage"`
	ProfileLink  string             `bson:"profileLink"`
	Department   string             `bson:"department"`
	Designation  string             `bson:"designation"`
	HECApproved  bool               `bson:"hecApproved"`
	Interest     string             `bson:"interest"`
	Reviews      []reviewDocument   `bson:"reviews"`
	Version      int64              `bson:"version"`
}

func (d *facultyDocument) toModel() models.Faculty {
	f := models.Faculty{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		ProfileImage: d.ProfileImage,
		ProfileLink:  d.ProfileLink,
		Department:   d.Department,
		Designation:  d.Designation,
		HECApproved:  d.HECApproved,
		Interest:     d.Interest,
		Reviews:      make([]models.Review, 0, len(d.Reviews)),
		Version:      d.Version,
	}
	for _, r := range d.Reviews {
		review := models.Review{
			ID:        r.ID.Hex(),
			User:      r.User,
			Date:      r.Date,
			Rating:    r.Rating,
			Comment:   r.Comment,
			UserImage: r.UserImage,
			Likes:     r.Likes,
			Replies:   r.Replies,
		}
		if !r.UserID.IsZero() {
			review.UserID = r.UserID.Hex()
		}
		f.Reviews = append(f.Reviews, review)
	}
	return f
}

func reviewDocuments(reviews []models.Review) []reviewDocument {
	docs := make([]reviewDocument, 0, len(reviews))
	for _, r := range reviews {
		id, err := primitive.ObjectIDFromHex(r.ID)
		if err != nil {
			id = primitive.NewObjectID()
		}
		// not an ObjectID: left unset
		userID, _ := primitive.ObjectIDFromHex(r.UserID)
		docs = append(docs, reviewDocument{
			ID:        id,
			User:      r.User,
			Date:      r.Date,
			Rating:    r.Rating,
			Comment:   r.Comment,
			UserImage: r.UserImage,
			Likes:     r.Likes,
			Replies:   r.Replies,
			UserID:    userID,
		})
	}
	return docs
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Find(ctx context.Context, filter Filter) ([]models.Faculty, error) {
	query := bson.D{}

	if filter.ID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return []models.Faculty{}, nil
		}
		query = append(query, bson.E{Key: "_id", Value: oid})
	}
	if filter.Name != "" {
		query = append(query, bson.E{Key: "name", Value: literalRegex(filter.Name)})
	}
	if filter.Department != "" {
		query = append(query, bson.E{Key: "department", Value: literalRegex(filter.Department)})
	}

	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	result := []models.Faculty{}
	for cur.Next(ctx) {
		var doc facultyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Faculty, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	var doc facultyDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	f := doc.toModel()
	return &f, nil
}

func (r *MongoRepository) UpdateReviews(ctx context.Context, f *models.Faculty) error {
	oid, err := primitive.ObjectIDFromHex(f.ID)
	if err != nil {
		return common.ErrorNotFound
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	if f.Version == 0 {
		// seeded documents may not carry a version yet
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "version", Value: 0}},
			bson.D{{Key: "version", Value: bson.D{{Key: "$exists", Value: false}}}},
		}})
	} else {
		filter = append(filter, bson.E{Key: "version", Value: f.Version})
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "reviews", Value: reviewDocuments(f.Reviews)},
		{Key: "version", Value: f.Version + 1},
	}}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrVersionConflict
	}
	f.Version++
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, f *models.Faculty) error {
	doc := facultyDocument{
		ID:           primitive.NewObjectID(),
		Name:         f.Name,
		ProfileImage: f.ProfileImage,
		ProfileLink:  f.ProfileLink,
		Department:   f.Department,
		Designation:  f.Designation,
		HECApproved:  f.HECApproved,
		Interest:     f.Interest,
		Reviews:      reviewDocuments(f.Reviews),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	f.ID = doc.ID.Hex()
	f.Version = 0
	return nil
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func literalRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
