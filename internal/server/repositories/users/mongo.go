package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "users"

// userDocument keeps the field names of the existing "users" collection.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	ResetOTP  string             `bson:"resetPasswordOTP,omitempty"`
	ResetExp  *time.Time         `bson:"resetPasswordOTPExpires,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	u := &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if d.ResetOTP != "" && d.ResetExp != nil {
		u.Reset = &models.PasswordReset{Code: d.ResetOTP, ExpiresAt: *d.ResetExp}
	}
	return u
}

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the unique email index the duplicate check relies on.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := r.now().UTC()
	doc := userDocument{
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      string(user.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.User, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}

func (r *MongoRepository) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	update := bson.M{"$set": bson.M{"role": string(role), "updatedAt": r.now().UTC()}}

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) SetPasswordReset(ctx context.Context, email string, reset models.PasswordReset) error {
	update := bson.M{"$set": bson.M{
		"resetPasswordOTP":        reset.Code,
		"resetPasswordOTPExpires": reset.ExpiresAt.UTC(),
		"updatedAt":               r.now().UTC(),
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) ConsumePasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash string) error {
	filter := bson.M{
		"email":                   email,
		"resetPasswordOTP":        code,
		"resetPasswordOTPExpires": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": now.UTC()},
		"$unset": bson.M{"resetPasswordOTP": "", "resetPasswordOTPExpires": ""},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorInvalidOTP
	}
	return nil
}
