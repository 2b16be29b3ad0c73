package issues

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

const CollectionName = "issues"

type commentDocument struct {
	User      string    `bson:"user,omitempty"`
	Author    string    `bson:"author,omitempty"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

type issueDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	CreatedBy   string             `bson:"createdBy,omitempty"`
	AssignedTo  string             `bson:"assignedTo,omitempty"`
	Name        string             `bson:"name,omitempty"`
	USN         string             `bson:"usn,omitempty"`
	Branch      string             `bson:"branch,omitempty"`
	Section     string             `bson:"section,omitempty"`
	Email       string             `bson:"email,omitempty"`
	Photo       string             `bson:"photo,omitempty"`
	Date        string             `bson:"date,omitempty"`
	Upvotes     []string           `bson:"upvotes"`
	Comments    []commentDocument  `bson:"comments"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func fromModel(i *models.Issue) issueDocument {
	d := issueDocument{
		Title:       i.Title,
		Description: i.Description,
		Status:      string(i.Status),
		CreatedBy:   i.CreatedBy,
		AssignedTo:  i.AssignedTo,
		Name:        i.Reporter.Name,
		USN:         i.Reporter.USN,
		Branch:      i.Reporter.Branch,
		Section:     i.Reporter.Section,
		Email:       i.Reporter.Email,
		Photo:       i.Photo,
		Date:        i.Date,
		Upvotes:     append([]string{}, i.Upvotes...),
		Comments:    make([]commentDocument, 0, len(i.Comments)),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	for _, c := range i.Comments {
		d.Comments = append(d.Comments, commentDocument{User: c.UserID, Author: c.Author, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return d
}

func (d *issueDocument) toModel() *models.Issue {
	i := &models.Issue{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      models.IssueStatus(d.Status),
		CreatedBy:   d.CreatedBy,
		AssignedTo:  d.AssignedTo,
		Reporter: models.Reporter{
			Name:    d.Name,
			USN:     d.USN,
			Branch:  d.Branch,
			Section: d.Section,
			Email:   d.Email,
		},
		Photo:     d.Photo,
		Date:      d.Date,
		Upvotes:   append([]string{}, d.Upvotes...),
		Comments:  make([]models.Comment, 0, len(d.Comments)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if i.Status == "" {
		i.Status = models.StatusOpen
	}
	for _, c := range d.Comments {
		i.Comments = append(i.Comments, models.Comment{UserID: c.User, Author: c.Author, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return i
}

type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the indexes used by the list filters.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create issues indexes: %w", err)
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, common.ErrorInvalidID
	}
	return oid, nil
}

func (r *MongoRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	now := r.now().UTC()
	doc := fromModel(issue)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc issueDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func listFilter(f Filter) bson.M {
	m := bson.M{}
	switch {
	case f.Status != "":
		m["status"] = string(f.Status)
	case f.ExcludeStatus != "":
		m["status"] = bson.M{"$ne": string(f.ExcludeStatus)}
	}
	if f.CreatedBy != "" {
		m["createdBy"] = f.CreatedBy
	}
	return m
}

func (r *MongoRepository) List(ctx context.Context, filter Filter) ([]*models.Issue, error) {
	cursor, err := r.coll.Find(ctx, listFilter(filter), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []issueDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.Issue, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}

func (r *MongoRepository) findOneAndUpdate(ctx context.Context, id string, update any) (*models.Issue, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc issueDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch Patch) (*models.Issue, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.AssignedTo != nil {
		set["assignedTo"] = *patch.AssignedTo
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *MongoRepository) AddComment(ctx context.Context, id string, comment models.Comment) (*models.Issue, error) {
	c := commentDocument{User: comment.UserID, Author: comment.Author, Text: comment.Text, CreatedAt: comment.CreatedAt.UTC()}
	return r.findOneAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updatedAt": r.now().UTC()},
	})
}

// ToggleUpvote flips membership in a single pipeline update so concurrent
// toggles cannot lose each other's writes.
func (r *MongoRepository) ToggleUpvote(ctx context.Context, id, email string) (*models.Issue, error) {
	upvotes := bson.M{"$ifNull": bson.A{"$upvotes", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"upvotes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{email, upvotes}},
				bson.M{"$setDifference": bson.A{upvotes, bson.A{email}}},
				bson.M{"$concatArrays": bson.A{upvotes, bson.A{email}}},
			}},
			"updatedAt": r.now().UTC(),
		}}},
	}
	return r.findOneAndUpdate(ctx, id, pipeline)
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
