package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentsRepository stores documents in the documents collection.
type DocumentsRepository struct {
	coll *mongo.Collection
}

// Create inserts a new document.
func (r *DocumentsRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.coll.InsertOne(ctx, toDocumentRecord(doc))
	return err
}

// Get retrieves a document owned by owner.
func (r *DocumentsRepository) Get(ctx context.Context, owner, id uuid.UUID) (*domain.Document, error) {
	var rec documentRecord
	err := r.coll.FindOne(ctx, ownedBy(owner, id)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain()
}

// List returns the owner's documents, newest first.
func (r *DocumentsRepository) List(ctx context.Context, owner uuid.UUID, page domain.Page) ([]*domain.Document, error) {
	return r.find(ctx, bson.M{"user_id": owner.String()}, page)
}

// ListByType returns the owner's documents of one scan type, newest first.
func (r *DocumentsRepository) ListByType(ctx context.Context, owner uuid.UUID, scanType domain.ScanType, page domain.Page) ([]*domain.Document, error) {
	return r.find(ctx, bson.M{"user_id": owner.String(), "scan_type": string(scanType)}, page)
}

// Search matches q case-insensitively against the searchable fields.
func (r *DocumentsRepository) Search(ctx context.Context, owner uuid.UUID, q string, page domain.Page) ([]*domain.Document, error) {
	return r.find(ctx, searchFilter(owner, q), page)
}

// Update applies a partial update and returns the stored document.
func (r *DocumentsRepository) Update(ctx context.Context, owner, id uuid.UUID, upd domain.DocumentUpdate) (*domain.Document, error) {
	var rec documentRecord
	err := r.coll.FindOneAndUpdate(ctx,
		ownedBy(owner, id),
		bson.M{"$set": documentSet(upd, time.Now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain()
}

// Delete removes a document owned by owner.
func (r *DocumentsRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, ownedBy(owner, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentsRepository) find(ctx context.Context, filter bson.M, page domain.Page) ([]*domain.Document, error) {
	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page.Skip)).
		SetLimit(int64(page.Limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []documentRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}

	docs := make([]*domain.Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func ownedBy(owner, id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "user_id": owner.String()}
}

func searchFilter(owner uuid.UUID, q string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	or := make(bson.A, 0, len(domain.SearchFields))
	for _, f := range domain.SearchFields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{"user_id": owner.String(), "$or": or}
}

// documentSet renders the non-nil slots of upd as a $set document.
func documentSet(upd domain.DocumentUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}

	str("document_name", upd.DocumentName)
	if upd.ScanType != nil {
		set["scan_type"] = string(*upd.ScanType)
	}
	if upd.IsFavorite != nil {
		set["is_favorite"] = *upd.IsFavorite
	}
	str("name", upd.Name)
	str("profession", upd.Profession)
	str("email", upd.Email)
	str("mobile_number", upd.MobileNumber)
	str("address", upd.Address)
	str("company_name", upd.CompanyName)
	str("website", upd.Website)
	if upd.ISBNNo != nil {
		set["isbn_no"] = *upd.ISBNNo
	}
	str("book_name", upd.BookName)
	str("author_name", upd.AuthorName)
	str("publication", upd.Publication)
	if upd.NumberOfPages != nil {
		set["number_of_pages"] = *upd.NumberOfPages
	}
	str("subject", upd.Subject)
	str("summary", upd.Summary)
	return set
}
