package mongodb

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/contact"
)

type contactRepository struct {
	db *DB
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *DB) *contactRepository {
	return &contactRepository{db: db}
}

func (repo *contactRepository) collection() *mongo.Collection {
	return repo.db.db.Collection(contactsCollection)
}

func (repo *contactRepository) CreateContact(cnt contact.Contact) (contact.Contact, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	cnt.ID = uuid.New().String()
	if _, err := repo.collection().InsertOne(ctx, cnt); err != nil {
		return contact.Contact{}, errors.Wrap(err, "inserting contact message")
	}
	return cnt, nil
}

func (repo *contactRepository) GetContactByID(id string) (contact.Contact, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	var cnt contact.Contact
	err := repo.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&cnt)
	if err == mongo.ErrNoDocuments {
		return contact.Contact{}, contact.ErrNotFound
	}
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "getting contact message by id")
	}
	return cnt, nil
}

func (repo *contactRepository) FilterContacts(filter contact.QueryFilter, ordering []core.Ordering, page core.Pagination) ([]contact.Contact, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}

	cursor, err := repo.collection().Find(ctx, query, findOptions(ordering, page))
	if err != nil {
		return nil, errors.Wrap(err, "filtering contact messages")
	}
	cnts := make([]contact.Contact, 0)
	if err = cursor.All(ctx, &cnts); err != nil {
		return nil, errors.Wrap(err, "decoding contact messages")
	}
	return cnts, nil
}

func (repo *contactRepository) UpdateContact(cnt contact.Contact) (contact.Contact, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	res, err := repo.collection().ReplaceOne(ctx, bson.M{"_id": cnt.ID}, cnt)
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "replacing contact message")
	}
	if res.MatchedCount == 0 {
		return contact.Contact{}, contact.ErrNotFound
	}
	return cnt, nil
}

func (repo *contactRepository) DeleteContactByID(id string) error {
	ctx, cancel := repo.db.context()
	defer cancel()

	res, err := repo.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting contact message")
	}
	if res.DeletedCount == 0 {
		return contact.ErrNotFound
	}
	return nil
}

func (repo *contactRepository) CountContactsByStatus() (map[contact.Status]int, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := repo.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "counting contact messages by status")
	}
	var rows []struct {
		Status contact.Status `bson:"_id"`
		Count  int            `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding contact message counts")
	}
	counts := make(map[contact.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
