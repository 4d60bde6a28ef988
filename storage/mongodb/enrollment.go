package mongodb

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) collection() *mongo.Collection {
	return repo.db.db.Collection(enrollmentsCollection)
}

func (repo *enrollmentRepository) CreateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	enr.ID = uuid.New().String()
	if _, err := repo.collection().InsertOne(ctx, enr); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(id string) (enrollment.Enrollment, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	var enr enrollment.Enrollment
	err := repo.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&enr)
	if err == mongo.ErrNoDocuments {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment by id")
	}
	return enr, nil
}

func (repo *enrollmentRepository) FilterEnrollments(filter enrollment.QueryFilter, ordering []core.Ordering, page core.Pagination) ([]enrollment.Enrollment, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["userId"] = filter.UserID
	}
	if filter.ProgramID != "" {
		query["programId"] = filter.ProgramID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	cursor, err := repo.collection().Find(ctx, query, findOptions(ordering, page))
	if err != nil {
		return nil, errors.Wrap(err, "filtering enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0)
	if err = cursor.All(ctx, &enrs); err != nil {
		return nil, errors.Wrap(err, "decoding enrollments")
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	res, err := repo.collection().ReplaceOne(ctx, bson.M{"_id": enr.ID}, enr)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "replacing enrollment")
	}
	if res.MatchedCount == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return enr, nil
}

func (repo *enrollmentRepository) CountEnrollmentsByStatus() (map[enrollment.Status]int, error) {
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
		return nil, errors.Wrap(err, "counting enrollments by status")
	}
	var rows []struct {
		Status enrollment.Status `bson:"_id"`
		Count  int               `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding enrollment counts")
	}
	counts := make(map[enrollment.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
