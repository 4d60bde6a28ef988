package mongodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lejardineden/backend/core/program"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) *programRepository {
	return &programRepository{db: db}
}

func (repo *programRepository) collection() *mongo.Collection {
	return repo.db.db.Collection(programsCollection)
}

func (repo *programRepository) CreateProgram(prog program.Program) (program.Program, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	prog.ID = uuid.New().String()
	if _, err := repo.collection().InsertOne(ctx, prog); err != nil {
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return prog, nil
}

func (repo *programRepository) QueryAllPrograms(includeInactive bool) ([]program.Program, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	query := bson.M{}
	if !includeInactive {
		query["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := repo.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	progs := make([]program.Program, 0)
	if err = cursor.All(ctx, &progs); err != nil {
		return nil, errors.Wrap(err, "decoding programs")
	}
	return progs, nil
}

func (repo *programRepository) GetProgramByID(id string) (program.Program, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	var prog program.Program
	err := repo.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&prog)
	if err == mongo.ErrNoDocuments {
		return program.Program{}, program.ErrNotFound
	}
	if err != nil {
		return program.Program{}, errors.Wrap(err, "getting program by id")
	}
	return prog, nil
}

func (repo *programRepository) GetProgramsByAgeRange(ageRange string) ([]program.Program, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	cursor, err := repo.collection().Find(ctx, bson.M{"ageRange": ageRange, "isActive": true})
	if err != nil {
		return nil, errors.Wrap(err, "querying programs by age range")
	}
	progs := make([]program.Program, 0)
	if err = cursor.All(ctx, &progs); err != nil {
		return nil, errors.Wrap(err, "decoding programs")
	}
	return progs, nil
}

func (repo *programRepository) UpdateProgram(prog program.Program, isActive *bool) (program.Program, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if prog.Title != "" {
		set["title"] = prog.Title
	}
	if prog.Description != "" {
		set["description"] = prog.Description
	}
	if prog.AgeRange != "" {
		set["ageRange"] = prog.AgeRange
	}
	if prog.Capacity > 0 {
		set["capacity"] = prog.Capacity
	}
	if prog.Price > 0 {
		set["price"] = prog.Price
	}
	if prog.Schedule.Days != nil {
		set["schedule.days"] = prog.Schedule.Days
	}
	if prog.Schedule.Hours != "" {
		set["schedule.hours"] = prog.Schedule.Hours
	}
	if prog.Features != nil {
		set["features"] = prog.Features
	}
	if prog.ImageURL != "" {
		set["imageUrl"] = prog.ImageURL
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	res, err := repo.collection().UpdateOne(ctx, bson.M{"_id": prog.ID}, bson.M{"$set": set})
	if err != nil {
		return program.Program{}, errors.Wrap(err, "updating program")
	}
	if res.MatchedCount == 0 {
		return program.Program{}, program.ErrNotFound
	}
	return repo.GetProgramByID(prog.ID)
}

// SetProgramEnrollment writes the counter conditionally: the filter matches
// only while the stored value still equals prev, so a concurrent writer makes
// the update a no-op instead of silently clobbering their change.
func (repo *programRepository) SetProgramEnrollment(id string, prev, count int) (program.Program, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	filter := bson.M{"_id": id, "currentEnrollment": prev}
	update := bson.M{"$set": bson.M{
		"currentEnrollment": count,
		"updatedAt":         time.Now().UTC(),
	}}
	res, err := repo.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return program.Program{}, errors.Wrap(err, "setting program enrollment count")
	}
	if res.MatchedCount == 0 {
		// distinguish a missing document from a lost race on the counter
		if _, err = repo.GetProgramByID(id); err != nil {
			return program.Program{}, err
		}
		return program.Program{}, program.ErrStaleSeatCount
	}
	return repo.GetProgramByID(id)
}
