package mongodb

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) collection() *mongo.Collection {
	return repo.db.db.Collection(usersCollection)
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	ctx, cancel := repo.db.context()
	defer cancel()

	filter := bson.M{"email": email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}
	count, err := repo.collection().CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	usr.ID = uuid.New().String()
	if _, err := repo.collection().InsertOne(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	cursor, err := repo.collection().Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0)
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	var usr user.User
	err := repo.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user by id")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	var usr user.User
	err := repo.collection().FindOne(ctx, bson.M{"email": email}).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter, ordering []core.Ordering, page core.Pagination) ([]user.User, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	query := bson.M{}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexEscape(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}
	}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}
	created := bson.M{}
	if !filter.CreatedFrom.IsZero() {
		created["$gte"] = filter.CreatedFrom
	}
	if !filter.CreatedTo.IsZero() {
		created["$lte"] = filter.CreatedTo
	}
	if len(created) > 0 {
		query["createdAt"] = created
	}

	cursor, err := repo.collection().Find(ctx, query, findOptions(ordering, page))
	if err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0)
	if err = cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	ctx, cancel := repo.db.context()
	defer cancel()

	set := bson.M{}
	if usr.Name != "" {
		set["name"] = usr.Name
	}
	if usr.Email != "" {
		set["email"] = usr.Email
	}
	if usr.Phone != "" {
		set["phone"] = usr.Phone
	}
	if usr.Role != "" {
		set["role"] = usr.Role
	}
	if usr.PasswordHash != nil {
		set["passwordHash"] = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		set["lastLogin"] = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		set["updatedAt"] = usr.UpdatedAt
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	if len(set) > 0 {
		res, err := repo.collection().UpdateOne(ctx, bson.M{"_id": usr.ID}, bson.M{"$set": set})
		if err != nil {
			return user.User{}, errors.Wrap(err, "updating user")
		}
		if res.MatchedCount == 0 {
			return user.User{}, user.ErrNotFound
		}
	}
	return repo.GetUserByID(usr.ID)
}
