package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lejardineden/backend/core"
)

// findOptions builds sort + pagination options for a filtered listing.
// Documents sort on creation time, newest first unless a "created_at"
// ordering override asks for ascending.
func findOptions(ordering []core.Ordering, page core.Pagination) *options.FindOptions {
	direction := -1
	for _, ord := range ordering {
		if ord.Field == "created_at" && ord.Ascending {
			direction = 1
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: direction}})
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	return opts
}

// regexEscape guards user-supplied search terms before embedding them in a
// $regex match.
func regexEscape(s string) string {
	return regexp.QuoteMeta(s)
}
