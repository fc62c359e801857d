// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/linguashift/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections (if missing) and attaches JSON-Schema
// validators that mirror the store-level checks. On servers that don't
// support collMod/validators (e.g. some DocumentDB versions), we log and
// skip.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("organizations", orgsSchema())
	ensure("channels", channelsSchema())
	ensure("messages", messagesSchema())

	// Append-only; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

// unitInterval matches a float64 in [0, 1]. Whole numbers may arrive as
// int from other writers.
var unitInterval = bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0, "maximum": 1}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "password_hash", "role", "organization_id"},
			"properties": bson.M{
				"name":            nonBlank,
				"name_ci":         bson.M{"bsonType": "string"},
				"email":           nonBlank,
				"password_hash":   bson.M{"bsonType": "string"},
				"role":            bson.M{"enum": bson.A{models.RoleAdmin, models.RoleMember}},
				"organization_id": bson.M{"bsonType": "objectId"},
				"audience_preset": bson.M{"bsonType": "string"},
				"tone_preset":     bson.M{"bsonType": "string"},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":     nonBlank,
				"name_ci":  nonBlank,
				"owner_id": bson.M{"bsonType": "objectId"},
				"members": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items":    bson.M{"bsonType": "objectId"},
				},
				"glossary": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"term", "term_ci", "plain_language"},
						"properties": bson.M{
							"term":           nonBlank,
							"term_ci":        nonBlank,
							"plain_language": nonBlank,
							"explanation":    bson.M{"bsonType": "string"},
						},
					},
				},
			},
		},
	}
}

func channelsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"type", "members", "created_at"},
			"properties": bson.M{
				"name": bson.M{"bsonType": "string"},
				"type": bson.M{"enum": bson.A{models.ChannelGroup, models.ChannelDirect}},
				"members": bson.M{
					"bsonType": "array",
					"items":    bson.M{"bsonType": "objectId"},
				},
				"admins": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items":    bson.M{"bsonType": "objectId"},
				},
				"pair_key":   bson.M{"bsonType": "string"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"channel_id", "sender_id", "text_original", "jargon_score", "created_at"},
			"properties": bson.M{
				"channel_id":      bson.M{"bsonType": "objectId"},
				"sender_id":       bson.M{"bsonType": "objectId"},
				"text_original":   bson.M{"bsonType": "string"},
				"text_simplified": bson.M{"bsonType": bson.A{"string", "null"}},
				"used_simplified": bson.M{"bsonType": "bool"},
				"jargon_score":    unitInterval,
				"jargon_spans": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"start", "end", "confidence"},
						"properties": bson.M{
							"start":      bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
							"end":        bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
							"confidence": unitInterval,
						},
					},
				},
				"thread_root_id": bson.M{"bsonType": "objectId"},
				"created_at":     bson.M{"bsonType": "date"},
				"edited_at":      bson.M{"bsonType": "date"},
				"deleted_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}
