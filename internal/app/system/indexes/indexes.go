// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema at startup. Each ensure* function is
idempotent; errors are aggregated so every problem is visible at once.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"organizations", ensureOrganizations},
		{"channels", ensureChannels},
		{"messages", ensureMessages},
		{"audit_events", ensureAuditEvents},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

// desired is the comparable shape of a wanted index.
type desired struct {
	name    string
	sig     string
	unique  bool
	partial bool
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func describe(m mongo.IndexModel) desired {
	d := desired{sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
		d.partial = m.Options.PartialFilterExpression != nil
	}
	return d
}

// sameOptions compares uniqueness and whether a partial filter is present.
// Partial filter contents are not compared.
func (d desired) sameOptions(ex existingIndex) bool {
	exUnique := ex.Unique != nil && *ex.Unique
	return d.unique == exUnique && d.partial == (len(ex.Partial) > 0)
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Some deployments report IndexOptionsConflict when the same keys already
// exist under a different name or options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

func createErr(coll *mongo.Collection, d desired, err error) string {
	if isDuplicateKeyErr(err) && d.unique {
		helper := ""
		if coll.Name() == "users" && strings.Contains(d.sig, "email:1") {
			helper = " (duplicates exist on users.email; find them with " +
				`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }]))`
		}
		return fmt.Sprintf("%s(%s): cannot create unique index, duplicates present%s", coll.Name(), d.name, helper)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err)
}

// replace drops the index named old and creates m in its place.
func replace(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("%s(%s): drop %s failed: %v", coll.Name(), d.name, old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return errors.New(createErr(coll, d, err))
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		existing := listExisting(ctx, coll)

		if ex, ok := existing[d.sig]; ok {
			switch {
			case d.sameOptions(ex) && (d.name == "" || ex.Name == d.name):
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
			case d.sameOptions(ex):
				if err := replace(ctx, coll, ex.Name, m, d); err != nil {
					log.Warn("index rename failed", zap.Error(err))
					errs = append(errs, err.Error())
					continue
				}
				log.Info("index renamed", zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))
			default:
				if err := replace(ctx, coll, ex.Name, m, d); err != nil {
					log.Warn("index recreate failed", zap.Error(err))
					errs = append(errs, err.Error())
					continue
				}
				log.Info("index dropped and recreated", zap.Duration("took", time.Since(start)))
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			log.Info("index ensured", zap.String("created_name", created), zap.Duration("took", time.Since(start)))
			continue
		}

		if isOptionsConflictErr(err) {
			if ex, ok := listExisting(ctx, coll)[d.sig]; ok {
				if d.sameOptions(ex) {
					log.Debug("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
					continue
				}
				if rerr := replace(ctx, coll, ex.Name, m, d); rerr == nil {
					log.Info("index dropped and recreated (post-conflict)", zap.Duration("took", time.Since(start)))
					continue
				} else {
					err = rerr
				}
			}
		}

		log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
		errs = append(errs, createErr(coll, d, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Emails are stored lower-cased, so this is a case-insensitive guarantee.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Directory listing and search within an organization.
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_org_nameci_id"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organizations"), []mongo.IndexModel{
		// Membership lookups back every glossary read and write.
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_orgs_members"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_nameci__id"),
		},
	})
}

func ensureChannels(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("channels"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "members", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_channels_members_updated"),
		},
		// At most one direct channel per unordered pair. Group channels carry
		// no pair_key and are excluded by the partial filter.
		{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"pair_key": bson.M{"$type": "string"}}).
				SetName("uniq_channels_pairkey"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("messages"), []mongo.IndexModel{
		// Channel history in ledger order.
		{
			Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_messages_channel_created_id"),
		},
		{
			Keys:    bson.D{{Key: "thread_root_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_messages_thread_created").SetSparse(true),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_org_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
