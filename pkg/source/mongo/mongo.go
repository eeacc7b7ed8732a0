// Package mongo reads entity records from MongoDB.
//
// Each schema type maps to one collection, by default the lowercased type
// name. Records are looked up by the type's primary column; reference
// columns hold the primary keys of related documents. Descriptors come from
// a TOML schema since collections carry no column metadata.
package mongo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/schema"
	"github.com/matzehuels/xmlbridge/pkg/source"
)

// DefaultTimeout bounds connecting and each record lookup.
const DefaultTimeout = 10 * time.Second

// Config selects the database and collections.
type Config struct {
	URI         string            // mongodb:// or mongodb+srv:// connection string
	Database    string            // Database holding the collections
	Collections map[string]string // Type name -> collection, overrides the default
	Timeout     time.Duration     // Per-operation timeout (default 10s)
}

// Store is a [source.Store] over MongoDB collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    Config
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if err := errors.ValidateURI(cfg.URI, "mongodb", "mongodb+srv"); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo database name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &Store{client: client, db: client.Database(cfg.Database), cfg: cfg}, nil
}

// Open connects to MongoDB and returns a source serving reg.
func Open(ctx context.Context, reg *schema.Registry, cfg Config) (*source.Source, error) {
	st, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return source.New("mongo:"+cfg.Database, reg, st), nil
}

// Record fetches the document of desc.Target whose primary column is id.
func (s *Store) Record(ctx context.Context, desc *schema.Descriptor, id string) (map[string]any, error) {
	pk, ok := desc.PrimaryColumn()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidDescriptor, "%s: no primary column", desc.Target)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	coll := s.db.Collection(collectionName(s.cfg.Collections, desc.Target))
	var doc bson.M
	err := coll.FindOne(ctx, keyFilter(pk.Property, id)).Decode(&doc)
	switch {
	case err == mongo.ErrNoDocuments:
		return nil, errors.New(errors.ErrCodeNotFound, "%s %q not found in %s", desc.Target, id, coll.Name())
	case ctx.Err() != nil:
		return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "find %s %q", desc.Target, id)
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find %s %q", desc.Target, id)
	}

	rec := make(map[string]any, len(doc))
	for k, v := range doc {
		rec[k] = normalize(v)
	}
	return rec, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func collectionName(overrides map[string]string, typeName string) string {
	if c, ok := overrides[typeName]; ok && c != "" {
		return c
	}
	return strings.ToLower(typeName)
}

// keyFilter matches id as written and, where it parses, as an integer or an
// ObjectID, since path-carried IDs lose their BSON type.
func keyFilter(property, id string) bson.M {
	alts := bson.A{bson.M{property: id}}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		alts = append(alts, bson.M{property: n})
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		alts = append(alts, bson.M{property: oid})
	}
	if len(alts) == 1 {
		return bson.M{property: id}
	}
	return bson.M{"$or": alts}
}

// normalize converts driver types into the plain values source.Coerce
// understands.
func normalize(v any) any {
	switch x := v.(type) {
	case bson.M:
		m := make(map[string]any, len(x))
		for k, inner := range x {
			m[k] = normalize(inner)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(x))
		for i, inner := range x {
			out[i] = normalize(inner)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		return x.String()
	case primitive.Null, primitive.Undefined:
		return nil
	case int32:
		return int64(x)
	}
	return v
}

var _ source.Store = (*Store)(nil)
