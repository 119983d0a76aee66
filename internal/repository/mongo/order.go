package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/grocify/pkg/database"
	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
)

// orderDocument is the stored shape of an order. Field names match the
// documents written by earlier versions of the store.
type orderDocument struct {
	ID            string         `bson:"_id"`
	Items         string         `bson:"items"`
	Lines         []lineDocument `bson:"lines,omitempty"`
	Total         bson.RawValue  `bson:"total"`
	PaymentMethod string         `bson:"paymentMethod"`
	CreatedAt     time.Time      `bson:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt,omitempty"`
}

type lineDocument struct {
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"unitPrice"`
}

// OrderRepository implements repository.OrderRepository on a MongoDB collection.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates a repository over coll.
func NewOrderRepository(coll *mongo.Collection) *OrderRepository {
	return &OrderRepository{coll: coll}
}

// EnsureIndexes creates the createdAt index used by List.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	})
	if err != nil {
		return fmt.Errorf("create orders index: %w", err)
	}
	return nil
}

// Create inserts a new order document.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemMongo, "insertOne", "insertOne orders")
	defer func() { done(err) }()

	doc, err := toDocument(o)
	if err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("order " + o.ID + " already exists")
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID finds one order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (o *domain.Order, err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemMongo, "findOne", "findOne orders {_id}")
	defer func() { done(err) }()

	var doc orderDocument
	if err := r.coll.FindOne(ctx, idFilter(id)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return fromDocument(&doc)
}

// List returns all orders sorted by createdAt descending.
func (r *OrderRepository) List(ctx context.Context) (orders []domain.Order, err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemMongo, "find", "find orders sort {createdAt: -1}")
	defer func() { done(err) }()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders = make([]domain.Order, 0)
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		o, err := fromDocument(&doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

// Update overwrites items, lines and total in a single findOneAndUpdate.
func (r *OrderRepository) Update(ctx context.Context, id string, u repository.OrderUpdate) (o *domain.Order, err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemMongo, "findOneAndUpdate", "findOneAndUpdate orders {_id}")
	defer func() { done(err) }()

	total, err := toDecimal128(u.Total)
	if err != nil {
		return nil, err
	}

	set := bson.D{
		{Key: "items", Value: u.Items},
		{Key: "total", Value: total},
		{Key: "updatedAt", Value: u.UpdatedAt},
	}
	var update bson.D
	if len(u.Lines) > 0 {
		lines, err := toLineDocuments(u.Lines)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "lines", Value: lines})
		update = bson.D{{Key: "$set", Value: set}}
	} else {
		update = bson.D{
			{Key: "$set", Value: set},
			{Key: "$unset", Value: bson.D{{Key: "lines", Value: ""}}},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDocument
	if err := r.coll.FindOneAndUpdate(ctx, idFilter(id), update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return fromDocument(&doc)
}

// Delete removes an order document.
func (r *OrderRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, done := database.TraceQuery(ctx, database.SystemMongo, "deleteOne", "deleteOne orders {_id}")
	defer func() { done(err) }()

	res, err := r.coll.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

// idFilter matches _id as an ObjectId for legacy hex ids and as a string
// otherwise.
func idFilter(id string) bson.D {
	if domain.IsLegacyOrderID(id) {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			return bson.D{{Key: "_id", Value: oid}}
		}
	}
	return bson.D{{Key: "_id", Value: id}}
}

func toDocument(o *domain.Order) (*orderDocument, error) {
	total, err := toDecimal128(o.Total)
	if err != nil {
		return nil, err
	}
	lines, err := toLineDocuments(o.Lines)
	if err != nil {
		return nil, err
	}

	t, data, err := bson.MarshalValue(total)
	if err != nil {
		return nil, fmt.Errorf("encode order total: %w", err)
	}

	return &orderDocument{
		ID:            o.ID,
		Items:         o.Items,
		Lines:         lines,
		Total:         bson.RawValue{Type: t, Value: data},
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func fromDocument(doc *orderDocument) (*domain.Order, error) {
	total, err := rawToDecimal(doc.Total)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", doc.ID, err)
	}

	o := &domain.Order{
		ID:            doc.ID,
		Items:         doc.Items,
		Total:         total,
		PaymentMethod: doc.PaymentMethod,
		CreatedAt:     doc.CreatedAt.UTC(),
		UpdatedAt:     doc.UpdatedAt.UTC(),
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}

	for _, l := range doc.Lines {
		price, err := decimal.NewFromString(l.UnitPrice.String())
		if err != nil {
			return nil, fmt.Errorf("order %s: decode line price: %w", doc.ID, err)
		}
		o.Lines = append(o.Lines, domain.OrderLine{Name: l.Name, Quantity: l.Quantity, UnitPrice: price})
	}

	return o, nil
}

func toLineDocuments(lines []domain.OrderLine) ([]lineDocument, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	out := make([]lineDocument, len(lines))
	for i, l := range lines {
		price, err := toDecimal128(l.UnitPrice)
		if err != nil {
			return nil, err
		}
		out[i] = lineDocument{Name: l.Name, Quantity: l.Quantity, UnitPrice: price}
	}
	return out, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

// rawToDecimal reads a money value stored either as Decimal128 or, for
// documents written before amounts were stored exactly, as a plain number.
func rawToDecimal(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case bsontype.Decimal128:
		return decimal.NewFromString(v.Decimal128().String())
	case bsontype.Double:
		return decimal.NewFromFloat(v.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(v.Int64()), nil
	case bsontype.Null, bsontype.Type(0):
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported total type %s", v.Type)
	}
}
