package pilot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	trialsCollection        = "trials"
	subscriptionsCollection = "subscriptions"
)

// MongoStore implements Store on a MongoDB database, one document per tenant
// per collection, upserted on save.
type MongoStore struct {
	trials        *mongo.Collection
	subscriptions *mongo.Collection
}

// NewMongoStore creates a Mongo-backed pilot store using the "trials" and
// "subscriptions" collections of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		trials:        db.Collection(trialsCollection),
		subscriptions: db.Collection(subscriptionsCollection),
	}
}

func (s *MongoStore) GetTrial(ctx context.Context, tenantID uuid.UUID) (*Trial, error) {
	var doc trialDoc
	err := s.trials.FindOne(ctx, bson.M{"tenant_id": tenantID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTrialNotFound
		}
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	return doc.toTrial()
}

func (s *MongoStore) SaveTrial(ctx context.Context, t *Trial) error {
	_, err := s.trials.ReplaceOne(ctx,
		bson.M{"tenant_id": t.TenantID.String()},
		newTrialDoc(t),
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrFailedToStoreRecord, err)
	}
	return nil
}

func (s *MongoStore) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	var doc subscriptionDoc
	err := s.subscriptions.FindOne(ctx, bson.M{"tenant_id": tenantID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	return doc.toSubscription()
}

func (s *MongoStore) SaveSubscription(ctx context.Context, sub *Subscription) error {
	_, err := s.subscriptions.ReplaceOne(ctx,
		bson.M{"tenant_id": sub.TenantID.String()},
		newSubscriptionDoc(sub),
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrFailedToStoreRecord, err)
	}
	return nil
}

// trialDoc is the BSON shape of a trial document. The tenant UUID is stored
// as a string so documents stay readable in the shell.
type trialDoc struct {
	TenantID          string     `bson:"tenant_id"`
	Status            string     `bson:"status"`
	StartedAt         time.Time  `bson:"started_at"`
	EndsAt            time.Time  `bson:"ends_at"`
	RetentionDeleteAt *time.Time `bson:"retention_delete_at,omitempty"`
	PurgedAt          *time.Time `bson:"purged_at,omitempty"`
	UpdatedAt         time.Time  `bson:"updated_at"`
}

func newTrialDoc(t *Trial) trialDoc {
	return trialDoc{
		TenantID:          t.TenantID.String(),
		Status:            string(t.Status),
		StartedAt:         t.StartedAt,
		EndsAt:            t.EndsAt,
		RetentionDeleteAt: t.RetentionDeleteAt,
		PurgedAt:          t.PurgedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (d trialDoc) toTrial() (*Trial, error) {
	id, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	t := &Trial{
		TenantID:  id,
		Status:    TrialStatus(d.Status),
		StartedAt: d.StartedAt.UTC(),
		EndsAt:    d.EndsAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.RetentionDeleteAt != nil {
		ts := d.RetentionDeleteAt.UTC()
		t.RetentionDeleteAt = &ts
	}
	if d.PurgedAt != nil {
		ts := d.PurgedAt.UTC()
		t.PurgedAt = &ts
	}
	return t, nil
}

type subscriptionDoc struct {
	TenantID                   string    `bson:"tenant_id"`
	PlanID                     string    `bson:"plan_id"`
	Status                     string    `bson:"status"`
	CaseCreditsPerPeriod       int64     `bson:"case_credits_per_period"`
	PaymentRowCreditsPerPeriod int64     `bson:"payment_row_credits_per_period"`
	ProviderSubID              string    `bson:"provider_sub_id,omitempty"`
	CreatedAt                  time.Time `bson:"created_at"`
	UpdatedAt                  time.Time `bson:"updated_at"`
}

func newSubscriptionDoc(sub *Subscription) subscriptionDoc {
	return subscriptionDoc{
		TenantID:                   sub.TenantID.String(),
		PlanID:                     sub.PlanID,
		Status:                     string(sub.Status),
		CaseCreditsPerPeriod:       sub.CaseCreditsPerPeriod,
		PaymentRowCreditsPerPeriod: sub.PaymentRowCreditsPerPeriod,
		ProviderSubID:              sub.ProviderSubID,
		CreatedAt:                  sub.CreatedAt,
		UpdatedAt:                  sub.UpdatedAt,
	}
}

func (d subscriptionDoc) toSubscription() (*Subscription, error) {
	id, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadRecord, err)
	}
	return &Subscription{
		TenantID:                   id,
		PlanID:                     d.PlanID,
		Status:                     SubscriptionStatus(d.Status),
		CaseCreditsPerPeriod:       d.CaseCreditsPerPeriod,
		PaymentRowCreditsPerPeriod: d.PaymentRowCreditsPerPeriod,
		ProviderSubID:              d.ProviderSubID,
		CreatedAt:                  d.CreatedAt.UTC(),
		UpdatedAt:                  d.UpdatedAt.UTC(),
	}, nil
}
