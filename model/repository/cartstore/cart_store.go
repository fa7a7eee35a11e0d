package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storefront.GO/core/logging"
	"storefront.GO/model/entity/cart"
	"storefront.GO/model/entity/storage"
)

const sessionRowID = 1

// CartStore is the local persistence of the guest cart mirror and the auth token.
type CartStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New migrates the store tables and returns the repository.
func New(db *gorm.DB, logger *zap.Logger) (*CartStore, error) {
	if err := db.AutoMigrate(&storage.CartLineRecord{}, &storage.SessionRecord{}); err != nil {
		return nil, fmt.Errorf("cartstore: migrate: %w", err)
	}
	return &CartStore{db: db, logger: logging.OrNop(logger)}, nil
}

func toRecord(l cart.Line) (storage.CartLineRecord, error) {
	vars, err := json.Marshal(l.Variations)
	if err != nil {
		return storage.CartLineRecord{}, err
	}
	return storage.CartLineRecord{
		Key:                 l.Key,
		BaseProductID:       l.BaseProductID,
		Quantity:            l.Quantity,
		Variations:          datatypes.JSON(vars),
		VariationAdjustment: l.VariationAdjustment,
		FinalPrice:          l.FinalPrice,
	}, nil
}

func fromRecord(r storage.CartLineRecord) (cart.Line, error) {
	var sel cart.Selection
	if len(r.Variations) > 0 && string(r.Variations) != "null" {
		if err := json.Unmarshal(r.Variations, &sel); err != nil {
			return cart.Line{}, err
		}
	}
	l := cart.Line{
		Key:                 r.Key,
		BaseProductID:       r.BaseProductID,
		Quantity:            r.Quantity,
		Variations:          sel,
		VariationAdjustment: r.VariationAdjustment,
		FinalPrice:          r.FinalPrice,
	}
	return l, l.Validate()
}

// LoadCart reads the persisted mirror. Rows that fail validation are skipped and logged.
func (s *CartStore) LoadCart(ctx context.Context) (cart.Cart, error) {
	var rows []storage.CartLineRecord
	if err := s.db.WithContext(ctx).Order("cart_key").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(cart.Cart, len(rows))
	for _, r := range rows {
		l, err := fromRecord(r)
		if err != nil {
			s.logger.Warn("skipping malformed stored cart line", zap.String("key", r.Key), zap.Error(err))
			continue
		}
		out[l.Key] = l
	}
	return out, nil
}

// SaveCart replaces the persisted mirror with c.
func (s *CartStore) SaveCart(ctx context.Context, c cart.Cart) error {
	records := make([]storage.CartLineRecord, 0, len(c))
	for _, l := range c.Lines() {
		r, err := toRecord(l)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&storage.CartLineRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// ClearCart deletes every persisted line.
func (s *CartStore) ClearCart(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&storage.CartLineRecord{}).Error
}

// LoadToken returns the persisted auth token, or "" for a guest session.
func (s *CartStore) LoadToken(ctx context.Context) (string, error) {
	var rec storage.SessionRecord
	err := s.db.WithContext(ctx).First(&rec, sessionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.Token, nil
}

// SaveToken persists the auth token; an empty token forgets it.
func (s *CartStore) SaveToken(ctx context.Context, token string) error {
	rec := storage.SessionRecord{ID: sessionRowID, Token: token}
	return s.db.WithContext(ctx).Save(&rec).Error
}
