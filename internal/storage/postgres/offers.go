package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/stellarroute/stellarroute/internal/models"
	"github.com/stellarroute/stellarroute/internal/storage"
)

// UpsertAsset records an asset sighting. First sight inserts the row; any
// later sight only bumps updated_at. Replay-safe on the natural triple key
// with NULL code/issuer comparing equal.
func (s *Store) UpsertAsset(ctx context.Context, a models.Asset) error {
	if s.db == nil {
		return storage.ErrDatabaseClosed
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	typ, code, issuer := a.Key()
	const q = `
		INSERT INTO assets (asset_type, asset_code, asset_issuer, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (asset_type, asset_code, asset_issuer)
		DO UPDATE SET updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, q, typ, nullString(code), nullString(issuer)); err != nil {
		return storage.NewQueryError("upsert_asset", "failed to upsert asset "+a.Canonical(), err)
	}
	return nil
}

// UpsertOffer writes the full offer row, updating the mutable fields on
// offer_id conflict. created_at is preserved across replays.
func (s *Store) UpsertOffer(ctx context.Context, o models.Offer) error {
	if s.db == nil {
		return storage.ErrDatabaseClosed
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	sellType, sellCode, sellIssuer := o.Selling.Key()
	buyType, buyCode, buyIssuer := o.Buying.Key()

	const q = `
		INSERT INTO sdex_offers (
			offer_id, seller_id,
			selling_asset_type, selling_asset_code, selling_asset_issuer,
			buying_asset_type, buying_asset_code, buying_asset_issuer,
			amount, price_n, price_d, price,
			last_modified_ledger, last_modified_time,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (offer_id) DO UPDATE SET
			seller_id = EXCLUDED.seller_id,
			amount = EXCLUDED.amount,
			price_n = EXCLUDED.price_n,
			price_d = EXCLUDED.price_d,
			price = EXCLUDED.price,
			last_modified_ledger = EXCLUDED.last_modified_ledger,
			last_modified_time = EXCLUDED.last_modified_time,
			updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, q,
		int64(o.ID), o.Seller,
		sellType, nullString(sellCode), nullString(sellIssuer),
		buyType, nullString(buyCode), nullString(buyIssuer),
		o.Amount, o.PriceN, o.PriceD, o.Price,
		int64(o.LastModifiedLedger), nullTime(o.LastModifiedTime),
	)
	if err != nil {
		return storage.NewQueryError("upsert_offer", "failed to upsert offer", err)
	}
	return nil
}

// PairRow is one aggregated trading pair.
type PairRow struct {
	Selling     models.Asset
	Buying      models.Asset
	OfferCount  int64
	LastUpdated *time.Time
}

// TradingPairs aggregates open offers into trading pairs ordered by offer
// count, capped at 100 pairs.
func (s *Store) TradingPairs(ctx context.Context) ([]PairRow, error) {
	if s.db == nil {
		return nil, storage.ErrDatabaseClosed
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const q = `
		SELECT selling_asset_type, selling_asset_code, selling_asset_issuer,
		       buying_asset_type, buying_asset_code, buying_asset_issuer,
		       COUNT(*) AS offer_count,
		       MAX(updated_at) AS last_updated
		FROM sdex_offers
		GROUP BY selling_asset_type, selling_asset_code, selling_asset_issuer,
		         buying_asset_type, buying_asset_code, buying_asset_issuer
		ORDER BY offer_count DESC
		LIMIT 100`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storage.NewQueryError("trading_pairs", "failed to aggregate trading pairs", err)
	}
	defer rows.Close()

	var pairs []PairRow
	for rows.Next() {
		var (
			sellType, buyType    string
			sellCode, sellIssuer sql.NullString
			buyCode, buyIssuer   sql.NullString
			offerCount           int64
			lastUpdated          sql.NullTime
		)
		if err := rows.Scan(
			&sellType, &sellCode, &sellIssuer,
			&buyType, &buyCode, &buyIssuer,
			&offerCount, &lastUpdated,
		); err != nil {
			return nil, storage.NewQueryError("trading_pairs", "failed to scan pair row", err)
		}

		pair := PairRow{
			Selling:    assetFromColumns(sellType, sellCode, sellIssuer),
			Buying:     assetFromColumns(buyType, buyCode, buyIssuer),
			OfferCount: offerCount,
		}
		if lastUpdated.Valid {
			t := lastUpdated.Time
			pair.LastUpdated = &t
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewQueryError("trading_pairs", "failed to iterate pair rows", err)
	}
	return pairs, nil
}

// BookOffer is one open offer on a side of an order book, cheapest first.
type BookOffer struct {
	Amount string
	PriceN int32
	PriceD int32
	Price  string
}

// OrderbookOffers lists the open offers selling one asset for another,
// ordered by ascending rational price.
func (s *Store) OrderbookOffers(ctx context.Context, selling, buying models.Asset) ([]BookOffer, error) {
	if s.db == nil {
		return nil, storage.ErrDatabaseClosed
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	sellType, sellCode, sellIssuer := selling.Key()
	buyType, buyCode, buyIssuer := buying.Key()

	const q = `
		SELECT amount, price_n, price_d, price
		FROM sdex_offers
		WHERE selling_asset_type = $1
		  AND selling_asset_code IS NOT DISTINCT FROM $2
		  AND selling_asset_issuer IS NOT DISTINCT FROM $3
		  AND buying_asset_type = $4
		  AND buying_asset_code IS NOT DISTINCT FROM $5
		  AND buying_asset_issuer IS NOT DISTINCT FROM $6
		ORDER BY price_n::numeric / price_d ASC`

	rows, err := s.db.QueryContext(ctx, q,
		sellType, nullString(sellCode), nullString(sellIssuer),
		buyType, nullString(buyCode), nullString(buyIssuer),
	)
	if err != nil {
		return nil, storage.NewQueryError("orderbook_offers", "failed to query orderbook offers", err)
	}
	defer rows.Close()

	var offers []BookOffer
	for rows.Next() {
		var o BookOffer
		if err := rows.Scan(&o.Amount, &o.PriceN, &o.PriceD, &o.Price); err != nil {
			return nil, storage.NewQueryError("orderbook_offers", "failed to scan offer row", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewQueryError("orderbook_offers", "failed to iterate offer rows", err)
	}
	return offers, nil
}

// PruneOffersBefore deletes offers whose updated_at predates the cutoff.
// Archival hook for a maintenance task; the ingestion path never calls it
// and never depends on it.
func (s *Store) PruneOffersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrDatabaseClosed
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sdex_offers WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, storage.NewQueryError("prune_offers", "failed to prune offers", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storage.NewQueryError("prune_offers", "failed to read prune row count", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// assetFromColumns rebuilds a domain asset from its table columns.
func assetFromColumns(typ string, code, issuer sql.NullString) models.Asset {
	a := models.Asset{Type: models.AssetType(typ)}
	if code.Valid {
		a.Code = code.String
	}
	if issuer.Valid {
		a.Issuer = issuer.String
	}
	return a
}
