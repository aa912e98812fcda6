package models

import (
	"net/url"
	"time"
)

// AssetJSON is the nested asset object on the Horizon wire, discriminated
// by asset_type.
type AssetJSON struct {
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
}

// ToAsset validates the wire form and converts it to a domain Asset.
// Non-native assets must carry both code and issuer.
func (a AssetJSON) ToAsset() (Asset, error) {
	switch AssetType(a.AssetType) {
	case AssetTypeNative:
		return NativeAsset(), nil
	case AssetTypeCreditAlphanum4, AssetTypeCreditAlphanum12:
		if a.AssetCode == "" {
			return Asset{}, newParseError("asset_code", "missing on non-native asset", nil)
		}
		if a.AssetIssuer == "" {
			return Asset{}, newParseError("asset_issuer", "missing on non-native asset", nil)
		}
		return Asset{Type: AssetType(a.AssetType), Code: a.AssetCode, Issuer: a.AssetIssuer}, nil
	default:
		return Asset{}, newParseError("asset_type", "unknown variant "+a.AssetType, nil)
	}
}

// FromAsset renders a domain Asset back to its wire form.
func FromAsset(a Asset) AssetJSON {
	if a.IsNative() {
		return AssetJSON{AssetType: string(AssetTypeNative)}
	}
	return AssetJSON{AssetType: string(a.Type), AssetCode: a.Code, AssetIssuer: a.Issuer}
}

// PriceRatio is the exact rational price on the wire.
type PriceRatio struct {
	N int32 `json:"n"`
	D int32 `json:"d"`
}

// HorizonOffer is one offer record as Horizon serves it from /offers.
type HorizonOffer struct {
	ID                 string      `json:"id"`
	PagingToken        string      `json:"paging_token,omitempty"`
	Seller             string      `json:"seller"`
	Selling            AssetJSON   `json:"selling"`
	Buying             AssetJSON   `json:"buying"`
	Amount             string      `json:"amount"`
	Price              string      `json:"price"`
	PriceR             *PriceRatio `json:"price_r,omitempty"`
	LastModifiedLedger uint32      `json:"last_modified_ledger"`
	LastModifiedTime   *time.Time  `json:"last_modified_time,omitempty"`
}

// OffersPage is one page of the paginated /offers collection.
type OffersPage struct {
	Embedded struct {
		Records []HorizonOffer `json:"records"`
	} `json:"_embedded"`
	Links struct {
		Self *PageLink `json:"self,omitempty"`
		Next *PageLink `json:"next,omitempty"`
		Prev *PageLink `json:"prev,omitempty"`
	} `json:"_links"`
}

// PageLink is a HAL link on a Horizon collection page.
type PageLink struct {
	Href string `json:"href"`
}

// Records returns the offer records of the page in wire order.
func (p *OffersPage) Records() []HorizonOffer {
	return p.Embedded.Records
}

// NextCursor extracts the cursor of the next page from the HAL links.
// It returns "" when the link is absent or carries no cursor.
func (p *OffersPage) NextCursor() string {
	if p.Links.Next == nil || p.Links.Next.Href == "" {
		return ""
	}
	u, err := url.Parse(p.Links.Next.Href)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}
