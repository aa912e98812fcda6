package models

import (
	"fmt"
	"strings"
)

// AssetType discriminates the three SDEX asset variants.
type AssetType string

const (
	AssetTypeNative           AssetType = "native"
	AssetTypeCreditAlphanum4  AssetType = "credit_alphanum4"
	AssetTypeCreditAlphanum12 AssetType = "credit_alphanum12"
)

// Asset is one side of an SDEX offer. Native assets carry no code or
// issuer; credit assets carry both. The zero value is not a valid asset.
// Equality is structural across all three fields.
type Asset struct {
	Type   AssetType
	Code   string
	Issuer string
}

// NativeAsset returns the native (XLM) asset.
func NativeAsset() Asset {
	return Asset{Type: AssetTypeNative}
}

// NewCreditAsset builds a credit asset, choosing the alphanum4 or
// alphanum12 variant from the code length.
func NewCreditAsset(code, issuer string) (Asset, error) {
	switch n := len(code); {
	case n >= 1 && n <= 4:
		return Asset{Type: AssetTypeCreditAlphanum4, Code: code, Issuer: issuer}, nil
	case n >= 5 && n <= 12:
		return Asset{Type: AssetTypeCreditAlphanum12, Code: code, Issuer: issuer}, nil
	default:
		return Asset{}, fmt.Errorf("asset code %q must be 1-12 characters", code)
	}
}

// IsNative reports whether the asset is the native lumens asset.
func (a Asset) IsNative() bool {
	return a.Type == AssetTypeNative
}

// Key projects the asset onto the (type, code, issuer) triple used as the
// natural key of the assets table. Native assets project nil code and
// issuer.
func (a Asset) Key() (string, *string, *string) {
	if a.IsNative() {
		return string(AssetTypeNative), nil, nil
	}
	code, issuer := a.Code, a.Issuer
	return string(a.Type), &code, &issuer
}

// Canonical returns the canonical string identifier: "native" for the
// native asset, "CODE:ISSUER" when the issuer is known, bare "CODE"
// otherwise.
func (a Asset) Canonical() string {
	if a.IsNative() {
		return string(AssetTypeNative)
	}
	if a.Issuer == "" {
		return a.Code
	}
	return a.Code + ":" + a.Issuer
}

// DisplayName returns the human-facing name: the asset code, or "XLM" for
// the native asset.
func (a Asset) DisplayName() string {
	if a.IsNative() {
		return "XLM"
	}
	return a.Code
}

// ParseCanonicalAsset parses the canonical string form accepted in API
// paths. "native" (or "XLM") names the native asset; otherwise the value
// is "CODE" or "CODE:ISSUER".
func ParseCanonicalAsset(s string) (Asset, error) {
	if s == "" {
		return Asset{}, fmt.Errorf("asset identifier is empty")
	}
	switch strings.ToLower(s) {
	case "native", "xlm":
		return NativeAsset(), nil
	}

	code, issuer := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		code, issuer = s[:i], s[i+1:]
		if issuer == "" {
			return Asset{}, fmt.Errorf("asset %q has an empty issuer", s)
		}
		if strings.ContainsRune(issuer, ':') {
			return Asset{}, fmt.Errorf("asset %q is not in CODE:ISSUER form", s)
		}
	}
	if !isAlphanum(code) {
		return Asset{}, fmt.Errorf("asset code %q must be alphanumeric", code)
	}
	return NewCreditAsset(code, issuer)
}

func isAlphanum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
