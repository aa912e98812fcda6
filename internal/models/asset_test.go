package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN"

func TestAssetKeyProjection(t *testing.T) {
	typ, code, issuer := NativeAsset().Key()
	assert.Equal(t, "native", typ)
	assert.Nil(t, code)
	assert.Nil(t, issuer)

	usdc, err := NewCreditAsset("USDC", testIssuer)
	require.NoError(t, err)
	typ, code, issuer = usdc.Key()
	assert.Equal(t, "credit_alphanum4", typ)
	require.NotNil(t, code)
	require.NotNil(t, issuer)
	assert.Equal(t, "USDC", *code)
	assert.Equal(t, testIssuer, *issuer)

	long, err := NewCreditAsset("YIELDXLM00", testIssuer)
	require.NoError(t, err)
	typ, _, _ = long.Key()
	assert.Equal(t, "credit_alphanum12", typ)
}

func TestNewCreditAssetVariantByCodeLength(t *testing.T) {
	tests := []struct {
		code     string
		wantType AssetType
		wantErr  bool
	}{
		{"A", AssetTypeCreditAlphanum4, false},
		{"USDC", AssetTypeCreditAlphanum4, false},
		{"USDCX", AssetTypeCreditAlphanum12, false},
		{"YIELDXLM0012", AssetTypeCreditAlphanum12, false},
		{"", "", true},
		{"THIRTEENCHARS", "", true},
	}

	for _, tt := range tests {
		a, err := NewCreditAsset(tt.code, testIssuer)
		if tt.wantErr {
			assert.Error(t, err, "code %q", tt.code)
			continue
		}
		require.NoError(t, err, "code %q", tt.code)
		assert.Equal(t, tt.wantType, a.Type)
	}
}

func TestAssetCanonicalForm(t *testing.T) {
	assert.Equal(t, "native", NativeAsset().Canonical())

	usdc, err := NewCreditAsset("USDC", testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "USDC:"+testIssuer, usdc.Canonical())

	// Issuerless credit assets render as the bare code.
	bare := Asset{Type: AssetTypeCreditAlphanum4, Code: "EURT"}
	assert.Equal(t, "EURT", bare.Canonical())
}

func TestAssetDisplayName(t *testing.T) {
	assert.Equal(t, "XLM", NativeAsset().DisplayName())

	usdc, err := NewCreditAsset("USDC", testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "USDC", usdc.DisplayName())
}

func TestAssetStructuralEquality(t *testing.T) {
	assert.Equal(t, NativeAsset(), NativeAsset())

	a, err := NewCreditAsset("USDC", testIssuer)
	require.NoError(t, err)
	b, err := NewCreditAsset("USDC", testIssuer)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewCreditAsset("EURT", testIssuer)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, NativeAsset(), a)

	// Same code under different variants is a different asset.
	assert.NotEqual(t,
		Asset{Type: AssetTypeCreditAlphanum4, Code: "USDC", Issuer: testIssuer},
		Asset{Type: AssetTypeCreditAlphanum12, Code: "USDC", Issuer: testIssuer},
	)
}

func TestParseCanonicalAsset(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Asset
		wantErr bool
	}{
		{"native", "native", NativeAsset(), false},
		{"xlm alias", "XLM", NativeAsset(), false},
		{"code and issuer", "USDC:" + testIssuer,
			Asset{Type: AssetTypeCreditAlphanum4, Code: "USDC", Issuer: testIssuer}, false},
		{"long code", "YIELDXLM00:" + testIssuer,
			Asset{Type: AssetTypeCreditAlphanum12, Code: "YIELDXLM00", Issuer: testIssuer}, false},
		{"bare code", "EURT", Asset{Type: AssetTypeCreditAlphanum4, Code: "EURT"}, false},
		{"empty", "", Asset{}, true},
		{"empty issuer", "USDC:", Asset{}, true},
		{"double colon", "USDC:G:EXTRA", Asset{}, true},
		{"bad characters", "US$C", Asset{}, true},
		{"code too long", "THIRTEENCHARS:" + testIssuer, Asset{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCanonicalAsset(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssetJSONToAsset(t *testing.T) {
	tests := []struct {
		name    string
		wire    AssetJSON
		want    Asset
		wantErr bool
	}{
		{"native", AssetJSON{AssetType: "native"}, NativeAsset(), false},
		{"native ignores stray code", AssetJSON{AssetType: "native", AssetCode: "XLM"}, NativeAsset(), false},
		{"alphanum4", AssetJSON{AssetType: "credit_alphanum4", AssetCode: "USDC", AssetIssuer: testIssuer},
			Asset{Type: AssetTypeCreditAlphanum4, Code: "USDC", Issuer: testIssuer}, false},
		{"alphanum12", AssetJSON{AssetType: "credit_alphanum12", AssetCode: "YIELDXLM00", AssetIssuer: testIssuer},
			Asset{Type: AssetTypeCreditAlphanum12, Code: "YIELDXLM00", Issuer: testIssuer}, false},
		{"missing code", AssetJSON{AssetType: "credit_alphanum4", AssetIssuer: testIssuer}, Asset{}, true},
		{"missing issuer", AssetJSON{AssetType: "credit_alphanum4", AssetCode: "USDC"}, Asset{}, true},
		{"unknown variant", AssetJSON{AssetType: "bogus", AssetCode: "USDC", AssetIssuer: testIssuer}, Asset{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.wire.ToAsset()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsParseError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAssetRoundTrip(t *testing.T) {
	usdc, err := NewCreditAsset("USDC", testIssuer)
	require.NoError(t, err)

	for _, a := range []Asset{NativeAsset(), usdc} {
		back, err := FromAsset(a).ToAsset()
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}
